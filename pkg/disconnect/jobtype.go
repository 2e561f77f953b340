// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"k8s.io/klog/v2"
)

// Engineering job types.
const (
	JobFull    = "full"
	JobPartial = "partial"
)

const (
	yes = "Yes"
	no  = "No"
)

// TruckRollList holds the Granite model names of customer premises devices that need a
// technician on site to be recovered.
var TruckRollList = map[string]bool{
	"ADTRAN 908E":       true,
	"ADTRAN 924E":       true,
	"AUDIOCODES M500":   true,
	"AUDIOCODES M800":   true,
	"AUDIOCODES MP-124": true,
	"CISCO ISR4321":     true,
	"CISCO ISR4331":     true,
	"CISCO VG204XM":     true,
	"CISCO VG310":       true,
	"EDGEMARC 4552":     true,
}

// Site keys exchanged between the A and Z sides.
var siteKeys = []string{
	"SITE_NAME", "SITE_TYPE", "SITE_MARKET", "SITE_REGION", "ADDRESS", "CITY",
	"STATE", "ZIP", "CLLI", "NPA", "LONGITUDE", "LATITUDE", "COMMENTS",
}

// IsVGWInstallerNeeded returns "Yes" when recovering a VGW of this model needs a truck roll.
func IsVGWInstallerNeeded(model string) string {
	if TruckRollList[model] {
		return yes
	}
	return no
}

// FullDiscoCheck returns whether hub work and a CPE installer are needed for a disconnect.
// Both are "No" unless the job is full. Hub work is not needed when the Z site is an active MTU.
func FullDiscoCheck(jobType string, elements []Row, cpeModel string) (string, string, error) {
	hubWork, installer := no, no
	if jobType != JobFull {
		return hubWork, installer, nil
	}
	hubWork = yes
	for _, elem := range elements {
		siteType, ok := elem["PATH_Z_SITE_TYPE"]
		if !ok || siteType == nil {
			return "", "", abort("No Z Site Type in Path Elements.")
		}
		if strings.ToLower(elem.Str("PATH_Z_SITE_TYPE")) == "active mtu" {
			hubWork = no
			break
		}
	}
	if TruckRollList[strings.ToUpper(cpeModel)] {
		installer = yes
	}
	return hubWork, installer, nil
}

// SwitchSites returns a copy of site with its A side and Z side values exchanged.
func SwitchSites(site Row) Row {
	out := Row{}
	for k, v := range site {
		out[k] = v
	}
	for _, key := range siteKeys {
		a, aok := site["A_"+key]
		z, zok := site["Z_"+key]
		delete(out, "A_"+key)
		delete(out, "Z_"+key)
		if zok {
			out["A_"+key] = z
		}
		if aok {
			out["Z_"+key] = a
		}
	}
	return out
}

// JobType classifies a disconnect as full or partial. A disconnect is full when the CPE
// serves no other circuit that stays in service.
func JobType(ctx context.Context, store DesignReader, cid, cpe string, docsisOrMNE, switchSides bool) (string, error) {
	sites, err := store.CircuitSiteInfo(ctx, cid)
	if err != nil {
		return "", fmt.Errorf("reading site info of %s: %w", cid, err)
	}
	if len(sites) == 0 {
		return "", abort("Unable to acquire circuit site info for %s", cid)
	}
	site := sites[0]
	udas, err := store.CircuitUDAs(ctx, site.Str("CIRC_PATH_INST_ID"))
	if err != nil {
		return "", fmt.Errorf("reading UDAs of %s: %w", cid, err)
	}
	if switchSides {
		site = SwitchSites(site)
	}
	siteName := site.Str("Z_SITE_NAME")

	for _, uda := range udas {
		if uda.Str("ATTR_VALUE") == "TYPE 2" {
			return "", abort("TYPE 2 is unsupported at this time")
		}
	}
	if cpe == "" {
		return "", abort("No ZW device found")
	}

	if docsisOrMNE {
		return docsisJobType(ctx, store, siteName)
	}

	ports, err := store.UsedEquipmentPorts(ctx, cpe)
	if err != nil {
		return "", fmt.Errorf("reading used ports of %s: %w", cpe, err)
	}
	names := map[string]bool{}
	for _, port := range ports {
		name := port.Str("CURRENT_PATH_NAME")
		if name == "" {
			name = port.Str("NEXT_PATH_NAME")
		}
		if pathMatch(cid, cpe, name) {
			names[name] = true
		}
	}
	paths := make([]string, 0, len(names))
	for name := range names {
		paths = append(paths, name)
	}
	sort.Strings(paths)

	active := 0
	for _, path := range paths {
		pathSites, err := store.CircuitSiteInfo(ctx, path)
		if err != nil {
			return "", fmt.Errorf("reading site info of %s: %w", path, err)
		}
		for _, s := range pathSites {
			if s.Str("CIRCUIT_STATUS") != "Pending Decommission" {
				active++
			}
		}
	}
	klog.V(2).Infof("CPE %s of %s carries %d other paths, %d still active.", cpe, cid, len(paths), active)
	if active == 0 {
		return JobFull, nil
	}
	return JobPartial, nil
}

func docsisJobType(ctx context.Context, store DesignReader, site string) (string, error) {
	paths, err := store.PathsFromSite(ctx, site)
	if err != nil {
		return "", fmt.Errorf("reading paths from %s: %w", site, err)
	}
	count := 0
	for _, path := range paths {
		name := strings.ToUpper(path.Str("PATH_NAME"))
		if strings.Contains(name, "TWCC") || strings.Contains(name, "CHTR") {
			count++
		}
	}
	switch {
	case count == 1:
		return JobFull, nil
	case count > 1:
		return JobPartial, nil
	}
	return "", abort("Unable to determine the enginnering job type. No paths related to site name: %s in granite", site)
}

// pathMatch reports whether a path on the CPE counts toward the job type: it is not the
// circuit being disconnected and it runs through the CPE or is a TWCC or CHTR path.
func pathMatch(cid, cpe, path string) bool {
	if strings.Contains(path, cid) {
		return false
	}
	for _, m := range []string{"." + cpe + ".", "TWCC", "CHTR"} {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}
