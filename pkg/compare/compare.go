// Copyright Contributors to the Open Cluster Management project

// Package compare diffs device data read from the network against the designed
// resources and records the differences on the service mapper.
package compare

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"github.com/stolostron/circuit-reconciler/pkg/topology"
	"k8s.io/klog/v2"
)

// UserLabelLength is how much of a userLabel takes part in a comparison.
const UserLabelLength = 164

// FRE attributes that are not compared for ADVA devices.
var advaIgnoredFlowAttributes = map[string]bool{
	"epAccessN2AFlowEbs":           true,
	"epAccessN2AFlowCir":           true,
	"epAccessN2AFlowCbs":           true,
	"epAccessN2AFlowEir":           true,
	"epAccessFlowPBBFramesControl": true,
	"epAccessFlowIVlan":            true,
	"PolicerType":                  true,
	"policerName":                  true,
}

// Bandwidth profile properties compared as value plus units.
var bwRateProperties = []string{"committedBurstSize", "committedInformationRate"}

// DiffTPE returns the network and design differences of two port (TPE) property sets.
// A userLabel matches when its first UserLabelLength characters appear in the other side's label.
func DiffTPE(network, design map[string]interface{}) (Diff, Diff) {
	n, d := Normalize(network), Normalize(design)
	return tpeMissing(n, d), tpeMissing(d, n)
}

func tpeMissing(from, to map[string]string) Diff {
	diff := missing(from, to)
	if label, ok := diff["userLabel"].(string); ok {
		truncated := truncate(label, UserLabelLength)
		if other, found := to["userLabel"]; found && strings.Contains(other, truncated) {
			delete(diff, "userLabel")
		} else {
			diff["userLabel"] = truncated
		}
	}
	return diff
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// CompareTPE diffs port properties and records any differences in the port section.
// It returns the network differences so callers can validate them further.
func (m *Mapper) CompareTPE(ctx context.Context, network, design map[string]interface{}, mapperID, device string) Diff {
	networkDiff, designDiff := DiffTPE(network, design)
	if len(networkDiff) == 0 && len(designDiff) == 0 {
		klog.V(2).Infof("No TPE differences found for %s.", device)
		return networkDiff
	}
	klog.V(2).Infof("Mapper TPE design diff for %s: %v network diff: %v", device, designDiff, networkDiff)
	m.PatchDiffs(ctx, mapperID, device, SectionPort, networkDiff, designDiff, false)
	return networkDiff
}

// CheckDuplexAgainstBW fails when the adminSpeed of the network port properties is lower than the
// egress bandwidth of the designed service. A port without an adminSpeed has a speed of 0.
func CheckDuplexAgainstBW(network map[string]interface{}, cd topology.CircuitDetails) error {
	adminSpeed := 0
	v, ok := network["adminSpeed"]
	if !ok {
		v, ok = network["admin_speed"]
	}
	if ok && v != nil {
		speed, err := strconv.Atoi(render(v))
		if err != nil {
			return categorized.MDSO(categorized.IncorrectData, "AdminSpeed", fmt.Sprintf("admin speed: %v", v))
		}
		adminSpeed = speed
	}
	data, err := topology.ServiceData(cd)
	if err != nil {
		return err
	}
	bandwidth, _ := topology.EVC(data)["evc-egress-bwp"].(string)
	kbps, err := topology.KBPS(bandwidth)
	if err != nil {
		return categorized.Granite(categorized.MissingData, "Bandwidth", "evc-egress-bwp: "+bandwidth)
	}
	if adminSpeed < kbps {
		return categorized.Granite(categorized.IncorrectData, "Unsupported AdminSpeed for Bandwidth",
			fmt.Sprintf("admin speed: %d bandwidth: %d", adminSpeed, kbps))
	}
	klog.V(2).Infof("AdminSpeed: %d, Bandwidth: %d", adminSpeed, kbps)
	return nil
}

// ComparePE walks design recursively and returns the network and design values that differ.
// Keys present only in the design are logged and skipped. An ipv6 difference that only
// differs by prefix length is dropped.
func ComparePE(network, design interface{}) (Diff, Diff) {
	networkDiff, designDiff := Diff{}, Diff{}
	comparePE(network, design, networkDiff, designDiff, "")

	n, nok := networkDiff["ipv6"].(string)
	d, dok := designDiff["ipv6"].(string)
	if nok && dok && sameAddress(n, d) {
		delete(networkDiff, "ipv6")
		delete(designDiff, "ipv6")
	}
	klog.V(3).Infof("PE differences, design: %v network: %v", designDiff, networkDiff)
	return networkDiff, designDiff
}

func comparePE(network, design interface{}, networkDiff, designDiff Diff, listName string) {
	switch n := network.(type) {
	case string:
		if !cmp.Equal(design, network) {
			designDiff[listName] = design
			networkDiff[listName] = n
		}
	case map[string]interface{}:
		d, ok := design.(map[string]interface{})
		if !ok {
			return
		}
		for key, value := range d {
			other, found := n[key]
			if !found {
				klog.V(2).Infof("%s on MODEL but not NETWORK", key)
				continue
			}
			switch v := value.(type) {
			case map[string]interface{}:
				comparePE(other, v, networkDiff, designDiff, "")
			case []interface{}:
				otherList, _ := other.([]interface{})
				for i, element := range v {
					if i >= len(otherList) {
						klog.V(2).Infof("%s[%d] on MODEL but not NETWORK", key, i)
						continue
					}
					comparePE(otherList[i], element, networkDiff, designDiff, key)
				}
			default:
				if !cmp.Equal(value, other) {
					designDiff[key] = value
					networkDiff[key] = other
				}
			}
		}
	}
}

func sameAddress(a, b string) bool {
	ipA, errA := netip.ParseAddr(strings.Split(a, "/")[0])
	ipB, errB := netip.ParseAddr(strings.Split(b, "/")[0])
	return errA == nil && errB == nil && ipA == ipB
}

// CompareDesignIPs removes the ipv4 blocks present on both sides and records what remains
// as a core difference.
func (m *Mapper) CompareDesignIPs(ctx context.Context, design, network []interface{}, mapperID, device string) (Diff, Diff) {
	designOnly := subtract(design, network)
	networkOnly := subtract(network, design)
	if len(designOnly) == 0 && len(networkOnly) == 0 {
		klog.V(2).Infof("No IPV4 differences found for %s.", device)
		return nil, nil
	}
	networkDiff, designDiff := Diff{"ipv4": networkOnly}, Diff{"ipv4": designOnly}
	klog.V(2).Infof("Mapper IPV4 design diff for %s: %v network diff: %v", device, designOnly, networkOnly)
	m.PatchDiffs(ctx, mapperID, device, SectionPort, networkDiff, designDiff, true)
	return networkDiff, designDiff
}

func subtract(from, other []interface{}) []interface{} {
	remaining := []interface{}{}
	for _, block := range from {
		found := false
		for _, o := range other {
			if cmp.Equal(block, o) {
				found = true
				break
			}
		}
		if !found {
			remaining = append(remaining, block)
		}
	}
	return remaining
}

// DiffFRE returns the network and design differences of two flow (FRE) resources.
// ADVA flows compare additionalAttributes and RAD flows provisioningAttributes of the
// first two included endpoints. Classifier differences are reported as classifier_vlan.
func DiffFRE(network, design map[string]interface{}, vendor string) (Diff, Diff, error) {
	var attrs string
	switch vendor {
	case "ADVA":
		attrs = "additionalAttributes"
	case "RAD":
		attrs = "provisioningAttributes"
	default:
		return nil, nil, categorized.MDSO(categorized.Unsupported, "FRE Vendor", "vendor: "+vendor)
	}

	networkPorts, err := includedAttributes(network, attrs)
	if err != nil {
		return nil, nil, err
	}
	designPorts, err := includedAttributes(design, attrs)
	if err != nil {
		return nil, nil, err
	}
	if !cmp.Equal(networkPorts[0]["portId"], designPorts[0]["portId"]) {
		networkPorts[0], networkPorts[1] = networkPorts[1], networkPorts[0]
	}

	networkDiff, designDiff := Diff{}, Diff{}
	for port := 0; port < 2; port++ {
		n, d := Normalize(networkPorts[port]), Normalize(designPorts[port])
		if vendor == "ADVA" {
			for key := range advaIgnoredFlowAttributes {
				delete(n, key)
				delete(d, key)
			}
		}
		addFlowDiff(networkDiff, missing(n, d))
		addFlowDiff(designDiff, missing(d, n))
	}
	return networkDiff, designDiff, nil
}

func addFlowDiff(dst, src Diff) {
	for k, v := range src {
		if k == "classifier" {
			dst["classifier_vlan"] = ClassifierVLAN(render(v))
			continue
		}
		dst[k] = v
	}
}

// includedAttributes returns the attribute maps of properties.included[0] and [1].
func includedAttributes(fre map[string]interface{}, attrs string) ([2]map[string]interface{}, error) {
	var ports [2]map[string]interface{}
	props, _ := fre["properties"].(map[string]interface{})
	included, _ := props["included"].([]interface{})
	if len(included) < 2 {
		return ports, categorized.MDSO(categorized.MissingData, "FRE Included Endpoints",
			fmt.Sprintf("expected 2 included endpoints, found %d", len(included)))
	}
	for i := range ports {
		entry, _ := included[i].(map[string]interface{})
		attributes, _ := entry["attributes"].(map[string]interface{})
		ports[i], _ = attributes[attrs].(map[string]interface{})
		if ports[i] == nil {
			ports[i] = map[string]interface{}{}
		}
	}
	return ports, nil
}

// CompareFRE diffs two flows and records any differences in the flow section.
func (m *Mapper) CompareFRE(ctx context.Context, network, design map[string]interface{}, mapperID, device, vendor string) error {
	networkDiff, designDiff, err := DiffFRE(network, design, vendor)
	if err != nil {
		return err
	}
	if len(networkDiff) == 0 && len(designDiff) == 0 {
		klog.V(2).Infof("No FRE differences found for %s.", device)
		return nil
	}
	klog.V(2).Infof("Mapper FRE design diff for %s: %v network diff: %v", device, designDiff, networkDiff)
	m.PatchDiffs(ctx, mapperID, device, SectionFlow, networkDiff, designDiff, false)
	return nil
}

// CompareBWProfile returns the design and network differences of two bandwidth profiles.
// Burst size and information rate are compared as a whole and rendered as value plus the
// network's units, e.g. "100000kbps".
func CompareBWProfile(design, network map[string]interface{}) (Diff, Diff) {
	designProps, _ := design["properties"].(map[string]interface{})
	networkProps, _ := network["properties"].(map[string]interface{})

	generic := func(m map[string]interface{}) map[string]interface{} {
		out := map[string]interface{}{}
		for k, v := range m {
			out[k] = v
		}
		for _, p := range bwRateProperties {
			delete(out, p)
		}
		return out
	}
	d, n := Normalize(generic(designProps)), Normalize(generic(networkProps))
	designDiff, networkDiff := missing(d, n), missing(n, d)

	for _, p := range bwRateProperties {
		designRate, _ := designProps[p].(map[string]interface{})
		networkRate, _ := networkProps[p].(map[string]interface{})
		if cmp.Equal(designRate, networkRate) {
			continue
		}
		units := render(networkRate["units"])
		if networkRate != nil {
			networkDiff[p] = render(networkRate["value"]) + units
		}
		if designRate != nil {
			designDiff[p] = render(designRate["value"]) + units
		}
	}
	return designDiff, networkDiff
}

// CompareBWProfile diffs two bandwidth profiles and records any differences in the bw_profile section.
func (m *Mapper) CompareBWProfile(ctx context.Context, design, network map[string]interface{}, mapperID, device string) {
	designDiff, networkDiff := CompareBWProfile(design, network)
	if len(designDiff) == 0 && len(networkDiff) == 0 {
		klog.V(2).Infof("No bandwidth profile differences found for %s.", device)
		return
	}
	m.PatchDiffs(ctx, mapperID, device, SectionBWProfile, networkDiff, designDiff, false)
}
