// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"k8s.io/klog/v2"
)

// Report holds the devices whose design and network profiles differ. Matched fields
// other than tid are removed from both sides.
type Report struct {
	GraniteData []Device `json:"Granite Data"`
	NetworkData []Device `json:"Network Data"`
}

// Maps returns both sides of the report as plain maps.
func (r *Report) Maps() ([]map[string]interface{}, []map[string]interface{}) {
	toMaps := func(devices []Device) []map[string]interface{} {
		out := make([]map[string]interface{}, 0, len(devices))
		for _, d := range devices {
			out = append(out, d)
		}
		return out
	}
	return toMaps(r.GraniteData), toMaps(r.NetworkData)
}

// CIDRUpdater records the address found on the network for the VGW shelf of the circuit.
type CIDRUpdater func(cidr string) error

// CompareNetworkAndGranite compares the designed and network profiles of each device.
// It returns a nil report when every device matches and ErrDeviceSetMismatch when the two
// sides do not hold the same devices. Devices in skipTIDs are ignored.
//
// When vgwIPv4 is set, the ipv4 of a CW device matches on the address alone and a prefix
// found on the network that differs from the design is written back through update.
func CompareNetworkAndGranite(db, network []Device, skipTIDs []string, vgwIPv4 string, update CIDRUpdater) (*Report, error) {
	skip := map[string]bool{}
	for _, tid := range skipTIDs {
		skip[tid] = true
	}
	byTID := func(devices []Device) map[string]Device {
		out := map[string]Device{}
		for _, d := range devices {
			if d == nil || skip[d.TID()] {
				continue
			}
			out[d.TID()] = d
		}
		return out
	}
	dbDevices, networkDevices := byTID(db), byTID(network)
	if len(dbDevices) != len(networkDevices) {
		return nil, ErrDeviceSetMismatch
	}
	for tid := range dbDevices {
		if _, ok := networkDevices[tid]; !ok {
			return nil, ErrDeviceSetMismatch
		}
	}

	report := &Report{GraniteData: []Device{}, NetworkData: []Device{}}
	// Keep the design order in the report.
	for _, d := range db {
		if d == nil || skip[d.TID()] {
			continue
		}
		tid := d.TID()
		dbDev, netDev := dbDevices[tid], networkDevices[tid]
		dev1, dev2 := dbDev.copy(), netDev.copy()
		drop := func(key string) {
			delete(dev1, key)
			delete(dev2, key)
		}

		for key, value := range dbDev {
			other := netDev[key]
			switch {
			case key == KeyTID:
			case key == KeyIPv4 && vgwIPv4 != "" && strings.HasSuffix(tid, "CW"):
				if value == nil && other == nil {
					drop(key)
				} else if sameIPv4(value, other, vgwIPv4, update) {
					drop(key)
				}
			case key == KeyIPv6:
				if value == nil && other == nil {
					drop(key)
				} else if sameIPv6Network(value, other) {
					drop(key)
				}
			case key == KeyModel:
				a, _ := value.(string)
				b, _ := other.(string)
				if cmp.Equal(value, other) || CompareModels(a, b) {
					drop(key)
				}
			default:
				if cmp.Equal(value, other) {
					drop(key)
				}
			}
		}

		if len(dev1) > 1 || len(dev2) > 1 {
			report.GraniteData = append(report.GraniteData, dev1)
			report.NetworkData = append(report.NetworkData, dev2)
		}
	}

	if len(report.GraniteData) == 0 && len(report.NetworkData) == 0 {
		return nil, nil
	}
	klog.V(2).Infof("Granite and network data differ for %d devices.", len(report.GraniteData))
	return report, nil
}

// CompareModels treats two models as equal when the parts after the first "-" are the same.
// Models without a "-" are equal when both are 203AX variants.
func CompareModels(a, b string) bool {
	pa, pb := strings.Split(a, "-"), strings.Split(b, "-")
	if len(pa) > 1 && len(pb) > 1 {
		return pa[1] == pb[1]
	}
	return strings.Contains(strings.ToUpper(a), "203AX") && strings.Contains(strings.ToUpper(b), "203AX")
}

// parseInterface parses "addr/bits" or a bare address, which gets a host prefix.
func parseInterface(v interface{}) (netip.Prefix, bool) {
	s, ok := v.(string)
	if !ok {
		return netip.Prefix{}, false
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		return p, err == nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(addr, addr.BitLen()), true
}

func sameIPv4(db, network interface{}, vgwIPv4 string, update CIDRUpdater) bool {
	p1, ok1 := parseInterface(db)
	p2, ok2 := parseInterface(network)
	if !ok1 || !ok2 || !p1.Addr().Is4() || !p2.Addr().Is4() {
		return false
	}
	if p1.Addr() != p2.Addr() {
		return false
	}
	if p1.Bits() != p2.Bits() && update != nil {
		cidr := strings.Split(vgwIPv4, "/")[0] + "/" + strconv.Itoa(p2.Bits())
		if err := update(cidr); err != nil {
			klog.Errorf("Unable to update the VGW shelf to %s: %v", cidr, err)
		}
	}
	return true
}

func sameIPv6Network(db, network interface{}) bool {
	p1, ok1 := parseInterface(db)
	p2, ok2 := parseInterface(network)
	if !ok1 || !ok2 || !p1.Addr().Is6() || !p2.Addr().Is6() {
		return false
	}
	return p1.Masked() == p2.Masked()
}

// VGWGatewayIPv4 returns the CW side address of a VGW: the address before the VGW's, same prefix.
func VGWGatewayIPv4(vgwIPv4 string) (string, error) {
	p, err := netip.ParsePrefix(strings.TrimSpace(vgwIPv4))
	if err != nil {
		return "", abort("Invalid VGW ipv4: %s", vgwIPv4)
	}
	prev := p.Addr().Prev()
	if !prev.IsValid() {
		return "", abort("Invalid VGW ipv4: %s", vgwIPv4)
	}
	return prev.String() + "/" + strconv.Itoa(p.Bits()), nil
}
