// Copyright Contributors to the Open Cluster Management project

// Package slm activates service level monitoring on a circuit: it picks the reflector and probe
// devices, onboards them and reads their CFM maintenance domains to find the next free MANET.
package slm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// Roles a device takes in the measurement.
const (
	RoleReflector = "reflector"
	RoleProbe     = "probe"
)

// Device is an SLM endpoint read from the circuit details.
type Device struct {
	TID     string `json:"tid"`
	Port    string `json:"port"`
	UUID    string `json:"uuid"`
	Model   string `json:"model"`
	MgmtIP  string `json:"mgmt_ip"`
	FQDN    string `json:"fqdn"`
	Role    string `json:"role"`
	Vendor  string `json:"vendor"`
	SLMRole string `json:"slm_role"`
}

var modelsByVendor = map[string][]string{
	"JUNIPER": {"MX"},
	"ADVA":    {"114/", "114PRO", "116PRO"},
	"RAD":     {"203", "220", "2I"},
}

var eligibleModels = map[string][]string{
	RoleReflector: {"MX", "220", "203", "2I", "114", "114PRO", "116PRO"},
	RoleProbe:     {"220", "203", "2I", "114", "114PRO", "116PRO"},
}

var granitePortRoles = map[string]string{"UNI": "UNI-UNI", "ENNI": "UNI-ENNI", "INNI": "UNI-ENNI"}

// section returns a list of the circuit details, whether given as a market resource or bare.
func section(cd gjson.Result, name string) gjson.Result {
	if v := cd.Get("properties." + name); v.Exists() {
		return v
	}
	return cd.Get(name)
}

func nameValues(list gjson.Result) map[string]string {
	values := map[string]string{}
	list.ForEach(func(_, nv gjson.Result) bool {
		values[nv.Get("name").String()] = nv.Get("value").String()
		return true
	})
	return values
}

// ChooseDevices picks the reflector and the probe. A Z side with a single device is the reflector,
// otherwise the A side reflects.
func ChooseDevices(cd gjson.Result) (reflector, probe Device, err error) {
	reflectorIndex, probeIndex := 0, 1
	if section(cd, "topology").Get("1.data.node.#").Int() == 1 {
		reflectorIndex, probeIndex = 1, 0
	}
	if reflector, err = deviceDetails(cd, reflectorIndex, RoleReflector); err != nil {
		return
	}
	probe, err = deviceDetails(cd, probeIndex, RoleProbe)
	return
}

// deviceDetails returns the node of the spoke that terminates endpoint index of the evc.
func deviceDetails(cd gjson.Result, index int, slmRole string) (Device, error) {
	uniID := section(cd, "service").Get(fmt.Sprintf("0.data.evc.0.endPoints.%d.uniId", index)).String()
	host := strings.Split(uniID, "-")[0]

	var found *Device
	section(cd, "topology").Get(fmt.Sprintf("%d.data.node", index)).ForEach(func(_, node gjson.Result) bool {
		info := nameValues(node.Get("name"))
		if host == "" || info["Host Name"] != host {
			return true
		}
		found = &Device{
			TID:     info["Host Name"],
			Port:    info["Client Interface"],
			UUID:    info["Host Name"] + "-" + info["Client Interface"],
			Model:   info["Model"],
			MgmtIP:  info["Management IP"],
			FQDN:    info["FQDN"],
			Role:    info["Role"],
			Vendor:  info["Vendor"],
			SLMRole: slmRole,
		}
		return false
	})
	if found == nil {
		return Device{}, fmt.Errorf("no %s device found for endpoint %d (%s)", slmRole, index, uniID)
	}
	return *found, nil
}

// translateModel reduces the model to the family used by the eligibility tables.
func translateModel(d Device) (string, bool) {
	family, ok := "", false
	for _, m := range modelsByVendor[d.Vendor] {
		if strings.Contains(d.Model, m) {
			family, ok = strings.ReplaceAll(m, "/", ""), true
		}
	}
	return family, ok
}

// Eligible reports whether the device model can take slmRole.
func Eligible(d Device, slmRole string) bool {
	family, ok := translateModel(d)
	if !ok {
		return false
	}
	for _, m := range eligibleModels[slmRole] {
		if m == family {
			klog.V(2).Infof("Eligible %s: %s %s", slmRole, d.Model, d.TID)
			return true
		}
	}
	return false
}

// PortRoles maps the endpoint port uuids to their maintenance domain, from the Granite port role.
func PortRoles(cd gjson.Result, ports []string) (map[string]string, error) {
	wanted := map[string]bool{}
	for _, p := range ports {
		wanted[p] = true
	}

	roles := map[string]string{}
	var err error
	section(cd, "topology").ForEach(func(_, spoke gjson.Result) bool {
		spoke.Get("data.node").ForEach(func(_, node gjson.Result) bool {
			node.Get("ownedNodeEdgePoint").ForEach(func(_, ep gjson.Result) bool {
				uuid := ep.Get("uuid").String()
				if !wanted[uuid] {
					return true
				}
				ep.Get("name").ForEach(func(_, nv gjson.Result) bool {
					if strings.ToUpper(nv.Get("name").String()) != "ROLE" {
						return true
					}
					role, ok := granitePortRoles[nv.Get("value").String()]
					if !ok {
						err = fmt.Errorf("Failed during granite translation for: %s", nv.Get("value").String())
						return false
					}
					roles[uuid] = role
					return true
				})
				return err == nil
			})
			return err == nil
		})
		return err == nil
	})
	return roles, err
}

// domainName returns the maintenance domain of the device behind the network function label.
func domainName(label string, roles map[string]string) string {
	tid := strings.ToUpper(strings.Split(label, ".")[0])
	for uuid, role := range roles {
		if strings.Contains(uuid, tid) {
			return role
		}
	}
	return ""
}
