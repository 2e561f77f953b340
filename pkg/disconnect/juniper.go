// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// juniper reads a Juniper device by its role: the router carries the circuit on a unit of its
// port, QFX and ACX switches and access and CPE devices each report it their own way.
func (s *RASource) juniper(ctx context.Context, device Device, c Circuit) Device {
	tid, port := device.TID(), device.Str(KeyPortID)
	if port == "" || len(tid) != 11 {
		return emptyProfile(device, "")
	}
	model := strings.ToUpper(device.Str(KeyModel))
	switch tidSuffix(tid) {
	case "CW":
		return s.juniperRouter(ctx, device, c)
	case "QW":
		if strings.Contains(model, "QFX") {
			return s.juniperQFX(ctx, device, c)
		}
		if strings.Contains(model, "ACX") {
			return s.juniperACX(ctx, device, c)
		}
	case "AW":
		return s.juniperAccess(ctx, device, c)
	case "ZW":
		return s.juniperCPE(ctx, device, c)
	}
	return emptyProfile(device, "")
}

// showInterfaces reads the configuration of the device port. ok is false when the device could
// not be reached, the profile then carries the communication error.
func (s *RASource) showInterfaces(ctx context.Context, device Device, net Device) (gjson.Result, bool) {
	result, err := s.exec(ctx, device.TID(), "show_interfaces", map[string]interface{}{"parameter": strings.ToLower(device.Str(KeyPortID))})
	if err != nil {
		net[KeyError] = "Device communication: show_interfaces"
		return gjson.Result{}, false
	}
	net[KeyVendor] = "JUNIPER"
	net[KeyModel] = device.Str(KeyModel)
	return result.Get("data.configuration.interfaces.interface"), true
}

func (s *RASource) juniperRouter(ctx context.Context, device Device, c Circuit) Device {
	net := emptyProfile(device, "")
	iface, ok := s.showInterfaces(ctx, device, net)
	if !ok || !iface.Exists() {
		return net
	}
	units := iface.Get("unit")
	if !units.IsArray() {
		return net
	}
	id := device.Str(KeyVLAN)
	for _, unit := range units.Array() {
		if unit.Get("vlan-id").String() != id {
			continue
		}
		net[KeyVLAN] = id
		net[KeyPortID] = device.Str(KeyPortID)
		description := unit.Get("description")
		if !description.Exists() {
			return net
		}
		net[KeyDescription] = strings.Contains(description.String(), c.CID)
		v4 := unit.Get("family.inet.address.name")
		if !v4.Exists() {
			return net
		}
		net[KeyIPv4] = v4.String()
		v6 := unit.Get("family.inet6.address.name")
		if !v6.Exists() {
			return net
		}
		net[KeyIPv6] = strings.ToUpper(v6.String())
		if c.IPv4ServiceType == "ROUTED" {
			s.juniperStaticRoute(ctx, device, net)
		}
		return net
	}
	net[KeyPortID] = "VLAN NOT FOUND"
	return net
}

// juniperStaticRoute checks that the assigned subnets of a routed circuit point at the circuit's
// unit. The subnets are reported only when they do.
func (s *RASource) juniperStaticRoute(ctx context.Context, device Device, net Device) {
	result, err := s.exec(ctx, device.TID(), "show_route", map[string]interface{}{"parameter": device[KeyAssignedSubnets]})
	if err != nil {
		net[KeyError] = "Device communication: show_route"
		return
	}
	net[KeyAssignedSubnets] = nil
	net[KeyGlueSubnet] = nil
	rt := result.Get("route-information.route-table.rt")
	if !rt.Exists() || rt.IsArray() || rt.Get("rt-entry").IsArray() {
		return
	}
	unit := strings.ToLower(device.Str(KeyPortID)) + "." + device.Str(KeyVLAN)
	if rt.Get("rt-entry.nh.via").String() == unit {
		net[KeyAssignedSubnets] = device[KeyAssignedSubnets]
		net[KeyGlueSubnet] = device[KeyGlueSubnet]
	}
}

// juniperQFX reads an aggregation QFX. The port lists vlan members by name, the member's own
// description is checked when the port's is not about the circuit.
func (s *RASource) juniperQFX(ctx context.Context, device Device, c Circuit) Device {
	tid, port := device.TID(), device.Str(KeyPortID)
	net := emptyProfile(device, "")
	net[KeyVendor] = "JUNIPER"
	net[KeyModel] = device.Str(KeyModel)

	result, err := s.exec(ctx, tid, "get_interfaces", map[string]interface{}{"parameter": strings.ToLower(port)})
	if err != nil {
		return net
	}
	var iface gjson.Result
	result.Get("configuration.interfaces").ForEach(func(name, value gjson.Result) bool {
		if strings.EqualFold(name.String(), port) {
			iface = value
			return false
		}
		return true
	})
	if !iface.Exists() {
		return net
	}
	net[KeyPortID] = port
	net[KeyDescription] = strings.Contains(iface.Get("description").String(), c.CID)

	members := iface.Get("unit.0.family.ethernet-switching.vlan.members")
	if !members.IsArray() {
		members = gjson.Parse(fmt.Sprintf("[%s]", members.Raw))
	}
	matched := ""
	for _, m := range members.Array() {
		if vlanListed(m, device.Str(KeyVLAN)) {
			net[KeyVLAN] = device.Str(KeyVLAN)
			matched = m.String()
			break
		}
	}
	if net[KeyDescription] == true || matched == "" {
		return net
	}

	aggregated, err := s.exec(ctx, tid, "agg_vlans", nil)
	if err != nil {
		return net
	}
	member := aggregated.Get(gjson.Escape(matched))
	if !member.Exists() {
		klog.Errorf("Unable to verify the description of %s - %s", tid, port)
		return net
	}
	net[KeyDescription] = strings.Contains(member.Get("description").String(), c.CID)
	return net
}

// juniperACX reads an aggregation ACX, which has one unit per circuit port.
func (s *RASource) juniperACX(ctx context.Context, device Device, c Circuit) Device {
	net := emptyProfile(device, "")
	net[KeyVendor] = "JUNIPER"
	net[KeyModel] = device.Str(KeyModel)
	net[KeyPortID] = device.Str(KeyPortID)

	result, err := s.exec(ctx, device.TID(), "show_interfaces", map[string]interface{}{"parameter": strings.ToLower(device.Str(KeyPortID))})
	if err != nil {
		net[KeyError] = "Device communication: show_interfaces"
		return net
	}
	unit := result.Get("data.configuration.interfaces.interface.unit")
	if unit.IsObject() {
		net[KeyDescription] = strings.Contains(unit.Get("description").String(), c.CID)
		net[KeyVLAN] = unit.Get("vlan-id").String()
	}
	return net
}

// juniperAccess reads an access switch. Its port description names the neighbor device it
// faces and the circuit vlan is one of the port's ethernet-switching members.
func (s *RASource) juniperAccess(ctx context.Context, device Device, c Circuit) Device {
	net := emptyProfile(device, "")
	iface, ok := s.showInterfaces(ctx, device, net)
	if !ok || !iface.IsObject() {
		return net
	}

	description := iface.Get("description").String()
	described := strings.Contains(description, c.CID)
	for _, n := range append(AWDevices(description, c.Devices), ZWDevices(description, c.Devices)...) {
		if strings.Contains(description, n.TID()) {
			described = true
			break
		}
	}
	net[KeyDescription] = described

	if !strings.Contains(iface.Get("name").String(), strings.ToLower(device.Str(KeyPortID))) {
		return net
	}
	net[KeyPortID] = device.Str(KeyPortID)
	id := device.Str(KeyVLAN)
	if members := iface.Get("unit.family.ethernet-switching.vlan.members"); members.Exists() {
		if vlanListed(members, id) {
			net[KeyVLAN] = id
		}
		return net
	}
	for _, unit := range iface.Get("unit").Array() {
		if unit.Get("name").String() == id {
			net[KeyVLAN] = id
			break
		}
	}
	return net
}

// juniperCPE reads a Juniper CPE. The circuit is either a unit of the port, described with the
// circuit id, or an ethernet-switching vlan member.
func (s *RASource) juniperCPE(ctx context.Context, device Device, c Circuit) Device {
	net := emptyProfile(device, "")
	iface, ok := s.showInterfaces(ctx, device, net)
	if !ok || !iface.IsObject() {
		return net
	}
	port := strings.ToLower(device.Str(KeyPortID))
	onPort := false
	iface.ForEach(func(_, value gjson.Result) bool {
		onPort = value.Type == gjson.String && strings.Contains(value.String(), port)
		return !onPort
	})
	if !onPort {
		return net
	}
	net[KeyPortID] = device.Str(KeyPortID)
	id := device.Str(KeyVLAN)

	units := iface.Get("unit")
	if units.IsArray() {
		for _, unit := range units.Array() {
			if unit.Get("vlan-id").String() == id {
				net[KeyVLAN] = id
				net[KeyDescription] = strings.Contains(unit.Get("description").String(), c.CID)
				break
			}
		}
		return net
	}

	members := units.Get("family.ethernet-switching.vlan.members")
	if !members.Exists() {
		klog.V(2).Infof("No vlan information on %s %s.", device.TID(), port)
		return net
	}
	if !members.IsArray() {
		members = gjson.Parse(fmt.Sprintf("[%s]", members.Raw))
	}
	for _, m := range members.Array() {
		name := m
		if m.IsObject() {
			net[KeyDescription] = strings.Contains(m.Get("description").String(), c.CID)
			name = m.Get("name")
		} else {
			net[KeyDescription] = false
		}
		if vlanListed(name, id) {
			net[KeyVLAN] = id
			return net
		}
	}
	return net
}

// juniperEAccess reads a router or CPE of an E-Access circuit. Paired devices carry the circuit
// as an l2 circuit towards the e-access router, unpaired ones as a plain unit.
func (s *RASource) juniperEAccess(ctx context.Context, device Device, c Circuit) Device {
	tid, port := device.TID(), device.Str(KeyPortID)
	net := emptyProfile(device, device.Str(KeyVLAN))
	if port == "" || len(tid) != 11 {
		return net
	}
	suffix := tidSuffix(tid)
	_, paired := device[KeyEVC]
	_, unpaired := device[KeyIPv4]

	switch {
	case paired && (suffix == "CW" || suffix == "ZW"):
		param := fmt.Sprintf("%s:%s.%s", device.Str(KeyEAccessIP), strings.ToLower(port), device.Str(KeyVLAN))
		result, err := s.exec(ctx, tid, "get-l2-circuits-full.json", map[string]interface{}{"parameter": param})
		if err != nil {
			net[KeyError] = "Device communication: get-l2-circuits-full"
			return net
		}
		props := result.Get("properties")
		if !props.IsObject() {
			return net
		}
		net[KeyDescription] = false
		net[KeyEAccessIP] = device.Str(KeyEAccessIP)
		net[KeyModel] = device.Str(KeyModel)
		if strings.Contains(props.Get("name").String(), strings.ToLower(port)) {
			net[KeyPortID] = port
			net[KeyVendor] = "JUNIPER"
		}
		if strings.Contains(props.Get("description").String(), c.CID) {
			net[KeyDescription] = true
		}
		if evc := props.Get("virtual-circuit-id").String(); evc != "" && strings.Contains(evc, device.Str(KeyEVC)) {
			net[KeyEVC] = evc
		}
		return net
	case unpaired && suffix == "CW", !unpaired && suffix == "ZW":
		return s.juniper(ctx, device, Circuit{CID: c.CID, Devices: c.Devices})
	}
	return net
}

// juniperELAN reads the router of an EP-LAN circuit. The unit must be VPLS encapsulated and
// the VPLS routing instance must carry the circuit's EVC in its route target.
func (s *RASource) juniperELAN(ctx context.Context, device Device, c Circuit) Device {
	tid, port := device.TID(), device.Str(KeyPortID)
	id := device.Str(KeyVLAN)
	net := emptyProfile(device, id)
	net[KeyDescription] = false
	if port == "" || len(tid) != 11 {
		return net
	}
	switch tidSuffix(tid) {
	case "CW":
	case "AW", "QW", "ZW":
		return s.juniper(ctx, device, Circuit{CID: c.CID, Devices: c.Devices})
	default:
		return net
	}

	elements, err := s.design.PathElements(ctx, c.CID, "")
	if err != nil {
		net[KeyError] = fmt.Sprintf("Unable to read the path elements of %s", c.CID)
		return net
	}
	var vpls Row
	for _, e := range elements {
		if strings.Contains(e.Str("ELEMENT_TYPE"), "NETWORK") && strings.Contains(e.Str("ELEMENT_CATEGORY"), "VPLS SVC") {
			vpls = e
			break
		}
	}
	if vpls == nil {
		net[KeyEVC] = ""
		net[KeyError] = "Can't find correct path element to process"
		return net
	}
	if vpls.Str("ELEMENT_REFERENCE") == "" {
		net[KeyError] = "Granite network instance ID is unavailable"
		return net
	}

	result, err := s.exec(ctx, tid, "show_interfaces", map[string]interface{}{"parameter": strings.ToLower(port)})
	if err != nil {
		net[KeyError] = "Device communication: show_interfaces"
		return net
	}
	for _, unit := range result.Get("data.configuration.interfaces.interface.unit").Array() {
		if unit.Get("vlan-id").String() != id {
			continue
		}
		net[KeyVendor] = "JUNIPER"
		net[KeyPortID] = port
		net[KeyModel] = device.Str(KeyModel)
		net[KeyEncapsulation] = unit.Get("encapsulation").String()
		net[KeyDescription] = strings.Contains(unit.Get("description").String(), c.CID)
		if v6 := unit.Get("family.inet6.address.name"); v6.Exists() {
			net[KeyIPv6] = strings.ToUpper(v6.String())
		}
		if v4 := unit.Get("family.inet.address.name"); v4.Exists() {
			net[KeyIPv4] = v4.String()
		}
		break
	}
	if net.Str(KeyEncapsulation) != "vlan-vpls" {
		net[KeyError] = fmt.Sprintf("Unexpected encapsulation setting %s for %s", net.Str(KeyEncapsulation), tid)
		return net
	}

	instances, err := s.exec(ctx, tid, "show_routing_instances", nil)
	if err != nil {
		net[KeyError] = "Device communication: show_routing_instances"
		return net
	}
	net[KeyEVC] = ""
	unit := strings.ToLower(net.Str(KeyPortID) + "." + id)
	for _, instance := range instances.Array() {
		for _, iface := range instance.Get("properties.interfaces").Array() {
			if strings.ToLower(iface.Get("config.interface").String()) != unit {
				continue
			}
			target := strings.Split(instance.Get("properties.config.routeTarget").String(), ":")
			net[KeyEVC] = target[len(target)-1]
			return net
		}
	}
	net[KeyError] = fmt.Sprintf("EVC ID %s was not found in the config route target of %s:%s.%s", device.Str(KeyEVC), tid, port, id)
	return net
}
