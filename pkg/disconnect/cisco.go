// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// ciscoProfile is the profile of a Cisco device before anything was read from it. Unlike other
// vendors the description is unknown until the device confirms it.
func ciscoProfile(device Device, vlan string) Device {
	return Device{
		KeyTID:         device.TID(),
		KeyVendor:      "",
		KeyModel:       "",
		KeyVLAN:        vlan,
		KeyPortID:      "",
		KeyDescription: nil,
	}
}

// ciscoRole reports whether the device has the expected role suffix, logging when it does not.
func ciscoRole(device Device, suffix string) bool {
	tid := device.TID()
	if len(tid) == 11 && tidSuffix(tid) == suffix {
		return true
	}
	klog.Errorf("Unexpected Cisco device tid %s for model %s.", tid, device.Str(KeyModel))
	return false
}

// described reports whether a device description is about the circuit, by circuit id or by one
// of its legacy ids.
func (s *RASource) described(ctx context.Context, description string, c Circuit) bool {
	return strings.Contains(description, c.CID) || s.legacyIDMatches(ctx, c.PathInstID, description)
}

// cisco reads a Cisco router, which carries the circuit on a sub-interface named after the vlan.
func (s *RASource) cisco(ctx context.Context, device Device, c Circuit) Device {
	id, port := device.Str(KeyVLAN), device.Str(KeyPortID)
	net := ciscoProfile(device, id)
	if port == "" || !ciscoRole(device, "CW") {
		return net
	}
	result, err := s.exec(ctx, device.TID(), "show_interfaces", map[string]interface{}{"parameter": strings.ToLower(port)})
	if err != nil {
		net[KeyError] = "Device communication: show_interfaces"
		return net
	}
	outer := strings.Split(id, ":")[0]
	for _, iface := range result.Array() {
		name := iface.Get("interface").String()
		if !strings.Contains(name, id) && !strings.Contains(name, outer) {
			continue
		}
		net[KeyVendor] = "CISCO"
		net[KeyPortID] = port
		net[KeyModel] = device.Str(KeyModel)
		description := iface.Get("description")
		if !description.Exists() {
			return net
		}
		net[KeyDescription] = s.described(ctx, description.String(), c)
		net[KeyIPv4] = device[KeyIPv4]
		net[KeyIPv6] = device[KeyIPv6]
		if c.IPv4ServiceType == "ROUTED" {
			net[KeyAssignedSubnets] = nil
			net[KeyGlueSubnet] = nil
		}
		return net
	}
	return net
}

// ciscoASR920 reads an ASR-920 CPE. The vlan is the id of the port's first service instance.
func (s *RASource) ciscoASR920(ctx context.Context, device Device, c Circuit) Device {
	tid, port := device.TID(), device.Str(KeyPortID)
	net := ciscoProfile(device, "")
	if port == "" || !ciscoRole(device, "ZW") {
		return net
	}
	params := map[string]interface{}{"parameter": strings.ToLower(port)}
	config, err := s.exec(ctx, tid, "show_running_config_interface", params)
	if err != nil {
		net[KeyError] = "Device communication: show_running_config_interface"
		return net
	}
	net[KeyDescription] = s.described(ctx, config.Get("description").String(), c)

	instances, err := s.exec(ctx, tid, "get_service_instances", params)
	switch {
	case err != nil:
		net[KeyError] = "Device communication: get_service_instances"
	case instances.Get("0.instance_id").String() == "":
		net[KeyError] = fmt.Sprintf("Unable to retrieve vlan ID from %s:%s", tid, port)
	default:
		net[KeyVLAN] = instances.Get("0.instance_id").String()
	}
	net[KeyVendor] = "CISCO"
	net[KeyPortID] = port
	net[KeyModel] = device.Str(KeyModel)
	return net
}

// ciscoME3400 reads an ME-3400 CPE. An access port must be in the circuit vlan and a trunk port
// must allow it.
func (s *RASource) ciscoME3400(ctx context.Context, device Device, c Circuit) Device {
	id, port := device.Str(KeyVLAN), device.Str(KeyPortID)
	net := ciscoProfile(device, id)
	if port == "" || !ciscoRole(device, "ZW") {
		return net
	}
	config, err := s.exec(ctx, device.TID(), "show_running_config_interface", map[string]interface{}{"parameter": strings.ToLower(port)})
	if err != nil {
		net[KeyError] = "Device communication: show_running_config_interface"
		return net
	}
	if !me3400Carries(config.Get("switchport"), id) {
		return net
	}
	net[KeyVendor] = "CISCO"
	net[KeyPortID] = port
	net[KeyModel] = device.Str(KeyModel)
	net[KeyDescription] = true
	return net
}

func me3400Carries(switchport gjson.Result, id string) bool {
	if switchport.Get("mode").String() == "trunk" {
		return vlanListed(switchport.Get("vlan.trunk.allowed_vlans"), id)
	}
	return vlanListed(switchport.Get("vlan.access_vlan"), id)
}

// ciscoEAccess reads the router of an E-Access circuit. Paired routers carry the circuit as an
// EVC on the vlan sub-interface, unpaired ones are read as plain routers.
func (s *RASource) ciscoEAccess(ctx context.Context, device Device, c Circuit) Device {
	tid, port, id := device.TID(), device.Str(KeyPortID), device.Str(KeyVLAN)
	net := ciscoProfile(device, "")
	if port == "" || !ciscoRole(device, "CW") {
		return net
	}
	_, paired := device[KeyEVC]
	_, unpaired := device[KeyIPv4]
	if !paired {
		if unpaired {
			return s.cisco(ctx, device, c)
		}
		return net
	}

	params := map[string]interface{}{"parameter": port + "." + id}
	evc, err := s.exec(ctx, tid, "show_cisco_router_evc", params)
	if err != nil {
		net[KeyError] = "Device communication: show_cisco_router_evc"
		return net
	}
	net[KeyEVC] = ""
	if found := evc.Get("evcid").String(); found != "" && found == device.Str(KeyEVC) {
		net[KeyEVC] = found
	}

	resp, err := s.execResponse(ctx, tid, "show_interfaces", params)
	if err != nil {
		net[KeyError] = "Device communication: show_interfaces"
		return net
	}
	interfaces := resp.Result()
	if !interfaces.IsArray() {
		return net
	}
	net[KeyDescription] = false
	net[KeyModel] = device.Str(KeyModel)
	net[KeyEAccessIP] = device.Str(KeyEAccessIP)
	requested := gjson.GetBytes(resp.Body, "parameters.interface").String()
	for _, iface := range interfaces.Array() {
		if !strings.Contains(iface.Get("interface").String(), id) {
			continue
		}
		net[KeyVLAN] = id
		if description := iface.Get("description").String(); description != "" && s.described(ctx, description, c) {
			net[KeyDescription] = true
		}
		if strings.Contains(requested, port) {
			net[KeyPortID] = port
			net[KeyVendor] = "CISCO"
		}
	}
	return net
}
