// Copyright Contributors to the Open Cluster Management project

package topology

import (
	"fmt"

	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"k8s.io/klog/v2"
)

// AnySpoke searches all spokes in NodeProperty.
const AnySpoke = -1

// NodeProperty returns the named attribute of the node. spoke restricts the search to one spoke
// index, AnySpoke searches them all with the last match winning.
func NodeProperty(cd CircuitDetails, nodeUUID, prop string, spoke int) (string, bool) {
	value, found := "", false
	for i, topo := range cd.Topology() {
		if spoke != AnySpoke && spoke != i {
			continue
		}
		for _, n := range nodes(topo) {
			node := asMap(n)
			if str(node["uuid"]) != nodeUUID {
				continue
			}
			for _, item := range asList(node["name"]) {
				pair := asMap(item)
				if str(pair["name"]) == prop {
					value, found = str(pair["value"]), true
					break
				}
			}
		}
	}
	if !found {
		klog.Warningf("unable to find property %s for node %s", prop, nodeUUID)
	}
	klog.V(4).Infof("Requested property: %s, value: %s", prop, value)
	return value, found
}

// requiredProperty is NodeProperty across all spokes, with a missing value reported under subcategory.
func requiredProperty(cd CircuitDetails, nodeUUID, prop, subcategory string) (string, error) {
	value, ok := NodeProperty(cd, nodeUUID, prop, AnySpoke)
	if !ok {
		return "", categorized.Granite(categorized.MissingData, subcategory, "device: "+nodeUUID)
	}
	return value, nil
}

// NodeRole returns the device role, e.g. PE, AGG, MTU or CPE.
func NodeRole(cd CircuitDetails, nodeUUID string) (string, error) {
	return requiredProperty(cd, nodeUUID, "Role", "Device Role")
}

// NodeFQDN returns the fully qualified name of the device.
// A node without an FQDN attribute is a Granite missing data error.
func NodeFQDN(cd CircuitDetails, nodeUUID string) (string, error) {
	return requiredProperty(cd, nodeUUID, "FQDN", "FQDN")
}

// NodeVendor returns the device vendor as recorded in the design, e.g. JUNIPER or RAD.
func NodeVendor(cd CircuitDetails, nodeUUID string) (string, error) {
	return requiredProperty(cd, nodeUUID, "Vendor", "Vendor")
}

// NodeHostname returns the device tid from the "Host Name" attribute.
func NodeHostname(cd CircuitDetails, nodeUUID string) (string, error) {
	return requiredProperty(cd, nodeUUID, "Host Name", "Host Name")
}

// NodeManagementIP returns the address the device is managed on.
func NodeManagementIP(cd CircuitDetails, nodeUUID string) (string, error) {
	return requiredProperty(cd, nodeUUID, "Management IP", "IP Address")
}

// NodeModel returns the device model. A missing model is not an error.
func NodeModel(cd CircuitDetails, nodeUUID string) (string, bool) {
	return NodeProperty(cd, nodeUUID, "Model", AnySpoke)
}

// DevicesByPropertyValue returns the attributes of every node whose prop equals value,
// or differs from it when negate is set.
func DevicesByPropertyValue(cd CircuitDetails, prop, value string, negate bool) []map[string]string {
	matching := []map[string]string{}
	for _, topo := range cd.Topology() {
		for _, n := range nodes(topo) {
			attrs := nameValues(asMap(n)["name"])
			actual, ok := attrs[prop]
			equal := ok && actual == value
			if equal != negate {
				matching = append(matching, attrs)
			}
		}
	}
	return matching
}

// PENodes returns the FQDNs of the PE devices.
func PENodes(cd CircuitDetails) ([]string, error) {
	spokes, err := BuildDeviceDict(cd)
	if err != nil {
		return nil, err
	}
	fqdns := []string{}
	for _, spoke := range spokes {
		for _, device := range spoke {
			if device.Get("Role") == "PE" {
				fqdns = append(fqdns, device.Get("FQDN"))
			}
		}
	}
	return dedupe(fqdns), nil
}

func edgeRole(cd CircuitDetails, portUUID string) (string, bool) {
	for _, topo := range cd.Topology() {
		for _, n := range nodes(topo) {
			for _, e := range asList(asMap(n)["ownedNodeEdgePoint"]) {
				edge := asMap(e)
				if str(edge["uuid"]) == portUUID {
					role, ok := nameValues(edge["name"])["Role"]
					return role, ok
				}
			}
		}
	}
	return "", false
}

// PortRole returns the role of a port, e.g. UNI or INNI. A LAG takes the common role of its members.
func PortRole(cd CircuitDetails, portUUID string) (string, error) {
	node, lag, err := ParseNodePort(portUUID)
	if err != nil {
		return "", err
	}
	if role, ok := edgeRole(cd, portUUID); ok {
		return role, nil
	}

	spokes, err := BuildDeviceDict(cd)
	if err != nil {
		return "", err
	}
	members := []string{}
	for _, spoke := range spokes {
		if device, ok := spoke[node]; ok {
			if m, ok := device.Lags[lag]; ok {
				members = m
			}
		}
	}

	roles := []string{}
	for _, member := range members {
		if role, ok := edgeRole(cd, node+"-"+member); ok {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", categorized.Granite(categorized.MissingData, "Port Role", "device: "+node)
	}
	for _, role := range roles[1:] {
		if role != roles[0] {
			return "", categorized.Granite(categorized.IncorrectData, "LAG Member Port Role Mismatch",
				fmt.Sprintf("device: %s lagged port: %s port roles: %v", node, portUUID, roles))
		}
	}
	return roles[0], nil
}

// SpokeForHostPort returns a circuit details document holding only the spoke that contains the node,
// and the port when portName is set. The node must be in exactly one spoke.
func SpokeForHostPort(cd CircuitDetails, nodeUUID, portName string) (CircuitDetails, error) {
	found := []interface{}{}
	for _, topo := range cd.Topology() {
		for _, n := range nodes(topo) {
			node := asMap(n)
			if str(node["uuid"]) != nodeUUID {
				continue
			}
			if portName == "" {
				found = append(found, topo)
				continue
			}
			for _, e := range asList(node["ownedNodeEdgePoint"]) {
				for _, item := range asList(asMap(e)["name"]) {
					if str(asMap(item)["value"]) == portName {
						found = append(found, topo)
					}
				}
			}
		}
	}

	switch {
	case len(found) > 1:
		return nil, categorized.Granite(categorized.IncorrectData, "Multiple Spokes Single Device",
			fmt.Sprintf("device: %s, port: %s spokes: %d", nodeUUID, portName, len(found)))
	case len(found) == 0:
		return nil, categorized.Granite(categorized.MissingData, categorized.TopologiesData,
			fmt.Sprintf("device: %s port: %s", nodeUUID, portName))
	}
	return CircuitDetails{"topology": found}, nil
}
