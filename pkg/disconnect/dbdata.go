// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// DevicePort is a device of the circuit and the port the circuit uses on it.
type DevicePort struct {
	TID    string
	PortID string
}

// CircuitData is the circuit level design data read from the path elements.
type CircuitData struct {
	Devices            []DevicePort // ordered from the data center to the customer
	VLAN               string
	IPv4               string
	IPv4ServiceType    string
	IPv6               string
	L1                 []Row
	L2                 []Row
	ServiceType        string
	IPv4AssignedSubnet string
	IPv4GlueSubnet     string
}

// DesignReader reads circuit design data from Granite.
type DesignReader interface {
	PathElements(ctx context.Context, cid, level string) ([]Row, error)
	CircuitSiteInfo(ctx context.Context, cid string) ([]Row, error)
	CircuitUDAs(ctx context.Context, instID string) ([]Row, error)
	PathsFromSite(ctx context.Context, site string) ([]Row, error)
	UsedEquipmentPorts(ctx context.Context, tid string) ([]Row, error)
}

// DBDataForEAccess returns the EVC id of an E-Access circuit and, for the live routers closest
// to each side of the MPLS cloud, the ip address of the router on the other side.
func DBDataForEAccess(l1, l2 []Row) (string, map[string]string, error) {
	evcID := ""
	if len(l1) > 0 {
		evcID = l1[0].Str("EVC_ID")
	}
	if evcID == "" {
		return "", nil, abort("Unable to retrieve EVC ID")
	}
	klog.V(3).Infof("evc_id - %s", evcID)

	sequence := 0
	for _, elem := range l1 {
		if strings.Contains(elem.Str("ELEMENT_CATEGORY"), "MPLS") {
			sequence = number(elem, "SEQUENCE")
			break
		}
	}
	if sequence == 0 {
		return "", nil, abort("Unable to locate MPLS object")
	}

	var aRouter, aIP, zRouter, zIP string
	for _, elem := range l2 {
		if strings.ToUpper(elem.Str("PATH_STATUS")) != "LIVE" || elem.Str("ELEMENT_CATEGORY") != "ROUTER" {
			continue
		}
		parent := number(elem, "PARENT_SEQUENCE")
		if parent == 0 {
			parent = number(elem, "SEQUENCE")
		}
		ip := strings.Split(elem.Str("IPV4_ADDRESS"), "/")[0]
		if aRouter == "" && parent < sequence {
			aRouter, aIP = elem.Str("TID"), ip
		} else if zRouter == "" && parent > sequence {
			zRouter, zIP = elem.Str("TID"), ip
		}
		if aRouter != "" && zRouter != "" {
			break
		}
	}

	missing := []string{}
	for _, field := range []struct{ name, value string }{
		{"A side router TID", aRouter},
		{"A side router IP", aIP},
		{"Z side router TID", zRouter},
		{"Z side router IP", zIP},
	} {
		if field.value == "" {
			missing = append(missing, "'"+field.name+"'")
		}
	}
	if len(missing) > 0 {
		return "", nil, abort("Missing data for E-Access order - [%s]", strings.Join(missing, ", "))
	}

	ips := map[string]string{aRouter: zIP, zRouter: aIP}
	klog.V(3).Infof("router_connection_ips - %v", ips)
	return evcID, ips, nil
}

// number reads a numeric Granite column, 0 when missing or not a number.
func number(r Row, key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str(key)))
		if err != nil {
			return 0
		}
		return n
	}
}

// DBDataForCID splits the path elements of a circuit into levels and reads its VLAN and addressing.
func DBDataForCID(cid string, devices map[string]string, elements []Row) (CircuitData, error) {
	data := CircuitData{}
	switch {
	case cid == "" && len(devices) == 0:
		return data, abort("Unexpected values for input parameters CID and devices")
	case cid == "":
		return data, abort("Unexpected value for input parameter CID")
	case len(devices) == 0:
		return data, abort("Unexpected value for input parameter devices")
	}

	seen := map[string]bool{}
	for _, elem := range elements {
		tid := elem.Str("TID")
		if elem.Str("LVL") != "2" || tid == "" || seen[tid] {
			continue
		}
		if port, ok := devices[tid]; ok {
			seen[tid] = true
			data.Devices = append(data.Devices, DevicePort{TID: tid, PortID: port})
		}
	}
	klog.V(3).Infof("Ordered devices for %s: %v", cid, data.Devices)

	for _, elem := range elements {
		switch elem.Str("LVL") {
		case "1":
			data.L1 = append(data.L1, elem)
		case "2":
			data.L2 = append(data.L2, elem)
		}
	}
	if len(data.L1) == 0 {
		return data, abort("Unable to acquire L1 data for %s", cid)
	}
	if len(data.L2) == 0 {
		return data, abort("Unable to acquire L2 data for %s", cid)
	}

	for _, elem := range data.L1 {
		if elem.Str("CHAN_NAME") != "" && elem.Str("ELEMENT_CATEGORY") == "ETHERNET TRANSPORT" {
			data.VLAN = strings.ReplaceAll(elem.Str("CHAN_NAME"), "VLAN", "")
			break
		}
	}
	if data.VLAN == "" {
		return data, abort("Unable to acquire VLAN ID for %s", cid)
	}

	// Circuit addressing lives on the second L1 element.
	circuit := Row{}
	if len(data.L1) > 1 {
		circuit = data.L1[1]
	}
	data.IPv4 = circuit.Str("IPV4_ASSIGNED_GATEWAY")
	data.IPv4AssignedSubnet = circuit.Str("IPV4_ASSIGNED_SUBNETS")
	data.IPv4GlueSubnet = circuit.Str("IPV4_GLUE_SUBNET")
	data.IPv4ServiceType = circuit.Str("IPV4_SERVICE_TYPE")
	data.IPv6 = circuit.Str("IPV6_GLUE_SUBNET")
	data.ServiceType = circuit.Str("SERVICE_TYPE")
	if data.IPv4GlueSubnet != "" {
		ip, err := glueGateway(data.IPv4GlueSubnet)
		if err != nil {
			return data, abort("Invalid IPV4_GLUE_SUBNET for %s: %s", cid, data.IPv4GlueSubnet)
		}
		data.IPv4 = ip + "/30"
	}
	return data, nil
}

// glueGateway returns the first host of a glue subnet: "10.1.1.4/30" gives "10.1.1.5".
func glueGateway(subnet string) (string, error) {
	octets := strings.Split(strings.Split(subnet, "/")[0], ".")
	last, err := strconv.Atoi(octets[len(octets)-1])
	if err != nil {
		return "", err
	}
	octets[len(octets)-1] = strconv.Itoa(last + 1)
	return strings.Join(octets, "."), nil
}

// optional maps an empty design value to nil, the way Granite reports missing columns.
func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CircuitDeviceDataFromDB builds the designed profile of each device of the circuit.
// Devices that are not in the L2 path elements keep a placeholder profile without a vendor.
func CircuitDeviceDataFromDB(ctx context.Context, store DesignReader, cid string, devices map[string]string,
	elements []Row) ([]Device, CircuitData, error) {
	data, err := DBDataForCID(cid, devices, elements)
	if err != nil {
		return nil, data, err
	}

	eAccess := strings.Contains(data.ServiceType, "E-ACCESS")
	var evcID string
	var routerIPs map[string]string
	if eAccess {
		if evcID, routerIPs, err = DBDataForEAccess(data.L1, data.L2); err != nil {
			return nil, data, err
		}
	}

	result := make([]Device, 0, len(data.Devices))
	for _, dp := range data.Devices {
		device := Device{
			KeyTID:         dp.TID,
			KeyPortID:      dp.PortID,
			KeyVendor:      "",
			KeyVLAN:        data.VLAN,
			KeyDescription: true,
		}
		for _, elem := range data.L2 {
			if elem.Str("TID") != dp.TID {
				continue
			}
			device[KeyVendor] = elem.Str("VENDOR")
			device[KeyModel] = elem.Str("MODEL")
			if err := checkModel(elem.Str("MODEL")); err != nil {
				return nil, data, err
			}
			suffix := tidSuffix(dp.TID)
			switch {
			case suffix == "CW" && !eAccess:
				if strings.Contains(data.ServiceType, "EPLAN") {
					evc, err := circuitEVC(ctx, store, cid)
					if err != nil {
						return nil, data, err
					}
					device[KeyEVC] = evc
					device[KeyEncapsulation] = "vlan-vpls"
				} else {
					device[KeyIPv4] = optional(data.IPv4)
					device[KeyIPv6] = optional(data.IPv6)
					if data.IPv4ServiceType == "ROUTED" {
						device[KeyAssignedSubnets] = optional(data.IPv4AssignedSubnet)
						device[KeyGlueSubnet] = optional(data.IPv4GlueSubnet)
					}
				}
			case (suffix == "CW" || suffix == "ZW") && eAccess:
				if elem.Str("ELEMENT_CATEGORY") == "ROUTER" {
					device[KeyEVC] = evcID
					device[KeyEAccessIP] = routerIPs[dp.TID]
				}
			}
			break
		}
		result = append(result, device)
	}
	klog.V(3).Infof("Device list from db for %s: %v", cid, result)
	return result, data, nil
}

func circuitEVC(ctx context.Context, store DesignReader, cid string) (string, error) {
	l1, err := store.PathElements(ctx, cid, "1")
	if err != nil {
		return "", fmt.Errorf("reading L1 path elements of %s: %w", cid, err)
	}
	if len(l1) == 0 {
		return "", abort("Unable to acquire L1 data for %s", cid)
	}
	return l1[0].Str("EVC_ID"), nil
}
