// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"fmt"
	"strings"

	"github.com/stolostron/circuit-reconciler/pkg/granite"
)

// Row is one Granite path element.
type Row = granite.Row

// Device is the profile of one device of a circuit, either as designed or as found on the network.
// Common keys are tid, port_id, vendor, model, vlan_id and description.
type Device map[string]interface{}

// Device profile keys.
const (
	KeyTID         = "tid"
	KeyPortID      = "port_id"
	KeyVendor      = "vendor"
	KeyModel       = "model"
	KeyVLAN        = "vlan_id"
	KeyDescription = "description"
	KeyEVC         = "evc_id"
	KeyEAccessIP   = "e_access_ip"
	KeyIPv4        = "ipv4"
	KeyIPv6        = "ipv6"
	KeyError       = "Error"

	KeyAssignedSubnets = "IPV4_ASSIGNED_SUBNETS"
	KeyGlueSubnet      = "IPV4_GLUE_SUBNET"
	KeyEncapsulation   = "encapsulation"
)

// Str returns the value of key as a string, "" when missing.
func (d Device) Str(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// TID is the device's target identifier.
func (d Device) TID() string { return d.Str(KeyTID) }

func (d Device) copy() Device {
	out := make(Device, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// tidSuffix returns the role suffix of a tid (CW, QW, AW, ZW, ...).
func tidSuffix(tid string) string {
	if len(tid) < 2 {
		return tid
	}
	return tid[len(tid)-2:]
}

// Vendors the reconciler can read from the network.
var supportedVendors = map[string]bool{"JUNIPER": true, "CISCO": true, "ADVA": true, "RAD": true}

var supportedModels = map[string]bool{
	"ACX5448":                   true,
	"ASR 9001":                  true,
	"ASR 9006":                  true,
	"ASR 9010":                  true,
	"ASR-920-4SZ-A":             true,
	"MX240":                     true,
	"MX480":                     true,
	"MX960":                     true,
	"QFX5100-48S":               true,
	"QFX5100-96S":               true,
	"EX4200-24F":                true,
	"EX4200-24T":                true,
	"EX4200-48T":                true,
	"FSP 150CC-GE114/114S":      true,
	"FSP 150-GE114PRO-C":        true,
	"FSP 150-XG116PRO":          true,
	"FSP 150-XG116PROH":         true,
	"FSP 150-XG120PRO":          true,
	"ETX203AX/2SFP/2UTP2SFP":    true,
	"ETX-203AX/GE30/2SFP/4UTP":  true,
	"ETX-220A":                  true,
	"ETX-2I-10G-B/8.5/8SFPP":    true,
	"ETX-2I-10G-B/19/8SFPP":     true,
	"ETX-2I-10G/4SFPP/4SFP4UTP": true,
	"ETX-2I-10G/4SFPP/24SFP":    true,
	"ME-3400-24TS":              true,
	"ME-3400E-24TS-M":           true,
	"ME-3400-12CS":              true,
	"ME-3400-EG-12CS-M":         true,
	"ME-3400-2CS":               true,
	"ME-3400EG-2CS-A":           true,
}

func checkModel(model string) error {
	if !supportedModels[model] {
		return abort("Unsupported model in the circuit path: %s", model)
	}
	return nil
}

// AWDevices returns the AW devices whose first seven tid characters appear in tid.
func AWDevices(tid string, devices []Device) []Device {
	return devicesWithSuffix("AW", tid, devices)
}

// ZWDevices returns the ZW devices whose first seven tid characters appear in tid.
func ZWDevices(tid string, devices []Device) []Device {
	return devicesWithSuffix("ZW", tid, devices)
}

func devicesWithSuffix(suffix, tid string, devices []Device) []Device {
	found := []Device{}
	for _, d := range devices {
		dt := d.TID()
		if len(dt) < 7 || tidSuffix(dt) != suffix {
			continue
		}
		if strings.Contains(tid, dt[:7]) {
			found = append(found, d)
		}
	}
	return found
}

// ZSideCPE returns the design profile of the CPE tid, nil when it is not part of the circuit.
func ZSideCPE(devices []Device, cpe string) Device {
	for _, d := range devices {
		if d.TID() == cpe {
			return d
		}
	}
	return nil
}

// FilterDevices drops generic and MUX devices, they are not reachable on the network.
func FilterDevices(devices []Device) []Device {
	result := []Device{}
	for _, d := range devices {
		if d.Str(KeyVendor) != "GENERIC" && !strings.Contains(d.Str(KeyModel), "MUX") {
			result = append(result, d)
		}
	}
	return result
}

// CheckVendor fails on the first device from a vendor the reconciler cannot read.
func CheckVendor(devices []Device) error {
	for _, d := range devices {
		if !supportedVendors[d.Str(KeyVendor)] {
			return abort("Unsupported Vendor: %s", d.Str(KeyVendor))
		}
	}
	return nil
}
