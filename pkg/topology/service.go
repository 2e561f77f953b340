// Copyright Contributors to the Open Cluster Management project

package topology

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/stolostron/circuit-reconciler/pkg/categorized"
)

// COSLookup maps device role and class of service to the device's cos name.
var COSLookup = map[string]map[string]string{
	"PE": {
		"NONE":   "SERVICEPORT_UNCLASSIFIED_COS",
		"BRONZE": "SERVICEPORT_BRONZE_COS",
		"SILVER": "SERVICEPORT_SILVER_COS",
		"GOLD":   "SERVICEPORT_GOLD_COS",
	},
	"CPE": {"NONE": "PBIT-0", "BRONZE": "PBIT-1", "SILVER": "PBIT-3", "GOLD": "PBIT-5"},
}

// VendorTypes are the per-vendor resource types and defaults.
type VendorTypes struct {
	DomainType          string
	SessionProfileType  string
	DeviceType          string
	InterfaceType       string
	BWPolicerType       string
	ResourceTypeToCheck string
	PortIDValue         string
	PEBWDir             string
	MTU                 int
}

// CommonTypeLookup is keyed by upper case vendor name.
var CommonTypeLookup = map[string]VendorTypes{
	"JUNIPER": {
		DomainType:         "urn:cyaninc:bp:domain:juniper",
		SessionProfileType: "junipereq.resourceTypes.SessionProfile",
		DeviceType:         "junipereq.resourceTypes.NetworkFunction",
		InterfaceType:      "tosca.resourceTypes.TPE",
		BWPolicerType:      "tosca.resourceTypes.PacketBandwidthProfile",
		PortIDValue:        "PORT_ID_LABEL",
		PEBWDir:            "BOTH",
	},
	"RAD": {
		DomainType:          "urn:ciena:bp:domain:rad",
		SessionProfileType:  "radra.resourceTypes.SessionProfile",
		DeviceType:          "radra.resourceTypes.NetworkFunction",
		InterfaceType:       "tosca.resourceTypes.TPE",
		BWPolicerType:       "tosca.resourceTypes.PacketBandwidthProfile",
		ResourceTypeToCheck: "tosca.resourceTypes.FRE",
		PortIDValue:         "PORT_RESOURCE_ID",
		PEBWDir:             "egress",
		MTU:                 12000,
	},
	"ADVA": {
		DomainType:          "urn:ciena:bp:domain:bpraadva",
		SessionProfileType:  "bpraadva.resourceTypes.SessionProfile",
		DeviceType:          "bpraadva.resourceTypes.NetworkFunction",
		InterfaceType:       "tosca.resourceTypes.TPE",
		ResourceTypeToCheck: "tosca.resourceTypes.FRE",
		PortIDValue:         "PORT_RESOURCE_ID",
		PEBWDir:             "egress",
		MTU:                 9600,
	},
	"ADVA0825": {
		DomainType:          "urn:ciena:bp:domain:bpraadva0825",
		SessionProfileType:  "bpraadva0825.resourceTypes.SessionProfile",
		DeviceType:          "bpraadva0825.resourceTypes.NetworkFunction",
		InterfaceType:       "tosca.resourceTypes.TPE",
		ResourceTypeToCheck: "tosca.resourceTypes.FRE",
		PortIDValue:         "PORT_ID_LABEL",
		PEBWDir:             "egress",
		MTU:                 9250,
	},
	"CISCO": {
		DomainType:          "urn:ciena:bp:domain:bpracisco",
		SessionProfileType:  "bpracisco.resourceTypes.SessionProfile",
		DeviceType:          "bpracisco.resourceTypes.NetworkFunction",
		InterfaceType:       "tosca.resourceTypes.TPE",
		ResourceTypeToCheck: "tosca.resourceTypes.TPE",
		PortIDValue:         "PORT_ID_LABEL",
		PEBWDir:             "egress",
		MTU:                 9216,
	},
	"CIENA": {
		InterfaceType:       "tosca.resourceTypes.TPE",
		ResourceTypeToCheck: "tosca.resourceTypes.TPE",
		PortIDValue:         "PORT_ID_LABEL",
		PEBWDir:             "egress",
		MTU:                 9600,
	},
	"HARMONIC": {
		DomainType:         "urn:ciena:bp:domain:bprarphy",
		SessionProfileType: "bprarphy.resourceTypes.SessionProfile",
		DeviceType:         "bprarphy.resourceTypes.NetworkFunction",
		InterfaceType:      "tosca.resourceTypes.TPE",
		PortIDValue:        "PORT_ID_LABEL",
		PEBWDir:            "egress",
		MTU:                9216,
	},
	"NOKIA": {
		DomainType:          "urn:ciena:bp:domain:bpranokia",
		SessionProfileType:  "bpranokia.resourceTypes.SessionProfile",
		DeviceType:          "bpranokia.resourceTypes.NetworkFunction",
		InterfaceType:       "tosca.resourceTypes.configModeler",
		ResourceTypeToCheck: "tosca.resourceTypes.configModeler",
		PortIDValue:         "PORT_ID_LABEL",
		PEBWDir:             "egress",
		MTU:                 9216,
	},
}

// ServiceData returns service[0].data.
func ServiceData(cd CircuitDetails) (map[string]interface{}, error) {
	service := cd.Service()
	if len(service) == 0 {
		return nil, categorized.Granite(categorized.MissingData, categorized.TopologiesData, "service")
	}
	data, ok := asMap(service[0])["data"].(map[string]interface{})
	if !ok {
		return nil, categorized.Granite(categorized.MissingData, categorized.TopologiesData, "service data")
	}
	return data, nil
}

// EVC returns evc[0] of the service data.
func EVC(serviceData map[string]interface{}) map[string]interface{} {
	evcs := asList(serviceData["evc"])
	if len(evcs) == 0 {
		return map[string]interface{}{}
	}
	return asMap(evcs[0])
}

// EndPoints returns the endpoints of the first evc.
func EndPoints(serviceData map[string]interface{}) []map[string]interface{} {
	endpoints := []map[string]interface{}{}
	for _, ep := range asList(EVC(serviceData)["endPoints"]) {
		endpoints = append(endpoints, asMap(ep))
	}
	return endpoints
}

// ServiceType returns EP-UNI for port based services and EVP-UNI otherwise.
func ServiceType(cd CircuitDetails) (string, error) {
	data, err := ServiceData(cd)
	if err != nil {
		return "", err
	}
	switch str(EVC(data)["serviceType"]) {
	case "EPL", "EP-LAN", "EP-TREE", "IP":
		return "EP-UNI", nil
	}
	return "EVP-UNI", nil
}

// ServiceUserLabel returns the user label of the first endpoint.
func ServiceUserLabel(cd CircuitDetails) (string, error) {
	data, err := ServiceData(cd)
	if err != nil {
		return "", err
	}
	endpoints := EndPoints(data)
	if len(endpoints) == 0 {
		return "", categorized.Granite(categorized.MissingData, categorized.TopologiesData, "endPoints")
	}
	return str(endpoints[0]["userLabel"]), nil
}

// DeterminePbit returns the priority bit (or cos name) for the service's class of service on a device role.
func DeterminePbit(serviceData map[string]interface{}, role string) (string, error) {
	cosNames := asList(EVC(serviceData)["cosNames"])
	if len(cosNames) == 0 {
		return "", categorized.Granite(categorized.MissingData, "Class of Service", "evc cosNames")
	}
	cos := str(asMap(cosNames[0])["name"])
	value, ok := COSLookup[role][cos]
	if !ok {
		return "", categorized.Granite(categorized.IncorrectData, "Class of Service", "role: "+role+" cos: "+cos)
	}
	if _, pbit, found := strings.Cut(value, "-"); found {
		return pbit, nil
	}
	return value, nil
}

var digits = regexp.MustCompile(`[0-9]+`)

// KBPS converts a bandwidth string such as "100M" or "1G" to kbps.
func KBPS(bw string) (int, error) {
	match := digits.FindString(bw)
	if match == "" {
		return 0, errors.New("no bandwidth value in " + bw)
	}
	rate, err := strconv.Atoi(match)
	if err != nil {
		return 0, err
	}
	lower := strings.ToLower(bw)
	switch {
	case strings.Contains(lower, "g"):
		return rate * 1000000, nil
	case strings.Contains(lower, "m"):
		return rate * 1000, nil
	}
	return rate, nil
}

// BandwidthIntAndUnits splits a bandwidth string into rate and unit ("g", "m" or "k"), defaulting to 1 and "m".
func BandwidthIntAndUnits(bw string) (int, string) {
	rate, unit := 1, "m"
	lower := strings.ToLower(bw)
	if match := digits.FindString(lower); match != "" {
		if v, err := strconv.Atoi(match); err == nil {
			rate = v
		}
	}
	if strings.Contains(lower, "g") {
		unit = "g"
	} else if strings.Contains(lower, "k") {
		unit = "k"
	}
	return rate, unit
}
