// Copyright Contributors to the Open Cluster Management project

package topology

import (
	"regexp"
	"sort"
	"strings"

	"github.com/stolostron/circuit-reconciler/pkg/categorized"
)

var nodeNameRegex = regexp.MustCompile(`^[-a-zA-Z0-9]*$`)

// Device is a topology node flattened to its name/value attributes, e.g. "Host Name", "Role", "FQDN".
type Device struct {
	Attributes map[string]string
	Ports      []string
	Lags       map[string][]string // lag name to member ports
	Links      []string            // "NODE-PORT_NODE-PORT", lag members replaced by their lag
}

// Get returns an attribute, "" when it is not set.
func (d *Device) Get(name string) string {
	return d.Attributes[name]
}

// Spoke maps node uuid to device for one topology spoke.
type Spoke map[string]*Device

// ParseNodePort splits a port uuid such as "CNI2TXR37ZW-ETHERNET-1" into node and port.
// Node names with a dash in the fourth position ("ABC-DEF1234-...") keep their dash.
func ParseNodePort(uuid string) (string, string, error) {
	var node, port string
	if len(uuid) > 3 && uuid[3] == '-' {
		parts := strings.SplitN(uuid, "-", 3)
		if len(parts) == 3 {
			node, port = parts[0]+"-"+parts[1], parts[2]
		} else {
			node = uuid
		}
	} else {
		parts := strings.SplitN(uuid, "-", 2)
		node = parts[0]
		if len(parts) == 2 {
			port = parts[1]
		}
	}

	if len(node) != 11 || !nodeNameRegex.MatchString(node) {
		return "", "", categorized.Granite(categorized.IncorrectData, "Node Name", "name: "+node)
	}
	return node, port, nil
}

// BuildDeviceDict flattens every spoke of the circuit into a map of devices keyed by node uuid.
func BuildDeviceDict(cd CircuitDetails) ([]Spoke, error) {
	topology := cd.Topology()
	spokes := make([]Spoke, 0, len(topology))

	for _, topo := range topology {
		spoke := Spoke{}
		for _, n := range nodes(topo) {
			node := asMap(n)
			device := &Device{
				Attributes: nameValues(node["name"]),
				Ports:      []string{},
				Lags:       map[string][]string{},
				Links:      []string{},
			}
			for _, e := range asList(node["ownedNodeEdgePoint"]) {
				edge := asMap(e)
				_, port, err := ParseNodePort(str(edge["uuid"]))
				if err != nil {
					return nil, err
				}
				for _, item := range asList(edge["name"]) {
					pair := asMap(item)
					if str(pair["name"]) == "LAG Member" {
						lag := str(pair["value"])
						device.Lags[lag] = append(device.Lags[lag], port)
					}
				}
				device.Ports = append(device.Ports, port)
			}
			spoke[str(node["uuid"])] = device
		}
		spokes = append(spokes, spoke)
	}

	for i, spoke := range spokes {
		for uuid, device := range spoke {
			found := []string{}
			for _, l := range links(topology[i]) {
				linkID := str(asMap(l)["uuid"])
				if strings.Contains(linkID, uuid) {
					found = append(found, linkID)
				}
			}
			device.Links = dedupe(found)
		}
	}

	for _, spoke := range spokes {
		for _, device := range spoke {
			rewritten := make([]string, 0, len(device.Links))
			for _, link := range device.Links {
				lagLink := link
				for _, np := range strings.Split(link, "_") {
					lagLink = strings.Replace(lagLink, np, replacePortWithLag(np, spoke), 1)
				}
				rewritten = append(rewritten, lagLink)
			}
			device.Links = dedupe(rewritten)
		}
	}
	return spokes, nil
}

// replacePortWithLag swaps a LAG member port for its LAG in "NODE-PORT".
func replacePortWithLag(nodePort string, spoke Spoke) string {
	node, port, err := ParseNodePort(nodePort)
	if err != nil {
		return nodePort
	}
	device, ok := spoke[node]
	if !ok {
		return nodePort
	}
	for lag, members := range device.Lags {
		for _, member := range members {
			if member == port {
				return strings.Replace(nodePort, port, lag, 1)
			}
		}
	}
	return nodePort
}

// UniqueLinks dedupes links regardless of the order of their two ends.
func UniqueLinks(links []string) []string {
	normalized := make([]string, 0, len(links))
	for _, link := range links {
		ends := strings.Split(link, "_")
		sort.Strings(ends)
		normalized = append(normalized, strings.Join(ends, "_"))
	}
	return dedupe(normalized)
}

// NeighborFromLink returns the node at the other end of link.
func NeighborFromLink(node, link string) (string, error) {
	nodes := []string{}
	for _, np := range strings.Split(link, "_") {
		if len(np) > 3 && np[3] == '-' {
			parts := strings.SplitN(np, "-", 3)
			if len(parts) >= 2 {
				nodes = append(nodes, parts[0]+"-"+parts[1])
				continue
			}
		}
		nodes = append(nodes, strings.Split(np, "-")[0])
	}

	linked := false
	for _, n := range nodes {
		if n == node {
			linked = true
		}
	}
	if linked {
		for _, n := range nodes {
			if n != node {
				return n, nil
			}
		}
	}
	return "", categorized.Granite(categorized.IncorrectData, "Neighbor Device Not Linked",
		"device: "+node+" link: "+link)
}

// DeviceList returns the sorted node uuids of all spokes.
func DeviceList(spokes []Spoke) []string {
	all := []string{}
	for _, spoke := range spokes {
		for uuid := range spoke {
			all = append(all, uuid)
		}
	}
	return dedupe(all)
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
