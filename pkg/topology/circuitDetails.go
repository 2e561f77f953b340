// Copyright Contributors to the Open Cluster Management project

// Package topology reads the circuit details document produced by the circuit details collector:
// a service section (evc, endpoints, cos) and a list of topology spokes with nodes, ports and links.
package topology

import (
	"fmt"
)

// CircuitDetails is the decoded circuit details resource, the details server response,
// or a document holding only a "topology" list.
type CircuitDetails map[string]interface{}

// New wraps a decoded document. A bare topology list is wrapped under "topology".
func New(v interface{}) CircuitDetails {
	switch t := v.(type) {
	case map[string]interface{}:
		return CircuitDetails(t)
	case CircuitDetails:
		return t
	case []interface{}:
		return CircuitDetails{"topology": t}
	}
	return CircuitDetails{}
}

func (cd CircuitDetails) section(name string) []interface{} {
	if props, ok := cd["properties"].(map[string]interface{}); ok {
		if list, ok := props[name].([]interface{}); ok {
			return list
		}
	}
	return asList(cd[name])
}

// Topology returns the spokes of the circuit.
func (cd CircuitDetails) Topology() []interface{} {
	return cd.section("topology")
}

// Service returns the service section.
func (cd CircuitDetails) Service() []interface{} {
	return cd.section("service")
}

// ID returns the resource id when cd is a market resource.
func (cd CircuitDetails) ID() string {
	return str(cd["id"])
}

// nodes returns the nodes of a spoke.
func nodes(spoke interface{}) []interface{} {
	return asList(dig(spoke, "data", "node"))
}

func links(spoke interface{}) []interface{} {
	return asList(dig(spoke, "data", "link"))
}

// nameValues flattens a [{"name": n, "value": v}] list.
func nameValues(list interface{}) map[string]string {
	pairs := map[string]string{}
	for _, item := range asList(list) {
		m := asMap(item)
		pairs[str(m["name"])] = str(m["value"])
	}
	return pairs
}

func dig(v interface{}, path ...string) interface{} {
	for _, key := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			if cd, isCD := v.(CircuitDetails); isCD {
				m = cd
			} else {
				return nil
			}
		}
		v = m[key]
	}
	return v
}

func asList(v interface{}) []interface{} {
	if list, ok := v.([]interface{}); ok {
		return list
	}
	return nil
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}
