// Copyright Contributors to the Open Cluster Management project

package compare

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Diff holds the differing key/value pairs of one side of a comparison.
type Diff map[string]interface{}

// Normalize renders every value of m as a string so that design and network data
// decoded from different sources compare equal. Maps render as "{k: v, ...}" with
// sorted keys and lists as "[a, b]".
func Normalize(m map[string]interface{}) map[string]string {
	normalized := make(map[string]string, len(m))
	for k, v := range m {
		normalized[k] = render(v)
	}
	return normalized
}

func render(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1e15 {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+render(value[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []interface{}:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, render(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// missing returns the pairs of from that are not present, with the same value, in to.
func missing(from, to map[string]string) Diff {
	diff := Diff{}
	for k, v := range from {
		if other, ok := to[k]; !ok || other != v {
			diff[k] = v
		}
	}
	return diff
}

// ClassifierVLAN extracts the VLAN from a rendered FRE classifier such as
// "[{VLAN: 1100, type: vlan}]". It returns "" when no VLAN is present.
func ClassifierVLAN(classifier string) string {
	parts := strings.Split(strings.Trim(classifier, "[]{}"), ",")
	part := parts[0]
	if !strings.Contains(part, "VLAN") && len(parts) > 1 {
		part = parts[1]
	}
	fields := strings.SplitN(part, ": ", 2)
	if len(fields) < 2 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(fields[1]), `'"`)
}
