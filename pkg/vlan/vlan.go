// Copyright Contributors to the Open Cluster Management project

// Package vlan converts between VLAN list strings such as "100,105,110-115" and sorted VLAN ids.
package vlan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxID is the highest VLAN id accepted. It bounds range expansion.
const MaxID = 4095

var separators = strings.NewReplacer("-", "..", "/", "..", "[", "", "]", "")

// ParseIDs returns the sorted, de-duplicated VLAN ids described by inputs.
// Accepted separators are "," for lists and "..", "-" or "/" for inclusive ranges. A range must
// not be reversed.
func ParseIDs(inputs ...string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, input := range inputs {
		normalized := strings.TrimSpace(separators.Replace(input))
		for _, token := range strings.Split(normalized, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if strings.Contains(token, "..") {
				bounds := strings.SplitN(token, "..", 2)
				first, err := parseID(bounds[0])
				if err != nil {
					return nil, err
				}
				last, err := parseID(bounds[1])
				if err != nil {
					return nil, err
				}
				if first > last {
					return nil, fmt.Errorf("invalid vlan range %q: %d is greater than %d", token, first, last)
				}
				for id := first; id <= last; id++ {
					seen[id] = struct{}{}
				}
				continue
			}
			id, err := parseID(token)
			if err != nil {
				return nil, err
			}
			seen[id] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid vlan id %q: %w", s, err)
	}
	if id < 0 || id > MaxID {
		return 0, fmt.Errorf("vlan id %d out of range 0..%d", id, MaxID)
	}
	return id, nil
}

// FormatRanges compresses ids into maximal contiguous runs, each rendered as "N" or "first..last".
func FormatRanges(ids []int) []string {
	if len(ids) == 0 {
		return []string{}
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	ranges := []string{}
	first, last := sorted[0], sorted[0]
	flush := func() {
		if first == last {
			ranges = append(ranges, strconv.Itoa(first))
		} else {
			ranges = append(ranges, fmt.Sprintf("%d..%d", first, last))
		}
	}
	for _, id := range sorted[1:] {
		switch {
		case id == last:
			continue
		case id == last+1:
			last = id
		default:
			flush()
			first, last = id, id
		}
	}
	flush()
	return ranges
}

// Normalize parses inputs and renders them back as range strings.
func Normalize(inputs ...string) ([]string, error) {
	ids, err := ParseIDs(inputs...)
	if err != nil {
		return nil, err
	}
	return FormatRanges(ids), nil
}

// Compress renders ids as a single comma separated string, e.g. "100,110..115".
func Compress(ids []int) string {
	return strings.Join(FormatRanges(ids), ",")
}
