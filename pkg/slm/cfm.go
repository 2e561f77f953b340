// Copyright Contributors to the Open Cluster Management project

package slm

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// MANET answers for Juniper reflectors, which are checked by circuit id instead of numbered.
const (
	ManetEligible = "CID eligible"
	ManetInUse    = "CID in use for MANET. Ineligible."
)

var errNoDomains = errors.New("no maintenance domains found on this device")

// Maintenance domain levels by domain name.
var domainLevels = map[string]string{"UNI-UNI": "3", "UNI-ENNI": "2"}

// MaintenanceAssociation is a MANET configured in a domain.
type MaintenanceAssociation struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// MaintenanceDomain is a CFM maintenance domain read from a device.
type MaintenanceDomain struct {
	Name         string                   `json:"name"`
	Level        string                   `json:"level"`
	MDID         string                   `json:"md-id,omitempty"`
	Associations []MaintenanceAssociation `json:"maintenance-associations"`
}

// associations reads a list, or a single object, of associations.
func associations(v gjson.Result) []MaintenanceAssociation {
	mas := []MaintenanceAssociation{}
	add := func(ma gjson.Result) {
		mas = append(mas, MaintenanceAssociation{ID: ma.Get("id").String(), Name: ma.Get("name").String()})
	}
	if v.IsArray() {
		v.ForEach(func(_, ma gjson.Result) bool {
			add(ma)
			return true
		})
	} else if v.IsObject() {
		add(v)
	}
	return mas
}

// ParseMaintenanceDomains reads the domains from the result of the CFM configuration command.
func ParseMaintenanceDomains(result gjson.Result, vendor, connectionType string) ([]MaintenanceDomain, error) {
	domains := []MaintenanceDomain{}
	switch vendor {
	case "JUNIPER":
		result.ForEach(func(_, md gjson.Result) bool {
			domains = append(domains, MaintenanceDomain{
				Name:         md.Get("name").String(),
				Level:        md.Get("level").String(),
				Associations: associations(md.Get("maintenance-association")),
			})
			return true
		})
	case "RAD":
		result.ForEach(func(_, md gjson.Result) bool {
			domains = append(domains, MaintenanceDomain{
				Name:         md.Get("properties.name").String(),
				Level:        md.Get("properties.md-level").String(),
				MDID:         md.Get("properties.md-id").String(),
				Associations: []MaintenanceAssociation{},
			})
			return true
		})
	case "ADVA":
		if connectionType == "netconf" {
			result.Get("data.maintenance-domain").ForEach(func(_, md gjson.Result) bool {
				domains = append(domains, MaintenanceDomain{
					Name:         md.Get("name").String(),
					Level:        md.Get("md-level").String(),
					MDID:         md.Get("id").String(),
					Associations: associations(md.Get("maintenance-association")),
				})
				return true
			})
		} else {
			result.Get("output").ForEach(func(_, md gjson.Result) bool {
				domains = append(domains, MaintenanceDomain{
					Name:         md.Get("mdName").String(),
					Level:        md.Get("mdLevel").String(),
					MDID:         md.Get("mdId").String(),
					Associations: []MaintenanceAssociation{},
				})
				return true
			})
		}
	default:
		return nil, fmt.Errorf("unsupported vendor for SLM: %s", vendor)
	}
	if len(domains) == 0 {
		return nil, errNoDomains
	}
	return domains, nil
}

// associationsCommandRequired reports whether the domains read over cli lack their associations.
func associationsCommandRequired(vendor, connectionType string) bool {
	return (vendor == "RAD" || vendor == "ADVA") && connectionType == "cli"
}

// AddMaintenanceAssociations attaches the associations listed by list-oam-mas to their domains.
func AddMaintenanceAssociations(result gjson.Result, domains []MaintenanceDomain, vendor string) []MaintenanceDomain {
	for i := range domains {
		md := &domains[i]
		result.ForEach(func(_, ma gjson.Result) bool {
			switch vendor {
			case "RAD":
				if ma.Get("properties.md-id").String() == md.MDID {
					md.Associations = append(md.Associations, MaintenanceAssociation{
						ID:   ma.Get("properties.id").String(),
						Name: ma.Get("properties.name").String(),
					})
				}
			case "ADVA":
				ids, names := ma.Get("manetId").Array(), ma.Get("manetName").Array()
				for j := 0; j < len(ids) && j < len(names); j++ {
					if segment(md.MDID, 1) != "" && segment(md.MDID, 1) == segment(ids[j].String(), 1) {
						md.Associations = append(md.Associations, MaintenanceAssociation{ID: ids[j].String(), Name: names[j].String()})
					}
				}
			}
			return true
		})
	}
	return domains
}

func segment(s string, i int) string {
	parts := strings.Split(s, "-")
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// domainAvailable reports whether no association of the named domain already uses the circuit id.
func domainAvailable(domains []MaintenanceDomain, name, cid string) bool {
	for _, md := range domains {
		if md.Name != name || md.Level != domainLevels[name] {
			continue
		}
		for _, ma := range md.Associations {
			if ma.Name == cid {
				return false
			}
		}
	}
	return true
}

// associationNumbers returns the MANET numbers in use, ascending. ADVA ids look like MANET-1-2-5.
func associationNumbers(domains []MaintenanceDomain, vendor string) []int {
	numbers := []int{}
	for _, md := range domains {
		for _, ma := range md.Associations {
			id := ma.ID
			if vendor == "ADVA" {
				if s := segment(id, 2); s != "" {
					id = s
				}
			}
			n, err := strconv.Atoi(id)
			if err != nil {
				klog.V(3).Infof("Skipping maintenance association with id %q", ma.ID)
				continue
			}
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers
}

// NextMANET returns the next free association number for RAD and ADVA, or whether the circuit id is
// free in the domain for Juniper.
func NextMANET(domains []MaintenanceDomain, vendor, domain, cid string) interface{} {
	if vendor == "JUNIPER" {
		if domainAvailable(domains, domain, cid) {
			return ManetEligible
		}
		return ManetInUse
	}
	numbers := associationNumbers(domains, vendor)
	if len(numbers) == 0 {
		return 1
	}
	return numbers[len(numbers)-1] + 1
}
