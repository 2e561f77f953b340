// Copyright Contributors to the Open Cluster Management project

package compare

import (
	"context"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"k8s.io/klog/v2"
)

// Sections of service_differences[device].
const (
	SectionPort      = "port"
	SectionBWProfile = "bw_profile"
	SectionFlow      = "flow"
	SectionMPFlow    = "mp-flow"
)

// Market is the subset of the resource API used to record differences.
type Market interface {
	GetResource(ctx context.Context, id string) (bpo.Resource, error)
	PatchObserved(ctx context.Context, id string, properties map[string]interface{}) error
}

// Mapper records design and network differences on a service mapper resource.
type Mapper struct {
	market Market
}

// NewMapper returns a Mapper writing through market.
func NewMapper(market Market) *Mapper {
	return &Mapper{market: market}
}

// IsRemediation reports whether the mapper is on its initial remediation pass.
func IsRemediation(mapper bpo.Resource) bool {
	props := mapper.Properties()
	flag, _ := props["remediation_flag"].(bool)
	_, attempted := props["remediation_attempted"]
	return flag && !attempted
}

// PatchDiffs merges network and design into service_differences[device][section] of the
// mapper resource. The mp-flow section is replaced rather than merged. On the initial
// remediation pass non-core differences go to initial_differences instead.
// Failures are logged and not returned.
func (m *Mapper) PatchDiffs(ctx context.Context, mapperID, device, section string, network, design Diff, isCore bool) {
	mapper, err := m.market.GetResource(ctx, mapperID)
	if err != nil {
		klog.Errorf("Unable to get service mapper %s to record %s differences: %v", mapperID, section, err)
		return
	}
	props := mapper.Properties()
	klog.V(4).Infof("Initial mapper for %s is: %v", mapperID, props["service_differences"])

	differences := child(props, "service_differences")
	deviceDiffs := child(differences, device)

	existing, found := deviceDiffs[section].(map[string]interface{})
	if section == SectionMPFlow || !found || len(existing) == 0 {
		deviceDiffs[section] = map[string]interface{}{
			"Network": map[string]interface{}(network),
			"Design":  map[string]interface{}(design),
		}
	} else {
		merge(child(existing, "Network"), network)
		merge(child(existing, "Design"), design)
	}
	klog.V(3).Infof("Service differences for %s: %v", mapperID, differences)

	key := "service_differences"
	if IsRemediation(mapper) && !isCore {
		key = "initial_differences"
	}
	if err := m.market.PatchObserved(ctx, mapperID, map[string]interface{}{key: differences}); err != nil {
		klog.Errorf("Unable to update %s on service mapper %s: %v", key, mapperID, err)
	}
}

// child returns parent[key] as a map, creating it when absent.
func child(parent map[string]interface{}, key string) map[string]interface{} {
	if m, ok := parent[key].(map[string]interface{}); ok {
		return m
	}
	m := map[string]interface{}{}
	parent[key] = m
	return m
}

func merge(dst map[string]interface{}, src Diff) {
	for k, v := range src {
		dst[k] = v
	}
}
