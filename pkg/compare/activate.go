// Copyright Contributors to the Open Cluster Management project

package compare

import (
	"context"
	"sort"
	"strings"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"github.com/stolostron/circuit-reconciler/pkg/topology"
	"k8s.io/klog/v2"
)

// Components of a modeled device configuration, as found under network_config[tid] and
// designed_config[tid] of the service mapper.
const (
	ComponentTPE = "TPE"
	ComponentFRE = "FRE"
	ComponentBWP = "BWP"
	ComponentPE  = "PE"
)

// Service types whose second topology spoke also takes part in the comparison.
var twoSpokeServices = map[string]bool{"ELINE": true, "CTBH 4G": true}

// Activate compares the modeled network and design configuration of every device of the circuit
// and records the differences on the service mapper.
type Activate struct{}

// Terminate leaves the mapper untouched.
type Terminate struct{}

func (Terminate) Process(ctx context.Context, pc *plan.Context) error {
	return nil
}

// Register adds the service mapper steps to the registry.
func Register(r *plan.Registry) {
	r.Register(bpo.ServiceMapperType, model.OperationActivate, "serviceMapper.Activate", Activate{})
	r.Register(bpo.ServiceMapperType, model.OperationTerminate, "serviceMapper.Terminate", Terminate{})
}

// mapperDevice is a circuit device taking part in the comparison.
type mapperDevice struct {
	TID    string
	Vendor string
}

func (Activate) Process(ctx context.Context, pc *plan.Context) error {
	cid := pc.Resource.Property("circuit_id")
	cdID := pc.Resource.Property("circuit_details_id")
	if cdID == "" {
		return categorized.MDSO(categorized.MissingData, "Circuit Details", "circuit_details_id not set on "+pc.ResourceID)
	}
	cdResource, err := pc.BPO.GetResource(ctx, cdID)
	if err != nil {
		return categorized.MDSO(categorized.SystemError, categorized.ResourceGet, "unable to get circuit details: "+cdID)
	}
	cd := topology.New(map[string]interface{}(cdResource))

	devices, err := mapperDevices(cd)
	if err != nil {
		return err
	}
	klog.V(2).Infof("Comparing %d devices of %s", len(devices), cid)

	networkConfig, _ := pc.Properties["network_config"].(map[string]interface{})
	designedConfig, _ := pc.Properties["designed_config"].(map[string]interface{})
	m := NewMapper(pc.BPO)
	for _, d := range devices {
		network, _ := networkConfig[d.TID].(map[string]interface{})
		design, _ := designedConfig[d.TID].(map[string]interface{})
		if network == nil {
			return categorized.MDSO(categorized.MissingData, "Network Config", "tid: "+d.TID)
		}
		if design == nil {
			return categorized.MDSO(categorized.MissingData, "Designed Config", "tid: "+d.TID)
		}
		if err := m.CompareDevice(ctx, pc.ResourceID, d.TID, d.Vendor, network, design, cd); err != nil {
			return err
		}
	}
	return nil
}

// mapperDevices returns the devices of the first topology spoke, plus the second one for
// ELINE and CTBH 4G services, sorted by tid.
func mapperDevices(cd topology.CircuitDetails) ([]mapperDevice, error) {
	spokes, err := topology.BuildDeviceDict(cd)
	if err != nil {
		return nil, err
	}
	if len(spokes) == 0 {
		return nil, categorized.Granite(categorized.MissingData, categorized.TopologiesData, "topology")
	}
	props, _ := cd["properties"].(map[string]interface{})
	serviceType, _ := props["serviceType"].(string)
	if !twoSpokeServices[strings.ToUpper(serviceType)] {
		spokes = spokes[:1]
	} else if len(spokes) > 2 {
		spokes = spokes[:2]
	}

	devices := []mapperDevice{}
	for _, spoke := range spokes {
		for uuid, d := range spoke {
			tid := d.Get("Host Name")
			if tid == "" {
				tid = uuid
			}
			devices = append(devices, mapperDevice{TID: tid, Vendor: strings.ToUpper(d.Get("Vendor"))})
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].TID < devices[j].TID })
	return devices, nil
}

func component(config map[string]interface{}, name string) map[string]interface{} {
	c, _ := config[name].(map[string]interface{})
	return c
}

func properties(resource map[string]interface{}) map[string]interface{} {
	if props, ok := resource["properties"].(map[string]interface{}); ok {
		return props
	}
	return resource
}

// CompareDevice diffs each component present in both configurations of one device.
// RAD ports are also checked against the designed bandwidth, and an unsupported adminSpeed is
// recorded as a port difference.
func (m *Mapper) CompareDevice(ctx context.Context, mapperID, tid, vendor string, network, design map[string]interface{}, cd topology.CircuitDetails) error {
	networkTPE, designTPE := component(network, ComponentTPE), component(design, ComponentTPE)
	if networkTPE != nil && designTPE != nil {
		m.CompareTPE(ctx, properties(networkTPE), properties(designTPE), mapperID, tid)
	}
	if vendor == "RAD" && networkTPE != nil {
		if err := CheckDuplexAgainstBW(properties(networkTPE), cd); err != nil {
			klog.Infof("Unsupported admin speed for specified bandwidth on %s", tid)
			m.PatchDiffs(ctx, mapperID, tid, SectionPort, Diff{"adminSpeed": err.Error()}, Diff{}, false)
		}
	}

	switch vendor {
	case "ADVA", "RAD":
		networkFRE, designFRE := component(network, ComponentFRE), component(design, ComponentFRE)
		if networkFRE != nil && designFRE != nil {
			if err := m.CompareFRE(ctx, networkFRE, designFRE, mapperID, tid, vendor); err != nil {
				return err
			}
		}
	default:
		networkPE, designPE := component(network, ComponentPE), component(design, ComponentPE)
		if networkPE != nil && designPE != nil {
			m.comparePEConfig(ctx, networkPE, designPE, mapperID, tid)
		}
	}

	networkBWP, designBWP := component(network, ComponentBWP), component(design, ComponentBWP)
	if networkBWP != nil && designBWP != nil {
		m.CompareBWProfile(ctx, designBWP, networkBWP, mapperID, tid)
	}
	return nil
}

// comparePEConfig records PE differences in the port section. ipv4 blocks are compared as
// sets and recorded as core differences.
func (m *Mapper) comparePEConfig(ctx context.Context, network, design map[string]interface{}, mapperID, tid string) {
	networkIPs, nok := network["ipv4"].([]interface{})
	designIPs, dok := design["ipv4"].([]interface{})
	if nok && dok {
		m.CompareDesignIPs(ctx, designIPs, networkIPs, mapperID, tid)
	}

	networkDiff, designDiff := ComparePE(withoutIPv4List(network), withoutIPv4List(design))
	if len(networkDiff) == 0 && len(designDiff) == 0 {
		klog.V(2).Infof("No PE differences found for %s.", tid)
		return
	}
	m.PatchDiffs(ctx, mapperID, tid, SectionPort, networkDiff, designDiff, false)
}

func withoutIPv4List(m map[string]interface{}) map[string]interface{} {
	if _, ok := m["ipv4"].([]interface{}); !ok {
		return m
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != "ipv4" {
			out[k] = v
		}
	}
	return out
}
