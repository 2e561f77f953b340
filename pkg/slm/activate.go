// Copyright Contributors to the Open Cluster Management project

package slm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"github.com/stolostron/circuit-reconciler/pkg/ra"
	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

const operation = "SLM"

// Commander runs RA command files on the device behind a network function.
type Commander interface {
	ExecuteOnResource(ctx context.Context, nf bpo.Resource, commandFile string, params map[string]interface{}) (*ra.Response, error)
}

// Activate reads the SLM configuration of the circuit endpoints and stores it on the resource.
type Activate struct {
	ra             Commander
	onboardTimeout time.Duration
}

// NewActivate returns the activate step. Onboarding a device may take up to 345 seconds.
func NewActivate(ra Commander) *Activate {
	return &Activate{ra: ra, onboardTimeout: 345 * time.Second}
}

// Terminate leaves the devices untouched.
type Terminate struct{}

func (Terminate) Process(ctx context.Context, pc *plan.Context) error {
	return nil
}

// Register adds the SLM steps to the registry.
func Register(r *plan.Registry, ra Commander) {
	r.Register(bpo.SLMActivatorType, model.OperationActivate, "slm.Activate", NewActivate(ra))
	r.Register(bpo.SLMActivatorType, model.OperationTerminate, "slm.Terminate", Terminate{})
}

type deviceConfig struct {
	CFMConfig []MaintenanceDomain `json:"CFM_config"`
	SLMRole   string              `json:"slmRole"`
	Vendor    string              `json:"vendor"`
}

func (a *Activate) Process(ctx context.Context, pc *plan.Context) error {
	cid := pc.Resource.Property("circuit_id")

	cdResource, err := a.circuitDetails(ctx, pc, cid)
	if err != nil {
		return err
	}
	if cdResource, err = a.validateDevices(ctx, pc, cid, cdResource); err != nil {
		return err
	}
	doc, err := json.Marshal(cdResource)
	if err != nil {
		return err
	}
	cd := gjson.ParseBytes(doc)

	reflector, probe, err := ChooseDevices(cd)
	if err != nil {
		return err
	}
	klog.V(2).Infof("Reflector: %+v Probe: %+v", reflector, probe)

	roles, err := PortRoles(cd, []string{reflector.UUID, probe.UUID})
	if err != nil {
		return err
	}
	klog.V(2).Infof("Endpoint roles from granite: %v", roles)

	if !Eligible(reflector, RoleReflector) || !Eligible(probe, RoleProbe) {
		return fmt.Errorf("Device pairing not eligible. Reflector: %s %s Probe: %s %s",
			reflector.Model, reflector.TID, probe.Model, probe.TID)
	}

	devices := []Device{reflector, probe}
	nfs := make([]bpo.Resource, len(devices))
	for i, d := range devices {
		if nfs[i], err = a.onboard(ctx, pc, cid, cdResource.ID(), d); err != nil {
			return err
		}
	}

	configs := map[string]deviceConfig{}
	manets := map[string]interface{}{}
	var mu sync.Mutex
	p := pool.New().WithErrors().WithFirstError()
	for i, d := range devices {
		nf, d := nfs[i], d
		p.Go(func() error {
			domains, manet, err := a.maintenanceDomains(ctx, nf, d, roles, cid)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			configs[d.TID] = deviceConfig{CFMConfig: domains, SLMRole: d.SLMRole, Vendor: d.Vendor}
			manets[d.TID] = manet
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	klog.V(2).Infof("Next available MANETs of %s: %v", cid, manets)

	return pc.BPO.PatchObserved(ctx, pc.ResourceID, map[string]interface{}{
		"slm_configuration":     configs,
		"next_available_MANETs": manets,
	})
}

// circuitDetails returns the circuit details carried by the resource, or collects them.
func (a *Activate) circuitDetails(ctx context.Context, pc *plan.Context, cid string) (bpo.Resource, error) {
	if cd, ok := pc.Properties["circuitDetails"].(map[string]interface{}); ok && len(cd) > 0 {
		return bpo.Resource(cd), nil
	}

	product, err := pc.BPO.BuiltInProduct(ctx, bpo.CircuitDetailsCollectorType)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("Creating CircuitDetailsCollector for %s", cid)
	collector, err := pc.BPO.CreateResource(ctx, pc.ResourceID, map[string]interface{}{
		"label":     cid + ".slm_cd_collector",
		"productId": product.ID(),
		"properties": map[string]interface{}{
			"circuit_id":                           cid,
			"use_alternate_circuit_details_server": pc.Properties["use_alternate_circuit_details_server"] == true,
			"operation":                            operation,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Exception %s raised when attempting to create CircuitDetailsCollector", err)
	}
	id := collector.Property("circuit_details_id")
	if id == "" {
		return nil, fmt.Errorf("CircuitDetailsCollector %s returned no circuit_details_id", collector.ID())
	}
	return pc.BPO.GetResource(ctx, id)
}

// validateDevices has the validator mark the devices to onboard and returns the updated details.
func (a *Activate) validateDevices(ctx context.Context, pc *plan.Context, cid string, cd bpo.Resource) (bpo.Resource, error) {
	product, err := pc.BPO.BuiltInProduct(ctx, bpo.ServiceDeviceValidatorType)
	if err != nil {
		return nil, err
	}
	_, err = pc.BPO.CreateResource(ctx, pc.ResourceID, map[string]interface{}{
		"label":     cd.ID() + ".slm_devicevalidator",
		"productId": product.ID(),
		"properties": map[string]interface{}{
			"circuit_details_id": cd.ID(),
			"circuit_id":         cid,
			"operation":          operation,
		},
	})
	if err != nil {
		return nil, err
	}
	return pc.BPO.GetResource(ctx, cd.ID())
}

// onboard runs the onboarder for the device and returns its active network function. A device that
// does not come up is marked ineligible and its network function removed.
func (a *Activate) onboard(ctx context.Context, pc *plan.Context, cid, cdID string, d Device) (bpo.Resource, error) {
	fail := func(err error) error {
		return fmt.Errorf("Exception - '%s' raised for product %s while SLM %s", err, bpo.ServiceDeviceOnboarderType, pc.ResourceID)
	}

	product, err := pc.BPO.BuiltInProduct(ctx, bpo.ServiceDeviceOnboarderType)
	if err != nil {
		return nil, fail(err)
	}
	klog.V(1).Infof("ServiceDeviceOnboarder for circuit_id %s device %s", cid, d.TID)
	onboarder, err := pc.BPO.CreateResource(ctx, pc.ResourceID, map[string]interface{}{
		"label":     cid + ".ServiceDeviceOnboarder",
		"productId": product.ID(),
		"properties": map[string]interface{}{
			"circuit_details_id": cdID,
			"circuit_id":         cid,
			"context":            "ALL",
			"operation":          operation,
		},
	})
	if err != nil {
		return nil, fail(err)
	}
	if err := pc.BPO.AwaitTermination(ctx, onboarder.ID(), a.onboardTimeout); err != nil {
		return nil, fail(err)
	}

	nf, ok, err := pc.BPO.NetworkFunctionByHostOrIP(ctx, d.FQDN, d.MgmtIP, false)
	if err != nil {
		return nil, fail(err)
	}
	if ok && nf.OrchState() == bpo.StateActive {
		klog.V(2).Infof("Onboarded network function %s for %s", nf.ID(), d.TID)
		return nf, nil
	}

	if err := pc.BPO.PatchObserved(ctx, pc.ResourceID, map[string]interface{}{
		"eligible":       false,
		"failure_status": "Could not onboard the CPE",
	}); err != nil {
		klog.Warningf("Unable to mark %s ineligible: %v", pc.ResourceID, err)
	}
	if ok {
		if err := pc.BPO.DeleteResource(ctx, nf.ID()); err != nil {
			klog.Warningf("Unable to delete network function %s: %v", nf.ID(), err)
		}
	}
	return nil, fmt.Errorf("onboarding failure on %s", d.TID)
}

// maintenanceDomains reads the CFM configuration of the device and the next MANET it can use.
func (a *Activate) maintenanceDomains(ctx context.Context, nf bpo.Resource, d Device, roles map[string]string,
	cid string) ([]MaintenanceDomain, interface{}, error) {
	connectionType := bpo.NetworkFunctionConnectionType(nf)
	command := "get-cfm-configuration.json"
	if connectionType != "cli" {
		command = "get-cfm-configuration-netconf.json"
	}
	resp, err := a.ra.ExecuteOnResource(ctx, nf, command, nil)
	if err != nil {
		return nil, nil, err
	}
	domains, err := ParseMaintenanceDomains(resp.Result(), d.Vendor, connectionType)
	if err != nil {
		return nil, nil, err
	}

	if associationsCommandRequired(d.Vendor, connectionType) {
		resp, err := a.ra.ExecuteOnResource(ctx, nf, "list-oam-mas.json", nil)
		if err != nil {
			return nil, nil, err
		}
		domains = AddMaintenanceAssociations(resp.Result(), domains, d.Vendor)
	}
	klog.V(3).Infof("Maintenance domains of %s: %+v", d.TID, domains)

	return domains, NextMANET(domains, d.Vendor, domainName(nf.Label(), roles), cid), nil
}
