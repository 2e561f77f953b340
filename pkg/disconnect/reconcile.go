// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"k8s.io/klog/v2"
)

// Store is the Granite access used by a reconciliation.
type Store interface {
	DesignReader
	UpdateShelfIPv4(ctx context.Context, cid, cidr string) error
	SaveReports(ctx context.Context, reports []model.Report) []string
}

// Publisher forwards saved reports to other consumers.
type Publisher interface {
	Publish(ctx context.Context, report model.Report) error
}

// Reconciler compares the design of circuits with the network.
type Reconciler struct {
	store     Store
	network   NetworkSource
	publisher Publisher
	workers   int
}

// NewReconciler reads the network with up to 8 devices in flight.
func NewReconciler(store Store, network NetworkSource) *Reconciler {
	return &Reconciler{store: store, network: network, workers: 8}
}

// WithPublisher sets where saved reports are also sent.
func (r *Reconciler) WithPublisher(p Publisher) *Reconciler {
	r.publisher = p
	return r
}

// Reconcile compares the design of a circuit with its devices, classifies the disconnect when
// the CPE is given, and stores the outcome as a report.
func (r *Reconciler) Reconcile(ctx context.Context, cid string, req model.CompareRequest) (model.CompareResponse, error) {
	resp := model.CompareResponse{CID: cid, Version: config.Cfg.Version}
	timer := time.Now()
	defer metrics.SlowLog(fmt.Sprintf("Slow reconciliation of %s", cid), reconcileSlowLog())()

	elements, err := r.store.PathElements(ctx, cid, "")
	if err != nil {
		return resp, fmt.Errorf("reading path elements of %s: %w", cid, err)
	}
	metrics.LogStepDuration(&timer, cid, "Read path elements")

	dbDevices, data, err := CircuitDeviceDataFromDB(ctx, r.store, cid, req.Devices, elements)
	if err != nil {
		return resp, err
	}
	if req.VGWIPv4 != "" {
		gateway, err := VGWGatewayIPv4(req.VGWIPv4)
		if err != nil {
			return resp, err
		}
		for _, d := range dbDevices {
			if strings.HasSuffix(d.TID(), "CW") {
				d[KeyIPv4] = gateway
			}
		}
	}
	dbDevices = FilterDevices(dbDevices)
	if err := CheckVendor(dbDevices); err != nil {
		return resp, err
	}
	metrics.LogStepDuration(&timer, cid, "Built design device profiles")

	if req.CPE != "" {
		if resp.JobType, err = JobType(ctx, r.store, cid, req.CPE, req.DocsisOrMNE, req.SwitchSides); err != nil {
			return resp, err
		}
		metrics.LogStepDuration(&timer, cid, "Classified job type")
	}

	// A CPE that is being removed may already be gone from the market.
	skipInactive := resp.JobType == JobFull && strings.HasSuffix(req.CPE, "ZW")
	inactive, err := CheckActiveDevices(ctx, r.network, dbDevices, skipInactive)
	if err != nil {
		return resp, err
	}
	skipTIDs := append(append([]string{}, req.SkipTIDs...), inactive...)

	circuit := Circuit{
		CID:             cid,
		Product:         ProductName(req.Product, data.ServiceType),
		IPv4ServiceType: data.IPv4ServiceType,
		PathInstID:      r.pathInstID(ctx, cid, elements),
		Devices:         dbDevices,
	}
	networkDevices := r.networkData(ctx, dbDevices, circuit, inactive)
	metrics.LogStepDuration(&timer, cid, fmt.Sprintf("Read %d devices from the network", len(networkDevices)))

	report, err := CompareNetworkAndGranite(dbDevices, networkDevices, skipTIDs, req.VGWIPv4, func(cidr string) error {
		return r.store.UpdateShelfIPv4(ctx, cid, cidr)
	})
	if errors.Is(err, ErrDeviceSetMismatch) {
		return resp, &AbortError{Code: http.StatusInternalServerError, Message: fmt.Sprintf("Unable to compare %s: %s", cid, err)}
	} else if err != nil {
		return resp, err
	}
	resp.Match = report == nil
	if report != nil {
		resp.GraniteData, resp.NetworkData = report.Maps()
	}

	if req.CPE != "" {
		resp.HubWorkRequired, resp.CPEInstallerNeeded, err = FullDiscoCheck(resp.JobType, elements, ZSideCPE(dbDevices, req.CPE).Str(KeyModel))
		if err != nil {
			return resp, err
		}
	}

	resp.ReportID = r.save(ctx, cid, resp)
	klog.V(1).Infof("Reconciled %s. match: %t job type: %s", cid, resp.Match, resp.JobType)
	return resp, nil
}

// networkData reads every device but the skipped ones, whose profiles stay nil.
func (r *Reconciler) networkData(ctx context.Context, devices []Device, c Circuit, skip []string) []Device {
	skipped := map[string]bool{}
	for _, tid := range skip {
		skipped[tid] = true
	}
	results := make([]Device, len(devices))
	p := pool.New().WithMaxGoroutines(r.workers)
	for i, d := range devices {
		if skipped[d.TID()] {
			continue
		}
		i, d := i, d
		p.Go(func() {
			results[i] = r.network.NetworkData(ctx, d, c)
		})
	}
	p.Wait()
	return results
}

// pathInstID returns the Granite instance id of the circuit path, read from the path elements
// or else from the circuit sites. "" when neither has it.
func (r *Reconciler) pathInstID(ctx context.Context, cid string, elements []Row) string {
	for _, e := range elements {
		if id := e.Str("CIRC_PATH_INST_ID"); id != "" {
			return id
		}
	}
	sites, err := r.store.CircuitSiteInfo(ctx, cid)
	if err != nil {
		klog.Warningf("Unable to read the path instance id of %s: %v", cid, err)
		return ""
	}
	for _, site := range sites {
		if id := site.Str("CIRC_PATH_INST_ID"); id != "" {
			return id
		}
	}
	return ""
}

// save stores the outcome and returns the report id, "" when it could not be saved.
func (r *Reconciler) save(ctx context.Context, cid string, resp model.CompareResponse) string {
	data := map[string]interface{}{"match": resp.Match}
	if !resp.Match {
		data["Granite Data"] = resp.GraniteData
		data["Network Data"] = resp.NetworkData
	}
	if resp.JobType != "" {
		data["job_type"] = resp.JobType
		data["hub_work_required"] = resp.HubWorkRequired
		data["cpe_installer_needed"] = resp.CPEInstallerNeeded
	}
	report := model.NewReport(cid, model.ReportDisconnect, data)
	if failed := r.store.SaveReports(ctx, []model.Report{report}); len(failed) > 0 {
		klog.Warningf("Reconciliation report of %s was not saved.", cid)
		return ""
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, report); err != nil {
			klog.Errorf("Unable to publish report %s of %s: %v", report.ID, cid, err)
		}
	}
	return report.ID
}

func reconcileSlowLog() time.Duration {
	return time.Duration(config.Cfg.ReconcileSlowLog) * time.Millisecond
}
