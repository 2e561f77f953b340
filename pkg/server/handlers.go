// Copyright Contributors to the Open Cluster Management project

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/stolostron/circuit-reconciler/pkg/disconnect"
	"github.com/stolostron/circuit-reconciler/pkg/fortigate"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"k8s.io/klog/v2"
)

func respond(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		klog.Error("Error encoding response: ", err)
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, model.ErrorResponse{Message: msg})
}

// Compare reconciles the design of the circuit {cid} with its devices.
func (s *ServerConfig) Compare(w http.ResponseWriter, r *http.Request) {
	cid := mux.Vars(r)["cid"]
	klog.V(2).Infof("Processing compare request for circuit [%s]", cid)

	var req model.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		klog.Error("Error decoding body of compare request: ", err)
		respondError(w, http.StatusBadRequest, "Invalid compare request: "+err.Error())
		return
	}
	if len(req.Devices) == 0 {
		respondError(w, http.StatusBadRequest, "Invalid compare request: devices are required")
		return
	}

	resp, err := s.Reconciler.Reconcile(r.Context(), cid, req)
	if err != nil {
		klog.Errorf("Compare of %s failed: %v", cid, err)
		respondError(w, disconnect.StatusCode(err), err.Error())
		return
	}
	respond(w, http.StatusOK, resp)
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// JobType classifies the disconnect of the circuit {cid} as full or partial.
func (s *ServerConfig) JobType(w http.ResponseWriter, r *http.Request) {
	cid := mux.Vars(r)["cid"]
	cpe := r.URL.Query().Get("cpe")
	docsis, err := boolParam(r, "docsis")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid docsis parameter: "+err.Error())
		return
	}
	switchSides, err := boolParam(r, "switch")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid switch parameter: "+err.Error())
		return
	}

	jobType, err := disconnect.JobType(r.Context(), s.Designs, cid, cpe, docsis, switchSides)
	if err != nil {
		klog.Errorf("Job type of %s failed: %v", cid, err)
		respondError(w, disconnect.StatusCode(err), err.Error())
		return
	}
	respond(w, http.StatusOK, model.JobTypeResponse{CID: cid, JobType: jobType})
}

// ReportCount returns the number of reconciliation reports stored for the circuit {cid}.
func (s *ServerConfig) ReportCount(w http.ResponseWriter, r *http.Request) {
	cid := mux.Vars(r)["cid"]
	count, err := s.Dao.ReportCount(r.Context(), cid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"cid": cid, "reports": count})
}

// RunPlan runs the plan registered for resource type {type} on resource {id}. The body may set the
// operation, user name and request id.
func (s *ServerConfig) RunPlan(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid plan request: "+err.Error())
		return
	}
	req.ResourceType = params["type"]
	req.ResourceID = params["id"]
	if req.Operation == "" {
		req.Operation = model.OperationActivate
	}

	if _, _, ok := s.Plans.Lookup(req.ResourceType, req.Operation); !ok {
		err := &plan.ErrNoPlan{ResourceType: req.ResourceType, Operation: req.Operation}
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := s.Plans.Run(r.Context(), req)
	code := http.StatusOK
	if resp.State != plan.StateCompleted {
		code = http.StatusInternalServerError
	}
	respond(w, code, resp)
}

// FortiGateStatus reads the firmware and model of the FortiGate at {host}.
func (s *ServerConfig) FortiGateStatus(w http.ResponseWriter, r *http.Request) {
	host := mux.Vars(r)["host"]
	var device StatusReader
	if s.FortiGate != nil {
		device = s.FortiGate(host)
	} else {
		device = fortigate.NewClient(host)
	}

	status, err := device.SystemStatus(r.Context())
	if err != nil {
		klog.Warningf("Unable to read status of FortiGate %s: %v", host, err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respond(w, http.StatusOK, status)
}
