// Copyright Contributors to the Open Cluster Management project

package plan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"k8s.io/klog/v2"
)

// Plan states reported back to the caller.
const (
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
)

// ErrNoPlan is returned when no plan is registered for a resource type and operation.
type ErrNoPlan struct {
	ResourceType string
	Operation    string
}

func (e *ErrNoPlan) Error() string {
	return fmt.Sprintf("no plan registered for %s %s", e.ResourceType, e.Operation)
}

type entry struct {
	class string
	proc  Process
}

// Registry maps resource types and operations to the step that handles them.
type Registry struct {
	client *bpo.Client
	mu     sync.RWMutex
	plans  map[string]entry
}

// NewRegistry builds an empty registry whose steps use client.
func NewRegistry(client *bpo.Client) *Registry {
	return &Registry{client: client, plans: map[string]entry{}}
}

func key(resourceType, operation string) string {
	return resourceType + "/" + operation
}

// Register sets the step run for operation on resources of resourceType.
func (r *Registry) Register(resourceType, operation, class string, proc Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[key(resourceType, operation)] = entry{class: class, proc: proc}
	klog.V(2).Infof("Registered plan %s for %s %s", class, resourceType, operation)
}

// Lookup returns the step for the resource type and operation. ok is false when none is registered.
func (r *Registry) Lookup(resourceType, operation string) (string, Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.plans[key(resourceType, operation)]
	return e.class, e.proc, ok
}

// Run executes the plan asked for by req. The operation defaults to activate and the trace id to the
// request id, or a new one when the request has none.
func (r *Registry) Run(ctx context.Context, req model.PlanRequest) model.PlanResponse {
	start := time.Now()
	if req.Operation == "" {
		req.Operation = model.OperationActivate
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	resp := model.PlanResponse{RequestID: req.RequestID, ResourceID: req.ResourceID, Version: config.Cfg.Version}

	class, proc, ok := r.Lookup(req.ResourceType, req.Operation)
	if !ok {
		err := &ErrNoPlan{ResourceType: req.ResourceType, Operation: req.Operation}
		klog.Warning(err)
		resp.State = StateFailed
		resp.Error = err.Error()
		metrics.PlanRuns.WithLabelValues(req.ResourceType, resp.State).Inc()
		return resp
	}

	pc := NewContext(r.client, class, Params{
		ResourceID: req.ResourceID,
		TraceID:    req.RequestID,
		Operation:  req.Operation,
		UserName:   req.UserName,
		LogFile:    fmt.Sprintf("%s-%s.log", config.Cfg.PodName, req.ResourceID),
	})
	err := Run(ctx, pc, proc)

	resp.ElapsedSeconds = time.Since(start).Seconds()
	if err != nil {
		resp.State = StateFailed
		resp.Error = err.Error()
	} else {
		resp.State = StateCompleted
	}
	metrics.PlanRuns.WithLabelValues(req.ResourceType, resp.State).Inc()
	return resp
}
