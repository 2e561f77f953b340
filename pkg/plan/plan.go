// Copyright Contributors to the Open Cluster Management project

// Package plan runs one orchestration step against a market resource: it loads the resource,
// runs the step and records the outcome in the orchestration trace.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"k8s.io/klog/v2"
)

// Process is one orchestration step.
type Process interface {
	Process(ctx context.Context, pc *Context) error
}

// ProcessFunc adapts a function to Process.
type ProcessFunc func(ctx context.Context, pc *Context) error

func (f ProcessFunc) Process(ctx context.Context, pc *Context) error {
	return f(ctx, pc)
}

// Params identify the resource and the orchestration a step runs for.
type Params struct {
	ResourceID string
	TraceID    string
	Operation  string
	UserName   string
	LogFile    string
}

// Context carries the state of a running step.
type Context struct {
	ResourceID string
	Resource   bpo.Resource
	Properties map[string]interface{}
	Class      string // name of the step, used in traces and errors
	LogFile    string
	BPO        *bpo.Client
	Trace      *bpo.TraceLog
	Start      time.Time
}

// NewContext prepares a step. The resource is loaded by Run.
func NewContext(client *bpo.Client, class string, p Params) *Context {
	return &Context{
		ResourceID: p.ResourceID,
		Class:      class,
		LogFile:    p.LogFile,
		BPO:        client,
		Start:      time.Now(),
		Trace: &bpo.TraceLog{
			Client:    client,
			TraceID:   p.TraceID,
			Operation: p.Operation,
			UserName:  p.UserName,
			Process:   class,
			LogFile:   p.LogFile,
		},
	}
}

// Run loads the resource, runs proc and completes the step. Errors from proc are categorized
// as process errors unless they already carry a category.
func Run(ctx context.Context, pc *Context, proc Process) error {
	klog.Infof("Starting execution for %s on resource %s", pc.Class, pc.ResourceID)

	res, err := pc.BPO.GetResource(ctx, pc.ResourceID)
	if err != nil {
		klog.Infof("Error getting resource %s: %v", pc.ResourceID, err)
		return pc.ExitError(ctx, categorized.MDSO(categorized.SystemError, categorized.ResourceGet,
			fmt.Sprintf("unable to get resource: %s %s", pc.Class, pc.ResourceID)))
	}
	pc.Resource = res
	pc.Properties = res.Properties()
	pc.Trace.Resource = res
	klog.V(4).Infof("Resource %s: %v", pc.ResourceID, res)

	pc.trace(ctx, "STARTED PROCESSING", bpo.TraceStarted, "")
	klog.V(2).Infof(" ###################### STARTING PROCESSING %s ######################", pc.Class)
	if err := proc.Process(ctx, pc); err != nil {
		return pc.ExitError(ctx, err)
	}
	klog.V(2).Infof(" ###################### FINISHED PROCESSING %s ######################", pc.Class)

	pc.Complete(ctx)
	return nil
}

// ExitError logs the failure, records it in the trace and returns it as a categorized error.
func (pc *Context) ExitError(ctx context.Context, err error) error {
	reason := err.Error()
	if !categorized.IsCategorized(err) {
		reason = "Error: " + reason
	}
	failure := categorized.Wrap(pc.Class, err)

	msg := fmt.Sprintf("Error in %s, %s.  Please check file: %s", pc.Class, reason, pc.LogFile)
	klog.Error(msg)
	if pc.Resource != nil {
		pc.trace(ctx, msg, bpo.TraceFailed, failure.Error())
	}
	return failure
}

// Complete logs the elapsed time and records the success in the trace.
func (pc *Context) Complete(ctx context.Context) {
	klog.Infof("Completing execution for %s, elapsed time: %d secs", pc.Class, int(time.Since(pc.Start).Seconds()))
	pc.trace(ctx, "Completed successfully", bpo.TraceCompleted, "")
}

// trace failures never fail the step.
func (pc *Context) trace(ctx context.Context, message, state, categorizedError string) {
	if err := pc.Trace.Write(ctx, message, state, categorizedError); err != nil {
		klog.Warningf("Unable to write trace for %s: %v", pc.ResourceID, err)
	}
}
