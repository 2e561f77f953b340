// Copyright Contributors to the Open Cluster Management project

package bpo

import (
	"context"
	"encoding/json"
	"time"

	"k8s.io/klog/v2"
)

// Trace states.
const (
	TraceStarted   = "STARTED"
	TraceCompleted = "COMPLETED"
	TraceFailed    = "FAILED"
)

// TraceEntry is one line of the orchestration trace of a service.
type TraceEntry struct {
	Timestamp        string `json:"timestamp"`
	ResourceType     string `json:"resource_type"`
	ResourceID       string `json:"resource_id"`
	Process          string `json:"process"`
	LogFile          string `json:"log_file"`
	Message          string `json:"message"`
	State            string `json:"state"`
	ElapsedTime      int64  `json:"elapsed_time"`
	CategorizedError string `json:"categorized_error,omitempty"`
	ResourceName     string `json:"resource_name,omitempty"`
}

// TraceLog appends entries to the TraceLog resource shared by every step of one orchestration.
type TraceLog struct {
	Client    *Client
	TraceID   string
	Operation string
	UserName  string
	Resource  Resource // the resource being processed
	Process   string
	LogFile   string

	now func() time.Time
}

func (t *TraceLog) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Write appends an entry. A trace is created when none exists yet, but only for resources that own
// one or that belong to a network service. Resources outside any service are not traced.
func (t *TraceLog) Write(ctx context.Context, message, state, categorizedError string) error {
	if t == nil || t.Client == nil || t.TraceID == "" {
		return nil
	}

	traces, err := t.Client.GetResources(ctx, Query{ResourceTypeID: TraceLogType, Q: "properties.trace_id:" + t.TraceID})
	if err != nil {
		return err
	}

	var trace Resource
	var parentID string
	if len(traces) > 0 {
		trace = traces[0]
	} else {
		service := t.Resource
		if !OrchTraceProducts[t.Resource.ResourceTypeID()] {
			var ok bool
			service, ok, err = t.Client.AssociatedNetworkService(ctx, t.Resource)
			if err != nil {
				return err
			}
			if !ok {
				klog.V(2).Info("Resource not associated with network service, so skipping trace log")
				return nil
			}
		}
		product, err := t.Client.BuiltInProduct(ctx, TraceLogType)
		if err != nil {
			return err
		}
		parentID = service.ID()
		trace = Resource{
			"label":     service.Label() + ".orch_trace",
			"productId": product.ID(),
			"properties": map[string]interface{}{
				"trace_id":            t.TraceID,
				"origination_id":      service.ID(),
				"operation":           t.Operation,
				"start_time_sec":      t.clock().Unix(),
				"user_name":           t.UserName,
				"circuit_name":        service.Property("circuit_id"),
				"orchestration_trace": []interface{}{},
			},
		}
	}

	now := t.clock()
	entry := TraceEntry{
		Timestamp:        now.Format("15:04:05"),
		ResourceType:     t.Resource.ResourceTypeID(),
		ResourceID:       t.Resource.ID(),
		Process:          t.Process,
		LogFile:          t.LogFile,
		Message:          message,
		State:            state,
		ElapsedTime:      now.Unix() - startTime(trace),
		CategorizedError: categorizedError,
		ResourceName:     t.Resource.Property("resource_name"),
	}

	props := trace.Properties()
	entries, _ := props["orchestration_trace"].([]interface{})
	props["orchestration_trace"] = append(entries, entry)

	if parentID != "" {
		_, err = t.Client.CreateResource(ctx, parentID, trace)
	} else {
		_, err = t.Client.PatchResource(ctx, trace.ID(), map[string]interface{}{"properties": props})
	}
	if err != nil {
		return err
	}

	if line, err := json.Marshal(map[string]interface{}{
		"entry": entry, "trace_id": t.TraceID, "operation": t.Operation, "circuit_name": props["circuit_name"],
	}); err == nil {
		klog.Info(string(line))
	}
	return nil
}

func startTime(trace Resource) int64 {
	switch v := trace.Properties()["start_time_sec"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}
