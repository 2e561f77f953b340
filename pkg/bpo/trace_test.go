// Copyright Contributors to the Open Cluster Management project

package bpo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 10, 30, 15, 0, time.UTC)
}

// Should append an entry to an existing trace and patch it back.
func Test_TraceLog_existing(t *testing.T) {
	var patched map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "properties.trace_id:trace-1", r.URL.Query().Get("q"))
			writeJSON(w, map[string]interface{}{"items": []interface{}{map[string]interface{}{
				"id": "trace-res",
				"properties": map[string]interface{}{
					"trace_id":            "trace-1",
					"start_time_sec":      fixedClock().Unix() - 42,
					"circuit_name":        "51.L1XX.000001..CHTR",
					"orchestration_trace": []interface{}{map[string]interface{}{"message": "first"}},
				},
			}}})
		case http.MethodPatch:
			assert.Equal(t, "/resources/trace-res", r.URL.Path)
			_ = json.NewDecoder(r.Body).Decode(&patched)
			writeJSON(w, map[string]interface{}{"id": "trace-res"})
		}
	})

	tl := &TraceLog{
		Client:   c,
		TraceID:  "trace-1",
		Resource: Resource{"id": "res-1", "resourceTypeId": SLMActivatorType, "properties": map[string]interface{}{"resource_name": "slm"}},
		Process:  "slm.Activate",
		LogFile:  "slm.log",
		now:      fixedClock,
	}
	err := tl.Write(context.Background(), "STARTED PROCESSING", TraceStarted, "")

	assert.Nil(t, err)
	entries := patched["properties"].(map[string]interface{})["orchestration_trace"].([]interface{})
	assert.Len(t, entries, 2)
	entry := entries[1].(map[string]interface{})
	assert.Equal(t, "10:30:15", entry["timestamp"])
	assert.Equal(t, "STARTED PROCESSING", entry["message"])
	assert.Equal(t, TraceStarted, entry["state"])
	assert.Equal(t, float64(42), entry["elapsed_time"])
	assert.Equal(t, "slm", entry["resource_name"])
	_, hasError := entry["categorized_error"]
	assert.False(t, hasError)
}

// Should create the trace under the service when the resource owns one.
func Test_TraceLog_create(t *testing.T) {
	var created map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resources":
			if r.Method == http.MethodPost {
				_ = json.NewDecoder(r.Body).Decode(&created)
				writeJSON(w, map[string]interface{}{"id": "trace-res"})
				return
			}
			writeJSON(w, map[string]interface{}{"items": []interface{}{}})
		case "/products":
			writeJSON(w, map[string]interface{}{"items": []interface{}{
				map[string]interface{}{"id": "trace-product", "resourceTypeId": TraceLogType, "domainId": BuiltInDomainID},
			}})
		default:
			w.WriteHeader(http.StatusCreated)
		}
	})

	tl := &TraceLog{
		Client:    c,
		TraceID:   "trace-2",
		Operation: "DISCONNECT",
		UserName:  "admin",
		Resource: Resource{"id": "mapper-1", "label": "51.L1XX.000001..CHTR.mapper", "resourceTypeId": DisconnectMapperType,
			"properties": map[string]interface{}{"circuit_id": "51.L1XX.000001..CHTR"}},
		Process: "disconnect.Mapper",
		now:     fixedClock,
	}
	err := tl.Write(context.Background(), "Error in disconnect.Mapper", TraceFailed, "MDSO | Process Error - x: y")

	assert.Nil(t, err)
	assert.Equal(t, "51.L1XX.000001..CHTR.mapper.orch_trace", created["label"])
	assert.Equal(t, "trace-product", created["productId"])
	props := created["properties"].(map[string]interface{})
	assert.Equal(t, "51.L1XX.000001..CHTR", props["circuit_name"])
	assert.Equal(t, "admin", props["user_name"])
	entry := props["orchestration_trace"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "MDSO | Process Error - x: y", entry["categorized_error"])
	assert.Equal(t, float64(0), entry["elapsed_time"])
}

// Should skip tracing a resource outside any network service.
func Test_TraceLog_skip(t *testing.T) {
	posted := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posted = true
		}
		writeJSON(w, map[string]interface{}{"items": []interface{}{}})
	})

	tl := &TraceLog{Client: c, TraceID: "trace-3", Resource: Resource{"id": "res-1", "resourceTypeId": SLMActivatorType}, now: fixedClock}
	err := tl.Write(context.Background(), "STARTED PROCESSING", TraceStarted, "")

	assert.Nil(t, err)
	assert.False(t, posted)
}
