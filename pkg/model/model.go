// Copyright Contributors to the Open Cluster Management project

package model

import (
	"time"

	"github.com/google/uuid"
)

// Operations a plan can run.
const (
	OperationActivate  = "activate"
	OperationTerminate = "terminate"
)

// Report kinds stored in the reports table and published to the report topic.
const (
	ReportDisconnect = "disconnect"
	ReportJobType    = "jobtype"
	ReportPlan       = "plan"
)

// PlanRequest - Asks the reconciler to run the plan registered for a resource type.
type PlanRequest struct {
	RequestID    string `json:"requestId,omitempty"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	Operation    string `json:"operation,omitempty"` // activate (default) or terminate
	UserName     string `json:"userName,omitempty"`
}

// PlanResponse - Outcome of a plan run.
type PlanResponse struct {
	RequestID      string  `json:"requestId,omitempty"`
	ResourceID     string  `json:"resourceId"`
	State          string  `json:"state"`
	Error          string  `json:"error,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Version        string  `json:"version"`
}

// CompareRequest - Body of a disconnect compare request.
type CompareRequest struct {
	Devices     map[string]string `json:"devices"` // tid -> port id
	SkipTIDs    []string          `json:"skipTids,omitempty"`
	VGWIPv4     string            `json:"vgwIpv4,omitempty"`
	CPE         string            `json:"cpe,omitempty"`
	DocsisOrMNE bool              `json:"docsisOrMne,omitempty"`
	SwitchSides bool              `json:"switchSides,omitempty"`
	Product     string            `json:"productName,omitempty"` // derived from the Granite service type when empty
}

// CompareResponse - Result of reconciling a circuit's design with the network.
type CompareResponse struct {
	CID                string                   `json:"cid"`
	Match              bool                     `json:"match"`
	GraniteData        []map[string]interface{} `json:"graniteData,omitempty"`
	NetworkData        []map[string]interface{} `json:"networkData,omitempty"`
	JobType            string                   `json:"jobType,omitempty"`
	HubWorkRequired    string                   `json:"hubWorkRequired,omitempty"`
	CPEInstallerNeeded string                   `json:"cpeInstallerNeeded,omitempty"`
	ReportID           string                   `json:"reportId,omitempty"`
	Version            string                   `json:"version"`
}

// JobTypeResponse - Engineering job type of a disconnect.
type JobTypeResponse struct {
	CID     string `json:"cid"`
	JobType string `json:"jobType"`
}

// Report - A reconciliation result kept for auditing.
type Report struct {
	ID      string                 `json:"id"`
	CID     string                 `json:"cid"`
	Kind    string                 `json:"kind"`
	Data    map[string]interface{} `json:"data"`
	Created time.Time              `json:"created"`
}

// NewReport builds a report with a random id.
func NewReport(cid, kind string, data map[string]interface{}) Report {
	return Report{ID: uuid.NewString(), CID: cid, Kind: kind, Data: data, Created: time.Now().UTC()}
}

// ErrorResponse - Body returned with a failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}
