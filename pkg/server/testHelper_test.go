// Copyright Contributors to the Open Cluster Management project
package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/driftprogramming/pgxpoolmock"
	"github.com/golang/mock/gomock"
	"github.com/stolostron/circuit-reconciler/pkg/fortigate"
	"github.com/stolostron/circuit-reconciler/pkg/granite"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
)

type fakeReconciler struct {
	resp model.CompareResponse
	err  error
	req  model.CompareRequest
}

func (f *fakeReconciler) Reconcile(_ context.Context, cid string, req model.CompareRequest) (model.CompareResponse, error) {
	f.req = req
	f.resp.CID = cid
	return f.resp, f.err
}

type fakeDesigns struct {
	sites map[string][]granite.Row
}

func (f *fakeDesigns) PathElements(context.Context, string, string) ([]granite.Row, error) {
	return nil, nil
}

func (f *fakeDesigns) CircuitSiteInfo(_ context.Context, cid string) ([]granite.Row, error) {
	return f.sites[cid], nil
}

func (f *fakeDesigns) CircuitUDAs(context.Context, string) ([]granite.Row, error) {
	return nil, nil
}

func (f *fakeDesigns) PathsFromSite(context.Context, string) ([]granite.Row, error) {
	return nil, nil
}

func (f *fakeDesigns) UsedEquipmentPorts(context.Context, string) ([]granite.Row, error) {
	return nil, nil
}

type fakePlans struct {
	state string
	req   model.PlanRequest
}

func (f *fakePlans) Lookup(resourceType, operation string) (string, plan.Process, bool) {
	return "test.Plan", nil, resourceType == "slm"
}

func (f *fakePlans) Run(_ context.Context, req model.PlanRequest) model.PlanResponse {
	f.req = req
	return model.PlanResponse{ResourceID: req.ResourceID, State: f.state}
}

type fakeFortiGate struct {
	err error
}

func (f fakeFortiGate) SystemStatus(context.Context) (*fortigate.SystemStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fortigate.SystemStatus{Version: "v7.0.5", Serial: "FGT60FTK0001", Model: "60F"}, nil
}

var errUnreachable = errors.New("connection refused")

func buildMockServer(t *testing.T) (*ServerConfig, *pgxpoolmock.MockPgxPool) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockPool := pgxpoolmock.NewMockPgxPool(ctrl)

	dao := granite.NewDAO(mockPool)
	server := &ServerConfig{
		Dao:        &dao,
		Reconciler: &fakeReconciler{},
		Designs:    &fakeDesigns{sites: map[string][]granite.Row{}},
		Plans:      &fakePlans{state: plan.StateCompleted},
		FortiGate: func(host string) StatusReader {
			if host == "10.0.0.9" {
				return fakeFortiGate{err: errUnreachable}
			}
			return fakeFortiGate{}
		},
	}
	return server, mockPool
}

func serve(s *ServerConfig, method, target, body string) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	s.Router().ServeHTTP(res, req)
	return res
}
