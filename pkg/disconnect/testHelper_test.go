// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"sync"

	"github.com/stolostron/circuit-reconciler/pkg/model"
)

type fakeStore struct {
	elements   map[string][]Row // cid + "/" + level
	sites      map[string][]Row
	udas       map[string][]Row
	sitePaths  map[string][]Row
	usedPorts  map[string][]Row
	err        error
	saveFails  bool
	shelfCIDRs []string
	saved      []model.Report
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		elements:  map[string][]Row{},
		sites:     map[string][]Row{},
		udas:      map[string][]Row{},
		sitePaths: map[string][]Row{},
		usedPorts: map[string][]Row{},
	}
}

func (f *fakeStore) PathElements(_ context.Context, cid, level string) ([]Row, error) {
	return f.elements[cid+"/"+level], f.err
}

func (f *fakeStore) CircuitSiteInfo(_ context.Context, cid string) ([]Row, error) {
	return f.sites[cid], f.err
}

func (f *fakeStore) CircuitUDAs(_ context.Context, instID string) ([]Row, error) {
	return f.udas[instID], f.err
}

func (f *fakeStore) PathsFromSite(_ context.Context, site string) ([]Row, error) {
	return f.sitePaths[site], f.err
}

func (f *fakeStore) UsedEquipmentPorts(_ context.Context, tid string) ([]Row, error) {
	return f.usedPorts[tid], f.err
}

func (f *fakeStore) UpdateShelfIPv4(_ context.Context, _, cidr string) error {
	f.shelfCIDRs = append(f.shelfCIDRs, cidr)
	return nil
}

func (f *fakeStore) SaveReports(_ context.Context, reports []model.Report) []string {
	if f.saveFails {
		return []string{reports[0].ID}
	}
	f.saved = append(f.saved, reports...)
	return nil
}

// fakeNetwork answers with prepared profiles, or echoes the design when none is set.
// Every device is active unless listed in inactive.
type fakeNetwork struct {
	lock     sync.Mutex
	profiles map[string]Device
	inactive map[string]bool
	calls    int
	circuit  Circuit
}

func (f *fakeNetwork) NetworkData(_ context.Context, device Device, c Circuit) Device {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++
	f.circuit = c
	if p, ok := f.profiles[device.TID()]; ok {
		return p
	}
	return device.copy()
}

func (f *fakeNetwork) Active(_ context.Context, tid string) (bool, error) {
	return !f.inactive[tid], nil
}

type fakePublisher struct {
	reports []model.Report
}

func (f *fakePublisher) Publish(_ context.Context, report model.Report) error {
	f.reports = append(f.reports, report)
	return nil
}

const testCID = "71.L1XX.026306..TWCC"

// circuitElements is a routed internet circuit from a data center router to a RAD CPE.
func circuitElements() []Row {
	return []Row{
		{"LVL": "1", "SEQUENCE": "1", "EVC_ID": "457663", "ELEMENT_CATEGORY": "ETHERNET TRANSPORT",
			"CHAN_NAME": "VLAN565", "PATH_Z_SITE_TYPE": "LOCAL"},
		{"LVL": "1", "SEQUENCE": "2", "ELEMENT_CATEGORY": "NETWORK LINK", "IPV4_ASSIGNED_GATEWAY": "192.0.2.1/29",
			"IPV4_ASSIGNED_SUBNETS": "192.0.2.0/29", "IPV4_GLUE_SUBNET": "10.1.1.4/30", "IPV4_SERVICE_TYPE": "ROUTED",
			"IPV6_GLUE_SUBNET": "2001:DB8::/127", "SERVICE_TYPE": "FIA", "PATH_Z_SITE_TYPE": "LOCAL"},
		{"LVL": "2", "SEQUENCE": "1", "TID": "BFLONYKK1CW", "VENDOR": "JUNIPER", "MODEL": "MX960",
			"ELEMENT_CATEGORY": "ROUTER", "PATH_Z_SITE_TYPE": "LOCAL"},
		{"LVL": "2", "SEQUENCE": "2", "TID": "BFLONYKK1CW", "VENDOR": "JUNIPER", "MODEL": "MX960",
			"ELEMENT_CATEGORY": "ROUTER", "PATH_Z_SITE_TYPE": "LOCAL"},
		{"LVL": "2", "SEQUENCE": "3", "TID": "BFLONYGO6ZW", "VENDOR": "RAD", "MODEL": "ETX203AX/2SFP/2UTP2SFP",
			"ELEMENT_CATEGORY": "SWITCH", "PATH_Z_SITE_TYPE": "LOCAL"},
	}
}

func circuitDevices() map[string]string {
	return map[string]string{"BFLONYGO6ZW": "ETH PORT 5", "BFLONYKK1CW": "AE17"}
}
