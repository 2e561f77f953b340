// Copyright Contributors to the Open Cluster Management project

package slm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"github.com/stolostron/circuit-reconciler/pkg/ra"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

const testCID = "51.L1XX.000001..CHTR"

func nv(name, value string) map[string]interface{} {
	return map[string]interface{}{"name": name, "value": value}
}

func node(tid, port, model, vendor, role string) map[string]interface{} {
	return map[string]interface{}{
		"uuid": tid,
		"name": []interface{}{
			nv("Host Name", tid), nv("Client Interface", port), nv("Model", model), nv("Vendor", vendor),
			nv("Management IP", "10.0.0.1"), nv("FQDN", tid+".CHTRSE.COM"), nv("Role", "CPE"),
		},
		"ownedNodeEdgePoint": []interface{}{map[string]interface{}{
			"uuid": tid + "-" + port,
			"name": []interface{}{nv("Role", role)},
		}},
	}
}

// circuitDetails has a RAD probe on the A side and a Juniper reflector alone on the Z side.
func circuitDetails() map[string]interface{} {
	return map[string]interface{}{
		"id": "cd-1",
		"properties": map[string]interface{}{
			"service": []interface{}{map[string]interface{}{"data": map[string]interface{}{
				"evc": []interface{}{map[string]interface{}{"endPoints": []interface{}{
					map[string]interface{}{"uniId": "BFLONYGO6ZW-ETH PORT 5"},
					map[string]interface{}{"uniId": "BFLONYKK1CW-AE17.565"},
				}}},
			}}},
			"topology": []interface{}{
				map[string]interface{}{"data": map[string]interface{}{"node": []interface{}{
					node("BFLONYGO6ZW", "ETH PORT 5", "ETX203AX/2SFP/2UTP2SFP", "RAD", "UNI"),
					node("BFLONYGO1AW", "ETH PORT 1", "ETX-2I-10G", "RAD", "INNI"),
				}}},
				map[string]interface{}{"data": map[string]interface{}{"node": []interface{}{
					node("BFLONYKK1CW", "AE17", "MX960", "JUNIPER", "UNI"),
				}}},
			},
		},
	}
}

type market struct {
	mu       sync.Mutex
	nfs      map[string]map[string]interface{} // fqdn -> network function
	created  []string
	observed []map[string]interface{}
	deleted  []string
}

func (m *market) write(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *market) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case r.URL.Path == "/products":
		items := []interface{}{}
		for _, rt := range []string{bpo.CircuitDetailsCollectorType, bpo.ServiceDeviceValidatorType, bpo.ServiceDeviceOnboarderType} {
			items = append(items, map[string]interface{}{"id": "product-" + rt, "resourceTypeId": rt, "domainId": bpo.BuiltInDomainID})
		}
		m.write(w, map[string]interface{}{"items": items})
	case r.URL.Path == "/relationships":
		m.write(w, map[string]interface{}{})
	case r.URL.Path == "/resources" && r.Method == http.MethodPost:
		payload := map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		label := payload["label"].(string)
		m.created = append(m.created, label)
		res := map[string]interface{}{"id": "created-" + label}
		if strings.HasSuffix(label, ".slm_cd_collector") {
			res["properties"] = map[string]interface{}{"circuit_details_id": "cd-1"}
		}
		m.write(w, res)
	case r.URL.Path == "/resources" && r.Method == http.MethodGet:
		host := strings.TrimPrefix(r.URL.Query().Get("q"), "properties.ipAddress:")
		items := []interface{}{}
		if nf, ok := m.nfs[host]; ok {
			items = append(items, nf)
		}
		m.write(w, map[string]interface{}{"items": items})
	case r.URL.Path == "/resources/cd-1":
		m.write(w, circuitDetails())
	case r.URL.Path == "/resources/slm-1/observed":
		body := map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		m.observed = append(m.observed, body["properties"].(map[string]interface{}))
		m.write(w, map[string]interface{}{})
	case r.Method == http.MethodDelete:
		m.deleted = append(m.deleted, strings.TrimPrefix(r.URL.Path, "/resources/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func networkFunction(id, tid, state, connection string) map[string]interface{} {
	return map[string]interface{}{
		"id":                 id,
		"label":              strings.ToLower(tid) + ".chtrse.com",
		"orchState":          state,
		"providerResourceId": "bpo_" + id,
		"properties":         map[string]interface{}{"authentication": map[string]interface{}{connection: map[string]interface{}{}}},
	}
}

type fakeCommander struct {
	mu        sync.Mutex
	responses map[string]string // nf id/command -> body
	commands  []string
}

func (f *fakeCommander) ExecuteOnResource(_ context.Context, nf bpo.Resource, command string, _ map[string]interface{}) (*ra.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := nf.ID() + "/" + command
	f.commands = append(f.commands, key)
	body, ok := f.responses[key]
	if !ok {
		return nil, errors.New("MDSO | Connectivity Error - RA Post: command: " + command)
	}
	return &ra.Response{Code: 200, Body: []byte(body)}, nil
}

func newTest(t *testing.T) (*market, *fakeCommander, *plan.Context) {
	m := &market{nfs: map[string]map[string]interface{}{
		"BFLONYKK1CW.CHTRSE.COM": networkFunction("nf-mx", "BFLONYKK1CW", bpo.StateActive, "netconf"),
		"BFLONYGO6ZW.CHTRSE.COM": networkFunction("nf-rad", "BFLONYGO6ZW", bpo.StateActive, "cli"),
	}}
	server := httptest.NewServer(m)
	t.Cleanup(server.Close)

	commander := &fakeCommander{responses: map[string]string{
		"nf-mx/get-cfm-configuration-netconf.json": `{"result": [
			{"name": "UNI-UNI", "level": 3, "maintenance-association": [{"name": "51.L1XX.000009..CHTR"}]},
			{"name": "UNI-ENNI", "level": 2, "maintenance-association": {"name": "` + testCID + `"}}
		]}`,
		"nf-rad/get-cfm-configuration.json": `{"result": [
			{"properties": {"name": "UNI-UNI", "md-level": "3", "md-id": "1"}},
			{"properties": {"name": "UNI-ENNI", "md-level": "2", "md-id": "2"}}
		]}`,
		"nf-rad/list-oam-mas.json": `{"result": [
			{"properties": {"md-id": "1", "id": "4", "name": "A"}},
			{"properties": {"md-id": "1", "id": "12", "name": "B"}},
			{"properties": {"md-id": "3", "id": "40", "name": "C"}}
		]}`,
	}}

	client := bpo.NewClientWithOptions(server.URL, "", "", 0, time.Millisecond)
	pc := plan.NewContext(client, "slm.Activate", plan.Params{ResourceID: "slm-1"})
	pc.Resource = bpo.Resource{"id": "slm-1", "properties": map[string]interface{}{"circuit_id": testCID}}
	pc.Properties = pc.Resource.Properties()
	return m, commander, pc
}

func Test_Activate(t *testing.T) {
	m, commander, pc := newTest(t)

	err := NewActivate(commander).Process(context.Background(), pc)

	assert.Nil(t, err)
	assert.Equal(t, []string{
		testCID + ".slm_cd_collector",
		"cd-1.slm_devicevalidator",
		testCID + ".ServiceDeviceOnboarder",
		testCID + ".ServiceDeviceOnboarder",
	}, m.created)
	assert.Len(t, m.observed, 1)

	manets := m.observed[0]["next_available_MANETs"].(map[string]interface{})
	assert.Equal(t, ManetEligible, manets["BFLONYKK1CW"])
	assert.Equal(t, float64(13), manets["BFLONYGO6ZW"])

	configs := m.observed[0]["slm_configuration"].(map[string]interface{})
	reflector := configs["BFLONYKK1CW"].(map[string]interface{})
	assert.Equal(t, RoleReflector, reflector["slmRole"])
	assert.Equal(t, "JUNIPER", reflector["vendor"])
	probe := configs["BFLONYGO6ZW"].(map[string]interface{})
	assert.Equal(t, RoleProbe, probe["slmRole"])
	assert.Len(t, probe["CFM_config"].([]interface{})[0].(map[string]interface{})["maintenance-associations"], 2)
}

// Should use the circuit details carried by the resource instead of collecting them.
func Test_Activate_circuitDetailsProperty(t *testing.T) {
	m, commander, pc := newTest(t)
	pc.Properties["circuitDetails"] = circuitDetails()

	err := NewActivate(commander).Process(context.Background(), pc)

	assert.Nil(t, err)
	assert.Equal(t, "cd-1.slm_devicevalidator", m.created[0])
	assert.Len(t, m.created, 3)
}

func Test_Activate_onboardingFailure(t *testing.T) {
	m, commander, pc := newTest(t)
	m.nfs["BFLONYGO6ZW.CHTRSE.COM"] = networkFunction("nf-rad", "BFLONYGO6ZW", bpo.StateFailed, "cli")

	err := NewActivate(commander).Process(context.Background(), pc)

	assert.EqualError(t, err, "onboarding failure on BFLONYGO6ZW")
	assert.Equal(t, []string{"nf-rad"}, m.deleted)
	assert.Equal(t, map[string]interface{}{"eligible": false, "failure_status": "Could not onboard the CPE"}, m.observed[0])
	assert.Empty(t, commander.commands)
}

func Test_Activate_cfmError(t *testing.T) {
	_, commander, pc := newTest(t)
	delete(commander.responses, "nf-rad/list-oam-mas.json")

	err := NewActivate(commander).Process(context.Background(), pc)

	assert.ErrorContains(t, err, "list-oam-mas.json")
}

func Test_Terminate(t *testing.T) {
	assert.Nil(t, Terminate{}.Process(context.Background(), nil))
}

func Test_ChooseDevices(t *testing.T) {
	doc, _ := json.Marshal(circuitDetails())

	reflector, probe, err := ChooseDevices(gjson.ParseBytes(doc))

	assert.Nil(t, err)
	assert.Equal(t, Device{
		TID: "BFLONYKK1CW", Port: "AE17", UUID: "BFLONYKK1CW-AE17", Model: "MX960", MgmtIP: "10.0.0.1",
		FQDN: "BFLONYKK1CW.CHTRSE.COM", Role: "CPE", Vendor: "JUNIPER", SLMRole: RoleReflector,
	}, reflector)
	assert.Equal(t, "BFLONYGO6ZW", probe.TID)
	assert.Equal(t, RoleProbe, probe.SLMRole)
}

func Test_ChooseDevices_missingEndpoint(t *testing.T) {
	_, _, err := ChooseDevices(gjson.Parse(`{"topology": [], "service": []}`))

	assert.EqualError(t, err, "no reflector device found for endpoint 0 ()")
}

func Test_PortRoles(t *testing.T) {
	doc, _ := json.Marshal(circuitDetails())
	cd := gjson.ParseBytes(doc)

	roles, err := PortRoles(cd, []string{"BFLONYKK1CW-AE17", "BFLONYGO1AW-ETH PORT 1"})

	assert.Nil(t, err)
	assert.Equal(t, map[string]string{"BFLONYKK1CW-AE17": "UNI-UNI", "BFLONYGO1AW-ETH PORT 1": "UNI-ENNI"}, roles)

	_, err = PortRoles(gjson.Parse(`{"topology": [{"data": {"node": [{"ownedNodeEdgePoint": [
		{"uuid": "X-1", "name": [{"name": "role", "value": "NNI"}]}]}]}}]}`), []string{"X-1"})
	assert.EqualError(t, err, "Failed during granite translation for: NNI")
}

func Test_Eligible(t *testing.T) {
	assert.True(t, Eligible(Device{Vendor: "JUNIPER", Model: "MX960"}, RoleReflector))
	assert.False(t, Eligible(Device{Vendor: "JUNIPER", Model: "MX960"}, RoleProbe))
	assert.True(t, Eligible(Device{Vendor: "ADVA", Model: "FSP 150-GE114PRO-C"}, RoleProbe))
	assert.True(t, Eligible(Device{Vendor: "ADVA", Model: "FSP 150CC-GE114/114S"}, RoleReflector))
	assert.True(t, Eligible(Device{Vendor: "ADVA", Model: "FSP 150-XG116PRO"}, RoleProbe))
	assert.True(t, Eligible(Device{Vendor: "RAD", Model: "ETX-2I-10G/4SFPP"}, RoleProbe))
	assert.False(t, Eligible(Device{Vendor: "CISCO", Model: "ASR 9006"}, RoleReflector))
}
