// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"errors"
	"testing"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/ra"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

type fakeExecutor struct {
	responses map[string]string // command -> body
	types     map[string]string // tid -> network function type
	inactive  map[string]bool
	commands  []string
	params    []map[string]interface{}
}

func (f *fakeExecutor) Execute(_ context.Context, device, command string, params map[string]interface{}) (*ra.Response, error) {
	f.commands = append(f.commands, command)
	f.params = append(f.params, params)
	body, ok := f.responses[command]
	if !ok {
		return nil, errors.New("MDSO | System Error - RA Post: command: " + command + " code: 500 response: Internal Server Error")
	}
	return &ra.Response{Code: 200, Body: []byte(body)}, nil
}

func (f *fakeExecutor) NetworkFunctionByHost(_ context.Context, host string) (bpo.Resource, bool, error) {
	t, ok := f.types[host]
	if !ok {
		return nil, false, nil
	}
	state := bpo.StateActive
	if f.inactive[host] {
		state = bpo.StateFailed
	}
	return bpo.Resource{"id": "nf-" + host, "orchState": state, "properties": map[string]interface{}{"type": t}}, true, nil
}

func circuitOf(devices []Device) Circuit {
	return Circuit{CID: testCID, Devices: devices}
}

func Test_RASource_juniperCW(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{"show_interfaces": `{"result": {"data": {"configuration":
		{"interfaces": {"interface": {"name": "ae17", "unit": [
			{"name": "100", "vlan-id": "100", "description": "OTHER"},
			{"name": "565", "vlan-id": "565", "description": "71.L1XX.026306..TWCC:FIA",
			 "family": {"inet": {"address": {"name": "10.1.1.5/30"}}, "inet6": {"address": {"name": "2001:db8::/127"}}}}
		]}}}}}}`}}
	device := designDevices()[0]

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf(designDevices()))

	assert.Equal(t, Device{
		"tid": "BFLONYKK1CW", "vendor": "JUNIPER", "model": "MX960", "vlan_id": "565", "port_id": "AE17",
		"description": true, "ipv4": "10.1.1.5/30", "ipv6": "2001:DB8::/127",
	}, net)
	assert.Equal(t, map[string]interface{}{"parameter": "ae17"}, exec.params[0])
}

func Test_RASource_juniperVLANNotFound(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{"show_interfaces": `{"result": {"data": {"configuration":
		{"interfaces": {"interface": {"unit": [{"vlan-id": "100"}]}}}}}}`}}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), designDevices()[0], circuitOf(designDevices()))

	assert.Equal(t, "VLAN NOT FOUND", net[KeyPortID])
}

func Test_RASource_juniperCommunicationError(t *testing.T) {
	net := NewRASource(&fakeExecutor{}, newFakeStore()).NetworkData(context.Background(), designDevices()[0], circuitOf(designDevices()))

	assert.Equal(t, "Device communication: show_interfaces", net[KeyError])
	assert.Equal(t, "", net[KeyVendor])
}

func Test_RASource_adva1G(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{"1g_adva_flows": `{"result": [
			{"properties": {"epAccessFlowEVCName": "OTHER", "epAccessFlowAccessInterface": "eth_port-1-1-1-4"}},
			{"properties": {"epAccessFlowEVCName": "71.L1XX.026306..TWCC", "epAccessFlowAccessInterface": "eth_port-1-1-1-3"}}
		]}`},
		types: map[string]string{"BFLONYGO6ZW": "GE114Pro"},
	}
	device := Device{"tid": "BFLONYGO6ZW", "vendor": "ADVA", "model": "FSP 150-GE114PRO-C", "vlan_id": "565", "port_id": "ETH_PORT-1-1-1-3"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, Device{
		"tid": "BFLONYGO6ZW", "vendor": "ADVA", "model": "FSP 150-GE114PRO-C", "vlan_id": "565",
		"port_id": "ETH_PORT-1-1-1-3", "description": true,
	}, net)
}

func Test_RASource_adva10GFallback(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{"10g_adva_flows": `{"result": [
			{"eth": []},
			{"flow_point": [
				{"properties": {"interface": "eth_port-1-1-1-8", "alias": "71.L1XX.026306..TWCC"}},
				{"properties": {"interface": "eth_port-1-1-1-2", "alias": "71.L1XX.026306..TWCC"}}
			]}
		]}`},
		types: map[string]string{"BFLONYGO1AW": "XG116PRO"},
	}
	device := Device{"tid": "BFLONYGO1AW", "vendor": "ADVA", "model": "FSP 150-XG116PRO", "vlan_id": "565"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, []string{"seefa-cd-list_eth_ports.json", "10g_adva_flows"}, exec.commands)
	assert.Equal(t, "ETH_PORT-1-1-1-2", net[KeyPortID])
	assert.Equal(t, "FSP150CC-XG116PRO", net[KeyModel])
}

func Test_RASource_advaCommunicationError(t *testing.T) {
	device := Device{"tid": "BFLONYGO1AW", "vendor": "ADVA", "model": "FSP 150-XG116PRO", "vlan_id": "565"}

	net := NewRASource(&fakeExecutor{}, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, "Device communication: 10g_adva_flows", net[KeyError])
	assert.Equal(t, false, net[KeyDescription])
}

func Test_RASource_radCPE(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{"rad_flows": `{"result": [
			{"properties": {"name": "71.L1XX.026306..TWCC-OUT", "ingressPortId": "1"}},
			{"properties": {"name": "71.L1XX.026306..TWCC-IN", "ingressPortId": "5"}}
		]}`,
			"seefa-cd-list-ports.json": `{"result": [{"id": "5", "details": {"name": "BFLONYGO6ZW-UNI"}}]}`,
		},
		types: map[string]string{"BFLONYGO6ZW": "ETX-203AX"},
	}
	device := designDevices()[1]

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, Device{
		"tid": "BFLONYGO6ZW", "vendor": "RAD", "model": "ETX203AX/2SFP/2UTP2SFP", "vlan_id": "565",
		"port_id": "ETH PORT 5", "description": true,
	}, net)
}

func Test_RASource_radClassifiers(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{"rad_classifiers": `{"result": [
			{"label": "71.L1XX.026306..TWCC-IN", "properties": {"match": ["vlan 565"]}}
		]}`},
		types: map[string]string{"BFLONYGO1AW": "etx-2i-10g"},
	}
	device := Device{"tid": "BFLONYGO1AW", "vendor": "RAD", "model": "ETX-2I-10G/4SFPP/4SFP4UTP", "vlan_id": "565",
		"port_id": "ETH PORT 0/5", "description": true}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, device, net)
}

func juniperInterface(body string) string {
	return `{"result": {"data": {"configuration": {"interfaces": {"interface": ` + body + `}}}}}`
}

func Test_RASource_juniperAccessAndCPE(t *testing.T) {
	aw := Device{"tid": "BFLONYGO1AW", "vendor": "JUNIPER", "model": "EX4200-24F", "vlan_id": "565", "port_id": "GE-0/0/5"}
	zw := Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "565", "port_id": "AE3"}
	tests := []struct {
		name   string
		device Device
		body   string
		want   Device
	}{
		{
			name:   "access vlan members",
			device: aw,
			body:   `{"name": "ge-0/0/5", "description": "TO BFLONYGO6ZW", "unit": {"family": {"ethernet-switching": {"vlan": {"members": ["565", "100"]}}}}}`,
			want:   Device{"tid": "BFLONYGO1AW", "vendor": "JUNIPER", "model": "EX4200-24F", "vlan_id": "565", "port_id": "GE-0/0/5", "description": true},
		},
		{
			name:   "access vlan range member",
			device: aw,
			body:   `{"name": "ge-0/0/5", "description": "TO BFLONYGO6ZW", "unit": {"family": {"ethernet-switching": {"vlan": {"members": "500-600"}}}}}`,
			want:   Device{"tid": "BFLONYGO1AW", "vendor": "JUNIPER", "model": "EX4200-24F", "vlan_id": "565", "port_id": "GE-0/0/5", "description": true},
		},
		{
			name:   "access unit names",
			device: aw,
			body:   `{"name": "ge-0/0/5", "description": "71.L1XX.026306..TWCC", "unit": [{"name": "100"}, {"name": "565"}]}`,
			want:   Device{"tid": "BFLONYGO1AW", "vendor": "JUNIPER", "model": "EX4200-24F", "vlan_id": "565", "port_id": "GE-0/0/5", "description": true},
		},
		{
			name:   "access other port",
			device: aw,
			body:   `{"name": "ge-0/0/6", "unit": {"family": {"ethernet-switching": {"vlan": {"members": ["565"]}}}}}`,
			want:   Device{"tid": "BFLONYGO1AW", "vendor": "JUNIPER", "model": "EX4200-24F", "vlan_id": "", "port_id": "", "description": false},
		},
		{
			name:   "cpe unit description",
			device: zw,
			body:   `{"name": "ae3", "description": "CUSTOMER HANDOFF", "unit": [{"vlan-id": "100", "description": "OTHER"}, {"vlan-id": "565", "description": "71.L1XX.026306..TWCC"}]}`,
			want:   Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "565", "port_id": "AE3", "description": true},
		},
		{
			name:   "cpe vlan not on port",
			device: zw,
			body:   `{"name": "ae3", "unit": [{"vlan-id": "100", "description": "71.L1XX.026306..TWCC"}]}`,
			want:   Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "", "port_id": "AE3", "description": true},
		},
		{
			name:   "cpe described switching member",
			device: zw,
			body:   `{"name": "ae3", "unit": {"family": {"ethernet-switching": {"vlan": {"members": [{"name": "565", "description": "71.L1XX.026306..TWCC"}]}}}}}`,
			want:   Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "565", "port_id": "AE3", "description": true},
		},
		{
			name:   "cpe plain switching member",
			device: zw,
			body:   `{"name": "ae3", "unit": {"family": {"ethernet-switching": {"vlan": {"members": "565"}}}}}`,
			want:   Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "565", "port_id": "AE3", "description": false},
		},
		{
			name:   "cpe other port",
			device: zw,
			body:   `{"name": "ae4", "unit": [{"vlan-id": "565", "description": "71.L1XX.026306..TWCC"}]}`,
			want:   Device{"tid": "BFLONYGO7ZW", "vendor": "JUNIPER", "model": "MX480", "vlan_id": "", "port_id": "", "description": true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{responses: map[string]string{"show_interfaces": juniperInterface(tc.body)}}

			net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), tc.device, circuitOf(append(designDevices(), tc.device)))

			assert.Equal(t, tc.want, net)
		})
	}
}

func Test_RASource_juniperRoutedStaticRoute(t *testing.T) {
	units := juniperInterface(`{"name": "ae17", "unit": [{"vlan-id": "565", "description": "71.L1XX.026306..TWCC",
		"family": {"inet": {"address": {"name": "10.1.1.5/30"}}, "inet6": {"address": {"name": "2001:db8::/127"}}}}]}`)
	route := func(via string) string {
		return `{"result": {"route-information": {"route-table": {"rt": {"rt-entry": {"nh": {"via": "` + via + `"}}}}}}}`
	}
	device := designDevices()[0]
	device[KeyAssignedSubnets] = "192.0.2.0/29"
	device[KeyGlueSubnet] = "10.1.1.4/30"
	c := Circuit{CID: testCID, IPv4ServiceType: "ROUTED", Devices: designDevices()}

	exec := &fakeExecutor{responses: map[string]string{"show_interfaces": units, "show_route": route("ae17.565")}}
	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, []string{"show_interfaces", "show_route"}, exec.commands)
	assert.Equal(t, map[string]interface{}{"parameter": "192.0.2.0/29"}, exec.params[1])
	assert.Equal(t, "192.0.2.0/29", net[KeyAssignedSubnets])
	assert.Equal(t, "10.1.1.4/30", net[KeyGlueSubnet])

	exec = &fakeExecutor{responses: map[string]string{"show_interfaces": units, "show_route": route("ae18.565")}}
	net = NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Contains(t, net, KeyAssignedSubnets)
	assert.Nil(t, net[KeyAssignedSubnets])
	assert.Nil(t, net[KeyGlueSubnet])

	exec = &fakeExecutor{responses: map[string]string{"show_interfaces": units}}
	net = NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, "Device communication: show_route", net[KeyError])
}

func Test_RASource_juniperQFX(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"get_interfaces": `{"result": {"configuration": {"interfaces": {"xe-0/0/1": {"description": "UPLINK",
			"unit": [{"family": {"ethernet-switching": {"vlan": {"members": ["v100", "v565"]}}}}]}}}}}`,
		"agg_vlans": `{"result": {"v100": {"description": "OTHER"}, "v565": {"description": "71.L1XX.026306..TWCC"}}}`,
	}}
	device := Device{"tid": "BFLONYGO1QW", "vendor": "JUNIPER", "model": "QFX5100-48S", "vlan_id": "565", "port_id": "XE-0/0/1"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, Device{
		"tid": "BFLONYGO1QW", "vendor": "JUNIPER", "model": "QFX5100-48S", "vlan_id": "565", "port_id": "XE-0/0/1", "description": true,
	}, net)
	assert.Equal(t, []string{"get_interfaces", "agg_vlans"}, exec.commands)
}

func Test_RASource_juniperACX(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"show_interfaces": juniperInterface(`{"name": "ge-0/0/2", "unit": {"vlan-id": 565, "description": "71.L1XX.026306..TWCC"}}`),
	}}
	device := Device{"tid": "BFLONYGO2QW", "vendor": "JUNIPER", "model": "ACX5448", "vlan_id": "565", "port_id": "GE-0/0/2"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, Device{
		"tid": "BFLONYGO2QW", "vendor": "JUNIPER", "model": "ACX5448", "vlan_id": "565", "port_id": "GE-0/0/2", "description": true,
	}, net)
}

func Test_RASource_juniperEAccess(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"get-l2-circuits-full.json": `{"result": {"properties": {"name": "ae17.565", "description": "71.L1XX.026306..TWCC",
			"virtual-circuit-id": 457663}}}`,
	}}
	device := Device{"tid": "BFLONYKK1CW", "vendor": "JUNIPER", "model": "MX960", "vlan_id": "565", "port_id": "AE17",
		"description": true, "evc_id": "457663", "e_access_ip": "10.0.0.2"}
	c := Circuit{CID: testCID, Product: "EPL (Fiber)", Devices: []Device{device}}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, device, net)
	assert.Equal(t, map[string]interface{}{"parameter": "10.0.0.2:ae17.565"}, exec.params[0])
}

func elanStore() *fakeStore {
	store := newFakeStore()
	store.elements[testCID+"/"] = []Row{
		{"ELEMENT_TYPE": "PORT", "ELEMENT_CATEGORY": "ETHERNET"},
		{"ELEMENT_TYPE": "NETWORK", "ELEMENT_CATEGORY": "VPLS SVC", "ELEMENT_REFERENCE": "9001", "EVC_ID": "457663"},
	}
	return store
}

func Test_RASource_juniperELAN(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"show_interfaces": juniperInterface(`{"name": "ae17", "unit": [
			{"vlan-id": "565", "encapsulation": "vlan-vpls", "description": "71.L1XX.026306..TWCC"}]}`),
		"show_routing_instances": `{"result": [
			{"properties": {"interfaces": [{"config": {"interface": "ae9.100"}}], "config": {"routeTarget": "target:7843:1"}}},
			{"properties": {"interfaces": [{"config": {"interface": "ae17.565"}}], "config": {"routeTarget": "target:7843:457663"}}}
		]}`,
	}}
	device := Device{"tid": "BFLONYKK1CW", "vendor": "JUNIPER", "model": "MX960", "vlan_id": "565", "port_id": "AE17",
		"description": true, "evc_id": "457663", "encapsulation": "vlan-vpls"}
	c := Circuit{CID: testCID, Product: ProductEPLAN, Devices: []Device{device}}

	net := NewRASource(exec, elanStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, device, net)
}

func Test_RASource_juniperELANEncapsulation(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"show_interfaces": juniperInterface(`{"name": "ae17", "unit": [{"vlan-id": "565", "encapsulation": "ethernet-ccc"}]}`),
	}}
	device := Device{"tid": "BFLONYKK1CW", "vendor": "JUNIPER", "model": "MX960", "vlan_id": "565", "port_id": "AE17"}
	c := Circuit{CID: testCID, Product: ProductEPLAN, Devices: []Device{device}}

	net := NewRASource(exec, elanStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, "Unexpected encapsulation setting ethernet-ccc for BFLONYKK1CW", net[KeyError])
	assert.Equal(t, []string{"show_interfaces"}, exec.commands)

	net = NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, "Can't find correct path element to process", net[KeyError])
}

func Test_RASource_cisco(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{"show_interfaces": `{"result": [
		{"interface": "BE10.100", "description": "OTHER"},
		{"interface": "BE10.565", "description": "71.L1XX.026306..TWCC"}
	]}`}}
	device := Device{"tid": "SYRCNYSU1CW", "vendor": "CISCO", "model": "ASR 9006", "vlan_id": "565", "port_id": "BE10",
		"description": true, "ipv4": "10.1.1.5/30", "ipv6": "2001:DB8::1/127"}
	c := Circuit{CID: testCID, IPv4ServiceType: "ROUTED", Devices: []Device{device}}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, Device{
		"tid": "SYRCNYSU1CW", "vendor": "CISCO", "model": "ASR 9006", "vlan_id": "565", "port_id": "BE10",
		"description": true, "ipv4": "10.1.1.5/30", "ipv6": "2001:DB8::1/127",
		"IPV4_ASSIGNED_SUBNETS": nil, "IPV4_GLUE_SUBNET": nil,
	}, net)
}

func Test_RASource_ciscoUnexpectedRole(t *testing.T) {
	exec := &fakeExecutor{}
	device := Device{"tid": "SYRCNYSU1ZW", "vendor": "CISCO", "model": "ASR 9006", "vlan_id": "565", "port_id": "BE10"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, Device{"tid": "SYRCNYSU1ZW", "vendor": "", "model": "", "vlan_id": "565", "port_id": "", "description": nil}, net)
	assert.Empty(t, exec.commands)
}

func Test_RASource_ciscoASR920(t *testing.T) {
	store := newFakeStore()
	store.udas["1234"] = []Row{{"ATTR_NAME": "L-ID", "ATTR_VALUE": "ckt-77,OTHER"}}
	exec := &fakeExecutor{responses: map[string]string{
		"show_running_config_interface": `{"result": {"description": "LEGACY CKT-77 HANDOFF"}}`,
		"get_service_instances":         `{"result": [{"instance_id": "565"}, {"instance_id": "100"}]}`,
	}}
	device := Device{"tid": "BFLONYGO8ZW", "vendor": "CISCO", "model": "ASR-920-4SZ-A", "vlan_id": "565", "port_id": "GI0/0/1"}
	c := Circuit{CID: testCID, PathInstID: "1234", Devices: []Device{device}}

	net := NewRASource(exec, store).NetworkData(context.Background(), device, c)

	assert.Equal(t, Device{
		"tid": "BFLONYGO8ZW", "vendor": "CISCO", "model": "ASR-920-4SZ-A", "vlan_id": "565", "port_id": "GI0/0/1", "description": true,
	}, net)
	assert.Equal(t, map[string]interface{}{"parameter": "gi0/0/1"}, exec.params[1])
}

func Test_RASource_ciscoASR920NoServiceInstance(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"show_running_config_interface": `{"result": {"description": "CUSTOMER"}}`,
		"get_service_instances":         `{"result": []}`,
	}}
	device := Device{"tid": "BFLONYGO8ZW", "vendor": "CISCO", "model": "ASR-920-4SZ-A", "vlan_id": "565", "port_id": "GI0/0/1"}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

	assert.Equal(t, "Unable to retrieve vlan ID from BFLONYGO8ZW:GI0/0/1", net[KeyError])
	assert.Equal(t, "", net[KeyVLAN])
	assert.Equal(t, false, net[KeyDescription])
}

func Test_RASource_ciscoME3400(t *testing.T) {
	device := Device{"tid": "BFLONYGO9ZW", "vendor": "CISCO", "model": "ME-3400-24TS", "vlan_id": "565", "port_id": "FA0/1"}
	carried := Device{"tid": "BFLONYGO9ZW", "vendor": "CISCO", "model": "ME-3400-24TS", "vlan_id": "565", "port_id": "FA0/1", "description": true}
	missing := Device{"tid": "BFLONYGO9ZW", "vendor": "", "model": "", "vlan_id": "565", "port_id": "", "description": nil}
	tests := []struct {
		name       string
		switchport string
		want       Device
	}{
		{"trunk allows vlan", `{"mode": "trunk", "vlan": {"trunk": {"allowed_vlans": "1-100,500-600"}}}`, carried},
		{"trunk without vlan", `{"mode": "trunk", "vlan": {"trunk": {"allowed_vlans": "1-100"}}}`, missing},
		{"access vlan", `{"mode": "access", "vlan": {"access_vlan": "565"}}`, carried},
		{"other access vlan", `{"mode": "access", "vlan": {"access_vlan": "100"}}`, missing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{responses: map[string]string{
				"show_running_config_interface": `{"result": {"switchport": ` + tc.switchport + `}}`,
			}}

			net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, circuitOf([]Device{device}))

			assert.Equal(t, tc.want, net)
		})
	}
}

func Test_RASource_ciscoEAccess(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"show_cisco_router_evc": `{"result": {"evcid": "457663"}}`,
		"show_interfaces": `{"parameters": {"interface": "BE10.565"},
			"result": [{"interface": "BE10.565", "description": "71.L1XX.026306..TWCC"}]}`,
	}}
	device := Device{"tid": "SYRCNYSU1CW", "vendor": "CISCO", "model": "ASR 9006", "vlan_id": "565", "port_id": "BE10",
		"description": true, "evc_id": "457663", "e_access_ip": "10.0.0.2"}
	c := Circuit{CID: testCID, Product: "Carrier E-Access (Fiber)", Devices: []Device{device}}

	net := NewRASource(exec, newFakeStore()).NetworkData(context.Background(), device, c)

	assert.Equal(t, device, net)
	assert.Equal(t, map[string]interface{}{"parameter": "BE10.565"}, exec.params[0])
}

func Test_RASource_legacyIDMatches(t *testing.T) {
	store := newFakeStore()
	store.udas["1234"] = []Row{
		{"ATTR_NAME": "CUSTOMER", "ATTR_VALUE": "ACME"},
		{"ATTR_NAME": "L-ID", "ATTR_VALUE": "ckt-77,,ckt-78"},
	}
	s := NewRASource(&fakeExecutor{}, store)

	assert.True(t, s.legacyIDMatches(context.Background(), "1234", "LINK CKT-78"))
	assert.False(t, s.legacyIDMatches(context.Background(), "1234", "ACME LINK"))
	assert.False(t, s.legacyIDMatches(context.Background(), "", "LINK CKT-78"))

	store.err = errors.New("connection refused")
	assert.False(t, s.legacyIDMatches(context.Background(), "1234", "LINK CKT-78"))
}

func Test_vlanListed(t *testing.T) {
	assert.True(t, vlanListed(gjson.Parse(`["565", "100"]`), "565"))
	assert.True(t, vlanListed(gjson.Parse(`"500-600"`), "565"))
	assert.True(t, vlanListed(gjson.Parse(`"1-100,565"`), "565"))
	assert.True(t, vlanListed(gjson.Parse(`"v565"`), "565"))
	assert.True(t, vlanListed(gjson.Parse(`565`), "565"))

	assert.False(t, vlanListed(gjson.Parse(`"1100"`), "100"))
	assert.False(t, vlanListed(gjson.Parse(`["v100"]`), "565"))
	assert.False(t, vlanListed(gjson.Parse(`"600-500"`), "565"))
	assert.False(t, vlanListed(gjson.Parse(`""`), "565"))
}

func Test_RASource_Active(t *testing.T) {
	exec := &fakeExecutor{
		types:    map[string]string{"BFLONYKK1CW": "MX960", "BFLONYGO6ZW": "ETX-203AX"},
		inactive: map[string]bool{"BFLONYGO6ZW": true},
	}
	s := NewRASource(exec, newFakeStore())

	active, err := s.Active(context.Background(), "BFLONYKK1CW")
	assert.Nil(t, err)
	assert.True(t, active)

	active, err = s.Active(context.Background(), "BFLONYGO6ZW")
	assert.Nil(t, err)
	assert.False(t, active)

	active, err = s.Active(context.Background(), "ROCHNYXA1ZW")
	assert.Nil(t, err)
	assert.False(t, active)
}

func Test_CheckActiveDevices(t *testing.T) {
	network := &fakeNetwork{inactive: map[string]bool{"BFLONYGO6ZW": true}}

	inactive, err := CheckActiveDevices(context.Background(), network, designDevices(), true)

	assert.Nil(t, err)
	assert.Equal(t, []string{"BFLONYGO6ZW"}, inactive)

	_, err = CheckActiveDevices(context.Background(), network, designDevices(), false)

	assert.EqualError(t, err, "Device BFLONYGO6ZW is not active")
	assert.Equal(t, 502, StatusCode(err))
}

func Test_ProductName(t *testing.T) {
	assert.Equal(t, ProductEPL, ProductName("EPL (Fiber)", "FIA"))
	assert.Equal(t, ProductCarrierEAccess, ProductName("", "CARRIER E-ACCESS"))
	assert.Equal(t, ProductEPLAN, ProductName("", "EPLAN"))
	assert.Equal(t, "", ProductName("", "FIA"))
}
