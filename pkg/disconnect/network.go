// Copyright Contributors to the Open Cluster Management project

package disconnect

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/ra"
	"github.com/stolostron/circuit-reconciler/pkg/vlan"
	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// Products whose routers carry the circuit as an E-Access or EP-LAN service.
const (
	ProductCarrierEAccess = "CARRIER E-ACCESS (FIBER)"
	ProductEVPL           = "EVPL (FIBER)"
	ProductEPL            = "EPL (FIBER)"
	ProductEPLAN          = "EP-LAN (FIBER)"
)

var eAccessProducts = map[string]bool{ProductCarrierEAccess: true, ProductEVPL: true, ProductEPL: true}

// Circuit is what a device reader knows about the circuit besides the device itself.
type Circuit struct {
	CID             string
	Product         string
	IPv4ServiceType string
	PathInstID      string   // Granite path instance id, used to look up legacy circuit ids
	Devices         []Device // design profiles of every device of the circuit
}

// ProductName returns the upper-cased product of the circuit. When none was requested it is
// derived from the Granite service type.
func ProductName(requested, serviceType string) string {
	if requested != "" {
		return strings.ToUpper(requested)
	}
	switch {
	case strings.Contains(serviceType, "E-ACCESS"):
		return ProductCarrierEAccess
	case strings.Contains(serviceType, "EPLAN"):
		return ProductEPLAN
	}
	return ""
}

// NetworkSource reads the as-built profile of a device. Communication failures are reported
// in the profile's Error key so the device still takes part in the comparison. A nil profile
// means the device could not be read at all.
type NetworkSource interface {
	NetworkData(ctx context.Context, device Device, circuit Circuit) Device
	// Active reports whether the device is onboarded and active in the market.
	Active(ctx context.Context, tid string) (bool, error)
}

// Executor runs RA commands on devices.
type Executor interface {
	Execute(ctx context.Context, device, commandFile string, params map[string]interface{}) (*ra.Response, error)
	NetworkFunctionByHost(ctx context.Context, host string) (bpo.Resource, bool, error)
}

// RASource reads device profiles through the RA. Granite is used for the circuit data the
// devices do not carry, such as legacy circuit ids.
type RASource struct {
	ra     Executor
	design DesignReader
}

func NewRASource(e Executor, design DesignReader) *RASource {
	return &RASource{ra: e, design: design}
}

// NetworkData reads the device with the commands of its vendor, model and product.
func (s *RASource) NetworkData(ctx context.Context, device Device, c Circuit) Device {
	product := strings.ToUpper(c.Product)
	switch device.Str(KeyVendor) {
	case "JUNIPER":
		switch {
		case eAccessProducts[product]:
			if suffix := tidSuffix(device.TID()); suffix == "AW" || suffix == "QW" {
				return s.juniper(ctx, device, Circuit{CID: c.CID, Devices: c.Devices})
			}
			return s.juniperEAccess(ctx, device, c)
		case product == ProductEPLAN:
			return s.juniperELAN(ctx, device, c)
		}
		return s.juniper(ctx, device, c)
	case "CISCO":
		model := strings.ToUpper(device.Str(KeyModel))
		switch {
		case strings.Contains(model, "ME-3400"):
			return s.ciscoME3400(ctx, device, c)
		case eAccessProducts[product]:
			return s.ciscoEAccess(ctx, device, c)
		case strings.Contains(model, "ASR-920"):
			return s.ciscoASR920(ctx, device, c)
		}
		return s.cisco(ctx, device, c)
	case "ADVA":
		return s.adva(ctx, device, c.Devices, c.CID)
	case "RAD":
		return s.rad(ctx, device, c.Devices, c.CID)
	}
	klog.Warningf("No network reader for vendor %s of %s.", device.Str(KeyVendor), device.TID())
	return nil
}

func (s *RASource) Active(ctx context.Context, tid string) (bool, error) {
	nf, found, err := s.ra.NetworkFunctionByHost(ctx, tid)
	if err != nil {
		return false, err
	}
	return found && nf.OrchState() == bpo.StateActive, nil
}

// CheckActiveDevices returns the tids of the devices that are not active in the market. Unless
// skipInactive is set, the first inactive device stops the reconciliation instead.
func CheckActiveDevices(ctx context.Context, source NetworkSource, devices []Device, skipInactive bool) ([]string, error) {
	inactive := []string{}
	for _, d := range devices {
		active, err := source.Active(ctx, d.TID())
		if err == nil && active {
			continue
		}
		if skipInactive {
			klog.Infof("Skipping inactive device %s. %v", d.TID(), err)
			inactive = append(inactive, d.TID())
			continue
		}
		if err != nil {
			return nil, &AbortError{Code: http.StatusBadGateway, Message: fmt.Sprintf("Unable to check device %s: %v", d.TID(), err)}
		}
		return nil, &AbortError{Code: http.StatusBadGateway, Message: fmt.Sprintf("Device %s is not active", d.TID())}
	}
	return inactive, nil
}

func emptyProfile(device Device, vlan string) Device {
	return Device{
		KeyTID:         device.TID(),
		KeyVendor:      "",
		KeyModel:       "",
		KeyVLAN:        vlan,
		KeyPortID:      "",
		KeyDescription: true,
	}
}

func (s *RASource) exec(ctx context.Context, tid, command string, params map[string]interface{}) (gjson.Result, error) {
	resp, err := s.execResponse(ctx, tid, command, params)
	if err != nil {
		return gjson.Result{}, err
	}
	return resp.Result(), nil
}

func (s *RASource) execResponse(ctx context.Context, tid, command string, params map[string]interface{}) (*ra.Response, error) {
	resp, err := s.ra.Execute(ctx, tid, command, params)
	if err != nil {
		klog.Errorf("Error when retrieving data from the RA for %s, command %s: %v", tid, command, err)
		return nil, err
	}
	return resp, nil
}

// deviceType returns the type the market reports for the device, "" when unknown.
func (s *RASource) deviceType(ctx context.Context, tid string) string {
	nf, found, err := s.ra.NetworkFunctionByHost(ctx, tid)
	if err != nil || !found {
		klog.Warningf("Unable to find the network function of %s. %v", tid, err)
		return ""
	}
	return nf.Property("type")
}

// legacyIDMatches reports whether description names one of the circuit's legacy ids, kept in
// the L-ID attribute of the circuit path.
func (s *RASource) legacyIDMatches(ctx context.Context, pathInstID, description string) bool {
	if pathInstID == "" {
		klog.Warning("Unknown circuit path instance id, legacy ids not checked.")
		return false
	}
	udas, err := s.design.CircuitUDAs(ctx, pathInstID)
	if err != nil {
		klog.Errorf("Unable to read the attributes of path %s: %v", pathInstID, err)
		return false
	}
	description = strings.ToUpper(description)
	for _, uda := range udas {
		if uda.Str("ATTR_NAME") != "L-ID" {
			continue
		}
		for _, id := range strings.Split(uda.Str("ATTR_VALUE"), ",") {
			if id = strings.TrimSpace(id); id != "" && strings.Contains(description, strings.ToUpper(id)) {
				return true
			}
		}
	}
	return false
}

// vlanListed reports whether the vlan id is part of members: a vlan id, a range list such as
// "1-100,565", a vlan name ending in the id, or an array of those.
func vlanListed(members gjson.Result, id string) bool {
	if members.IsArray() {
		for _, m := range members.Array() {
			if vlanListed(m, id) {
				return true
			}
		}
		return false
	}
	value := strings.TrimSpace(members.String())
	if value == "" || id == "" {
		return false
	}
	if value == id {
		return true
	}
	if n, err := strconv.Atoi(id); err == nil {
		if ids, err := vlan.ParseIDs(value); err == nil {
			i := sort.SearchInts(ids, n)
			return i < len(ids) && ids[i] == n
		}
	}
	return strings.TrimLeftFunc(value, func(r rune) bool { return !unicode.IsDigit(r) }) == id
}

func (s *RASource) adva(ctx context.Context, device Device, devices []Device, cid string) Device {
	tid, model := device.TID(), device.Str(KeyModel)
	net := emptyProfile(device, device.Str(KeyVLAN))

	var cpes []Device
	if len(tid) == 11 && tidSuffix(tid) == "AW" {
		cpes = ZWDevices(tid, devices)
	}

	command := "seefa-cd-list_eth_ports.json"
	if strings.Contains(model, "114") {
		command = "1g_adva_flows"
	}
	result, err := s.exec(ctx, tid, command, nil)
	if err != nil {
		command = "10g_adva_flows"
		if result, err = s.exec(ctx, tid, command, nil); err != nil {
			net[KeyError] = "Device communication: " + command
			net[KeyDescription] = false
			return net
		}
	}
	net[KeyVendor] = device.Str(KeyVendor)

	devType := s.deviceType(ctx, tid)
	if devType == "" {
		return net
	}

	if strings.Contains(devType, "114") {
		switch devType {
		case "GE114Pro":
			net[KeyModel] = "FSP 150-GE114PRO-C"
		case "GE114":
			net[KeyModel] = "FSP 150CC-GE114/114S"
		}
		for _, flow := range result.Array() {
			if flow.Get("properties.epAccessFlowEVCName").String() == cid {
				net[KeyPortID] = strings.ToUpper(flow.Get("properties.epAccessFlowAccessInterface").String())
				break
			}
		}
		return net
	}

	switch devType {
	case "XG116PRO":
		net[KeyModel] = "FSP150CC-XG116PRO"
	case "XG120PRO":
		net[KeyModel] = "FSP 150-XG120PRO"
	}
	entries := result.Array()
	if len(entries) == 0 {
		return net
	}
	uplink := func(name string) bool {
		return (strings.Contains(name, "eth_port-1-1-1-8") && strings.Contains(model, "116")) ||
			(strings.Contains(name, "eth_port-1-1-1-26") && strings.Contains(model, "120"))
	}
	for _, flow := range entries[len(entries)-1].Get("flow_point").Array() {
		iface := flow.Get("properties.interface").String()
		if uplink(iface) {
			continue
		}
		if flow.Get("properties.alias").String() == cid {
			net[KeyPortID] = strings.ToUpper(iface)
			break
		}
	}
	if len(cpes) == 0 {
		return net
	}
	for _, p := range entries[0].Get("eth").Array() {
		name := p.Get("properties.name").String()
		alias := p.Get("properties.alias").String()
		if uplink(name) {
			continue
		}
		for _, cpe := range cpes {
			if !strings.Contains(alias, cpe.TID()) {
				continue
			}
			if strings.ToUpper(name) != net.Str(KeyPortID) {
				net[KeyDescription] = false
				if strings.ToUpper(name) == device.Str(KeyPortID) && strings.Contains(alias, cid) {
					net[KeyDescription] = true
					net[KeyPortID] = device.Str(KeyPortID)
				}
			}
			break
		}
	}
	return net
}

func (s *RASource) rad(ctx context.Context, device Device, devices []Device, cid string) Device {
	tid, vlan := device.TID(), device.Str(KeyVLAN)
	net := emptyProfile(device, vlan)

	var cpes []Device
	if len(tid) == 11 && (tidSuffix(tid) == "AW" || tidSuffix(tid) == "ZW") {
		cpes = ZWDevices(tid, devices)
	}
	if len(tid) == 11 && tidSuffix(tid) == "AW" {
		if strings.Contains(strings.Split(device.Str(KeyModel), "/")[0], "ETX-2I-10G") {
			return s.radClassifiers(ctx, device, net, cid)
		}
	}

	flows, err := s.exec(ctx, tid, "rad_flows", nil)
	if err != nil {
		net[KeyError] = "Device communication: rad_flows"
		return net
	}
	net[KeyVendor] = device.Str(KeyVendor)
	devType := s.deviceType(ctx, tid)
	var ports gjson.Result
	if len(cpes) > 0 {
		if ports, err = s.exec(ctx, tid, "seefa-cd-list-ports.json", nil); err != nil {
			net[KeyError] = "Device communication: seefa-cd-list-ports.json"
			return net
		}
	}

	vlanNumber, _ := strconv.Atoi(vlan)
	for _, flow := range flows.Array() {
		name := flow.Get("properties.name").String()
		inbound := strings.Contains(strings.ToUpper(name), "IN")
		if !(inbound && strings.Contains(name, cid)) && !(inbound && vlan != "" && strings.Contains(name, vlan) && vlanNumber >= 1000) {
			continue
		}
		ingress := flow.Get("properties.ingressPortId").String()
		if strings.Contains(devType, "ETX-203") {
			net[KeyModel] = "ETX203AX/2SFP/2UTP2SFP"
			net[KeyPortID] = "ETH PORT " + ingress
			break
		}
		if t := strings.ToUpper(devType); t == "ETX-2I" || t == "ETX-220" {
			net[KeyModel] = device.Str(KeyModel)
			if strings.Contains(device.Str(KeyPortID), ingress) {
				net[KeyPortID] = device.Str(KeyPortID)
			}
			break
		}
	}

	for _, p := range ports.Array() {
		name := p.Get("details.name").String()
		for _, cpe := range cpes {
			if name != "" && strings.Contains(name, cpe.TID()) && !strings.Contains(net.Str(KeyPortID), p.Get("id").String()) {
				net[KeyDescription] = false
			}
		}
	}
	return net
}

// radClassifiers reads an ETX-2I-10G aggregation device, which carries the circuit in its classifiers.
func (s *RASource) radClassifiers(ctx context.Context, device Device, net Device, cid string) Device {
	tid, vlan := device.TID(), device.Str(KeyVLAN)
	classifiers, err := s.exec(ctx, tid, "rad_classifiers", nil)
	if err != nil {
		net[KeyError] = "Device communication: rad_classifiers"
		return net
	}
	net[KeyVendor] = device.Str(KeyVendor)
	devType := s.deviceType(ctx, tid)
	if devType == "" || !strings.Contains(device.Str(KeyModel), strings.ToUpper(devType)) || !classifiers.IsArray() {
		return net
	}

	matched := func() {
		net[KeyVLAN] = vlan
		net[KeyModel] = device.Str(KeyModel)
		net[KeyPortID] = device.Str(KeyPortID)
		net[KeyDescription] = device[KeyDescription]
	}
	for _, c := range classifiers.Array() {
		label := c.Get("label").String()
		if !strings.Contains(label, cid) || !strings.Contains(label, "IN") {
			continue
		}
		match := c.Get("properties.match")
		if match.IsArray() {
			for _, m := range match.Array() {
				if strings.Contains(m.String(), vlan) {
					matched()
					return net
				}
			}
		} else if match.Type == gjson.String && strings.Contains(match.String(), vlan) {
			matched()
		}
	}
	return net
}
