// Copyright Contributors to the Open Cluster Management project

package fortigate

import (
	"context"
	"fmt"
	"strings"
)

// Address types.
const (
	AddressIPMask    = "ipmask"
	AddressIPRange   = "iprange"
	AddressFQDN      = "fqdn"
	AddressGeography = "geography"
	AddressMAC       = "mac"
)

// Address is a firewall address. Rename, when set, renames the existing entry Name.
type Address struct {
	Name                string
	Rename              string
	Type                string
	Subnet              string
	StartIP             string
	EndIP               string
	FQDN                string
	Country             string
	MACs                []string
	AssociatedInterface string
	AllowRouting        bool
	Comment             string
}

func enable(b bool) string {
	if b {
		return "enable"
	}
	return "disable"
}

func names(values []string) []Entry {
	list := make([]Entry, 0, len(values))
	for _, v := range values {
		list = append(list, Entry{"name": v})
	}
	return list
}

func (a Address) entry() (Entry, error) {
	e := Entry{
		"allow-routing":        enable(a.AllowRouting),
		"associated-interface": a.AssociatedInterface,
		"color":                0,
		"comment":              a.Comment,
		"name":                 a.Name,
		"visibility":           "enable",
	}
	if a.Type == "" {
		a.Type = AddressIPMask
	}
	e["type"] = a.Type
	switch a.Type {
	case AddressIPMask:
		e["subnet"] = a.Subnet
		if a.Subnet == "" {
			e["subnet"] = "0.0.0.0 0.0.0.0"
		}
	case AddressIPRange:
		e["start-ip"] = a.StartIP
		e["end-ip"] = a.EndIP
	case AddressFQDN:
		e["fqdn"] = a.FQDN
	case AddressGeography:
		e["country"] = a.Country
	case AddressMAC:
		macs := make([]Entry, 0, len(a.MACs))
		for _, m := range a.MACs {
			macs = append(macs, Entry{"macaddr": m})
		}
		e["macaddr"] = macs
	default:
		return nil, fmt.Errorf("invalid address type: %s", a.Type)
	}
	if a.Rename != "" {
		e["name"] = a.Rename
	}
	return e, nil
}

// ConfigAddress adds or updates a firewall address.
func (c *Client) ConfigAddress(ctx context.Context, a Address, vdom string) (interface{}, error) {
	e, err := a.entry()
	if err != nil {
		return nil, err
	}
	return c.Config(ctx, "firewall_addresses", a.Name, e, vdom)
}

// DeleteAddress removes a firewall address.
func (c *Client) DeleteAddress(ctx context.Context, name, vdom string) (interface{}, error) {
	return c.Delete(ctx, "firewall_addresses", name, vdom)
}

// ConfigAddressGroup adds or updates the address group name with the given members.
func (c *Client) ConfigAddressGroup(ctx context.Context, name, rename string, members []string, comment, vdom string) (interface{}, error) {
	e := Entry{
		"allow-routing": "disable",
		"color":         0,
		"comment":       comment,
		"member":        names(members),
		"name":          name,
		"type":          "default",
	}
	if rename != "" {
		e["name"] = rename
	}
	return c.Config(ctx, "firewall_addrgrps", name, e, vdom)
}

// DeleteAddressGroup removes an address group.
func (c *Client) DeleteAddressGroup(ctx context.Context, name, vdom string) (interface{}, error) {
	return c.Delete(ctx, "firewall_addrgrps", name, vdom)
}

// Policy is a firewall policy. PolicyID 0 lets the device pick the id.
type Policy struct {
	PolicyID      int
	Name          string
	SrcIntf       []string
	DstIntf       []string
	SrcAddr       []string
	DstAddr       []string
	Service       []string
	Action        string
	NAT           bool
	PoolName      []string
	Schedule      string
	Groups        []string
	Users         []string
	TrafficShaper string
	Comments      string
}

func (p Policy) entry() Entry {
	action := p.Action
	if action == "" {
		action = "deny"
	}
	service := p.Service
	if len(service) == 0 {
		service = []string{"ALL"}
	}
	schedule := p.Schedule
	if schedule == "" {
		schedule = "always"
	}
	e := Entry{
		"action":          action,
		"dstaddr":         names(p.DstAddr),
		"dstintf":         names(p.DstIntf),
		"ippool":          enable(len(p.PoolName) > 0),
		"logtraffic":      "utm",
		"nat":             enable(p.NAT),
		"policyid":        p.PolicyID,
		"schedule":        schedule,
		"service":         names(service),
		"srcaddr":         names(p.SrcAddr),
		"srcintf":         names(p.SrcIntf),
		"ssl-ssh-profile": "no-inspection",
		"status":          "enable",
		"utm-status":      "disable",
	}
	if action != "deny" {
		e["inspection-mode"] = "flow"
	}
	optional := map[string]string{
		"name":           p.Name,
		"comments":       p.Comments,
		"traffic-shaper": p.TrafficShaper,
	}
	for k, v := range optional {
		if v != "" {
			e[k] = v
		}
	}
	if len(p.PoolName) > 0 {
		e["poolname"] = names(p.PoolName)
	}
	if len(p.Groups) > 0 {
		e["groups"] = names(p.Groups)
	}
	if len(p.Users) > 0 {
		e["users"] = names(p.Users)
	}
	return e
}

// ConfigPolicy adds or updates a firewall policy.
func (c *Client) ConfigPolicy(ctx context.Context, p Policy, vdom string) (interface{}, error) {
	key := ""
	if p.PolicyID != 0 {
		key = fmt.Sprint(p.PolicyID)
	}
	return c.Config(ctx, "firewall_policies", key, p.entry(), vdom)
}

// DeletePolicy removes a firewall policy.
func (c *Client) DeletePolicy(ctx context.Context, policyID int, vdom string) (interface{}, error) {
	return c.Delete(ctx, "firewall_policies", fmt.Sprint(policyID), vdom)
}

// Interface holds the commonly set attributes of a system interface.
type Interface struct {
	Name        string
	VDOM        string
	Type        string
	IP          string
	AllowAccess []string
	Alias       string
	Role        string
	VLANID      int
	Parent      string
	Description string
	Up          bool
}

func (i Interface) entry() Entry {
	status := "down"
	if i.Up {
		status = "up"
	}
	e := Entry{
		"allowaccess": strings.Join(i.AllowAccess, " "),
		"name":        i.Name,
		"status":      status,
		"vdom":        i.VDOM,
	}
	optional := map[string]string{
		"alias":       i.Alias,
		"description": i.Description,
		"interface":   i.Parent,
		"ip":          i.IP,
		"role":        i.Role,
		"type":        i.Type,
	}
	for k, v := range optional {
		if v != "" {
			e[k] = v
		}
	}
	if i.VLANID != 0 {
		e["vlanid"] = i.VLANID
	}
	return e
}

// ConfigInterface adds or updates a system interface.
func (c *Client) ConfigInterface(ctx context.Context, i Interface) (interface{}, error) {
	return c.Config(ctx, "system_interfaces", i.Name, i.entry(), i.VDOM)
}

// DeleteInterface removes a system interface.
func (c *Client) DeleteInterface(ctx context.Context, name, vdom string) (interface{}, error) {
	return c.Delete(ctx, "system_interfaces", name, vdom)
}

// StaticRoute is a router static entry identified by SeqNum.
type StaticRoute struct {
	SeqNum    int
	Device    string
	Gateway   string
	Dst       string
	DstAddr   string
	Distance  int
	Priority  int
	Blackhole bool
	VRF       int
	Comment   string
}

func (r StaticRoute) entry() Entry {
	distance := r.Distance
	if distance == 0 {
		distance = 10
	}
	priority := r.Priority
	if priority == 0 {
		priority = 1
	}
	e := Entry{
		"bfd":                 "disable",
		"blackhole":           enable(r.Blackhole),
		"comment":             r.Comment,
		"distance":            distance,
		"link-monitor-exempt": "disable",
		"priority":            priority,
		"seq-num":             r.SeqNum,
		"status":              "enable",
		"weight":              0,
	}
	if r.DstAddr != "" {
		e["dstaddr"] = r.DstAddr
	} else if r.Dst != "" {
		e["dst"] = r.Dst
	} else {
		e["dst"] = "0.0.0.0 0.0.0.0"
	}
	if r.Blackhole {
		e["vrf"] = r.VRF
		return e
	}
	gateway := r.Gateway
	if gateway == "" {
		gateway = "0.0.0.0"
	}
	e["device"] = r.Device
	e["gateway"] = gateway
	e["dynamic-gateway"] = "disable"
	return e
}

// ConfigStaticRoute adds or updates a static route. A blackhole route carries no device or gateway.
func (c *Client) ConfigStaticRoute(ctx context.Context, r StaticRoute, vdom string) (interface{}, error) {
	key := ""
	if r.SeqNum != 0 {
		key = fmt.Sprint(r.SeqNum)
	}
	return c.Config(ctx, "router_static", key, r.entry(), vdom)
}

// DeleteStaticRoute removes a static route.
func (c *Client) DeleteStaticRoute(ctx context.Context, seqNum int, vdom string) (interface{}, error) {
	return c.Delete(ctx, "router_static", fmt.Sprint(seqNum), vdom)
}

// ConfigSystemGlobal updates the given attributes of the global settings.
func (c *Client) ConfigSystemGlobal(ctx context.Context, settings Entry) (interface{}, error) {
	return c.Config(ctx, "system_global", "", settings, "")
}

// ConfigDNS sets the DNS servers of the device.
func (c *Client) ConfigDNS(ctx context.Context, primary, secondary string, domains []string) (interface{}, error) {
	domain := make([]Entry, 0, len(domains))
	for _, d := range domains {
		domain = append(domain, Entry{"domain": d})
	}
	return c.Config(ctx, "system_dns", "", Entry{
		"primary":   primary,
		"secondary": secondary,
		"domain":    domain,
	}, "")
}

// Admin is a system administrator. A RemoteGroup enables remote authentication.
type Admin struct {
	Name        string
	Password    string
	AccProfile  string
	VDOMs       []string
	RemoteGroup string
	Comments    string
}

func (a Admin) entry() Entry {
	vdoms := a.VDOMs
	if len(vdoms) == 0 {
		vdoms = []string{"root"}
	}
	e := Entry{
		"accprofile": a.AccProfile,
		"comments":   a.Comments,
		"name":       a.Name,
		"password":   a.Password,
		"vdom":       names(vdoms),
	}
	if a.RemoteGroup != "" {
		e["remote-auth"] = "enable"
		e["remote-group"] = a.RemoteGroup
		e["accprofile-override"] = "disable"
	}
	if a.AccProfile == "super_admin" {
		e["allow-remove-admin-session"] = "enable"
	}
	return e
}

// ConfigAdmin adds or updates an administrator.
func (c *Client) ConfigAdmin(ctx context.Context, a Admin) (interface{}, error) {
	return c.Config(ctx, "system_admins", a.Name, a.entry(), "")
}

// DeleteAdmin removes an administrator.
func (c *Client) DeleteAdmin(ctx context.Context, name string) (interface{}, error) {
	return c.Delete(ctx, "system_admins", name, "")
}

const defaultSNMPEvents = "cpu-high mem-low log-full intf-ip vpn-tun-up vpn-tun-down ha-switch ha-hb-failure " +
	"ips-signature ips-anomaly av-virus av-oversize av-pattern av-fragmented fm-if-change bgp-established " +
	"bgp-backward-transition ha-member-up ha-member-down ent-conf-change av-conserve av-bypass " +
	"av-oversize-passed av-oversize-blocked ips-pkg-update ips-fail-open power-supply-failure faz-disconnect " +
	"wc-ap-up wc-ap-down fswctl-session-up fswctl-session-down load-balance-real-server-down per-cpu-high dhcp " +
	"ospf-nbr-state-change ospf-virtnbr-state-change"

// SNMPCommunity is an SNMP v2c community. Hosts are "ip netmask" strings.
type SNMPCommunity struct {
	ID     int
	Name   string
	Hosts  []string
	Events string
	Traps  bool
}

func (s SNMPCommunity) entry() Entry {
	events := s.Events
	if events == "" {
		events = defaultSNMPEvents
	}
	hosts := make([]Entry, 0, len(s.Hosts))
	for i, h := range s.Hosts {
		hosts = append(hosts, Entry{"id": i + 1, "ip": h})
	}
	return Entry{
		"events":           events,
		"hosts":            hosts,
		"hosts6":           []Entry{},
		"id":               s.ID,
		"name":             s.Name,
		"query-v1-port":    161,
		"query-v1-status":  "disable",
		"query-v2c-port":   161,
		"query-v2c-status": "enable",
		"status":           "enable",
		"trap-v1-status":   "disable",
		"trap-v2c-lport":   162,
		"trap-v2c-rport":   162,
		"trap-v2c-status":  enable(s.Traps),
	}
}

// ConfigSNMPCommunity adds or updates an SNMP community.
func (c *Client) ConfigSNMPCommunity(ctx context.Context, s SNMPCommunity) (interface{}, error) {
	return c.Config(ctx, "system_snmp_community", fmt.Sprint(s.ID), s.entry(), "")
}

// VIP is a static NAT virtual IP. Port forwarding is enabled when both ports are set.
type VIP struct {
	Name       string
	ExtIntf    string
	ExtIP      string
	MappedIP   string
	ExtPort    int
	MappedPort int
	Protocol   string
	Comment    string
}

// VIPName is the name given to a VIP without one: extip_mappedip, followed by _PROTOport when
// a protocol and external port are set.
func (v VIP) VIPName() string {
	if v.Name != "" {
		return v.Name
	}
	name := v.ExtIP + "_" + v.MappedIP
	if v.ExtPort != 0 && v.Protocol != "" {
		name += fmt.Sprintf("_%s%d", strings.ToUpper(v.Protocol), v.ExtPort)
	}
	return name
}

func portRange(p int) string {
	if p == 0 {
		return "0-65535"
	}
	return fmt.Sprint(p)
}

func (v VIP) entry() Entry {
	e := Entry{
		"arp-reply":        "enable",
		"color":            0,
		"comment":          v.Comment,
		"extintf":          v.ExtIntf,
		"extip":            v.ExtIP,
		"extport":          portRange(v.ExtPort),
		"mappedip":         []Entry{{"range": v.MappedIP}},
		"mappedport":       portRange(v.MappedPort),
		"name":             v.VIPName(),
		"nat-source-vip":   "disable",
		"portforward":      enable(v.ExtPort != 0 && v.MappedPort != 0),
		"portmapping-type": "1-to-1",
		"type":             "static-nat",
	}
	if v.Protocol != "" {
		e["protocol"] = v.Protocol
	}
	return e
}

// ConfigVIP adds or updates a virtual IP.
func (c *Client) ConfigVIP(ctx context.Context, v VIP, vdom string) (interface{}, error) {
	return c.Config(ctx, "firewall_vips", v.VIPName(), v.entry(), vdom)
}
