// Copyright Contributors to the Open Cluster Management project

package topology

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func loadCircuitDetails(t *testing.T) CircuitDetails {
	data, err := os.ReadFile("testdata/circuitDetails.json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	return New(v)
}

func Test_ParseNodePort(t *testing.T) {
	node, port, err := ParseNodePort("CNI2TXR37ZW-ETHERNET-1")
	assert.Nil(t, err)
	assert.Equal(t, "CNI2TXR37ZW", node)
	assert.Equal(t, "ETHERNET-1", port)

	node, port, err = ParseNodePort("ABC-DEF1234-GE-0/0/1")
	assert.Nil(t, err)
	assert.Equal(t, "ABC-DEF1234", node)
	assert.Equal(t, "GE-0/0/1", port)
}

func Test_ParseNodePort_invalid(t *testing.T) {
	_, _, err := ParseNodePort("SHORT-GE-0/0/1")
	assert.EqualError(t, err, "Granite | Incorrect Data - Node Name: name: SHORT")

	_, _, err = ParseNodePort("CNI2TXR37Z!-GE-0/0/1")
	assert.NotNil(t, err)
}

func Test_BuildDeviceDict(t *testing.T) {
	spokes, err := BuildDeviceDict(loadCircuitDetails(t))

	assert.Nil(t, err)
	assert.Len(t, spokes, 2)

	pe := spokes[0]["AUSDTXIR3CW"]
	assert.Equal(t, "PE", pe.Get("Role"))
	assert.Equal(t, []string{"GE-0/0/3", "GE-0/0/4"}, pe.Ports)
	assert.Equal(t, map[string][]string{"AE17": {"GE-0/0/3", "GE-0/0/4"}}, pe.Lags)
	// LAG members are replaced by the LAG in links.
	assert.Equal(t, []string{"AUSDTXIR3CW-AE17_CNI2TXR37ZW-ETHERNET-1"}, pe.Links)
	assert.Equal(t, []string{"AUSDTXIR3CW-AE17_CNI2TXR37ZW-ETHERNET-1"}, spokes[0]["CNI2TXR37ZW"].Links)

	assert.Equal(t, []string{"AUSDTXIR2CW-GE-0/0/8_CNI3TXR36ZW-ETHERNET-1"}, spokes[1]["CNI3TXR36ZW"].Links)
}

func Test_BuildDeviceDict_bareTopology(t *testing.T) {
	cd := loadCircuitDetails(t)
	spokes, err := BuildDeviceDict(New(cd.Topology()))

	assert.Nil(t, err)
	assert.Len(t, spokes, 2)
}

func Test_DeviceList(t *testing.T) {
	spokes, _ := BuildDeviceDict(loadCircuitDetails(t))

	assert.Equal(t, []string{"AUSDTXIR2CW", "AUSDTXIR3CW", "CNI2TXR37ZW", "CNI3TXR36ZW"}, DeviceList(spokes))
}

func Test_UniqueLinks(t *testing.T) {
	links := UniqueLinks([]string{"A-1_B-2", "B-2_A-1", "C-1_D-1"})

	assert.Equal(t, []string{"A-1_B-2", "C-1_D-1"}, links)
}

func Test_NeighborFromLink(t *testing.T) {
	neighbor, err := NeighborFromLink("CNI2TXR37ZW", "AUSDTXIR3CW-AE17_CNI2TXR37ZW-ETHERNET-1")
	assert.Nil(t, err)
	assert.Equal(t, "AUSDTXIR3CW", neighbor)

	_, err = NeighborFromLink("CNI3TXR36ZW", "AUSDTXIR3CW-AE17_CNI2TXR37ZW-ETHERNET-1")
	assert.EqualError(t, err, "Granite | Incorrect Data - Neighbor Device Not Linked: device: CNI3TXR36ZW link: AUSDTXIR3CW-AE17_CNI2TXR37ZW-ETHERNET-1")
}

func Test_NodeProperty(t *testing.T) {
	cd := loadCircuitDetails(t)

	value, ok := NodeProperty(cd, "CNI2TXR37ZW", "Model", AnySpoke)
	assert.True(t, ok)
	assert.Equal(t, "ETX203AX/2SFP/2UTP2SFP", value)

	_, ok = NodeProperty(cd, "CNI2TXR37ZW", "Model", 1)
	assert.False(t, ok)

	_, ok = NodeProperty(cd, "CNI2TXR37ZW", "Address", AnySpoke)
	assert.False(t, ok)
}

func Test_NodeRole_and_FQDN(t *testing.T) {
	cd := loadCircuitDetails(t)

	role, err := NodeRole(cd, "AUSDTXIR3CW")
	assert.Nil(t, err)
	assert.Equal(t, "PE", role)

	fqdn, err := NodeFQDN(cd, "CNI3TXR36ZW")
	assert.Nil(t, err)
	assert.Equal(t, "CNI3TXR36ZW.DEV.CHTRSE.COM", fqdn)

	_, err = NodeRole(cd, "MISSINGNODE")
	assert.EqualError(t, err, "Granite | Missing Data - Device Role: device: MISSINGNODE")

	_, err = NodeManagementIP(cd, "AUSDTXIR2CW")
	assert.EqualError(t, err, "Granite | Missing Data - IP Address: device: AUSDTXIR2CW")
}

func Test_NodeAttributes(t *testing.T) {
	cd := loadCircuitDetails(t)

	vendor, err := NodeVendor(cd, "CNI2TXR37ZW")
	assert.Nil(t, err)
	assert.Equal(t, "RAD", vendor)

	host, err := NodeHostname(cd, "AUSDTXIR2CW")
	assert.Nil(t, err)
	assert.Equal(t, "AUSDTXIR2CW", host)

	ip, err := NodeManagementIP(cd, "CNI3TXR36ZW")
	assert.Nil(t, err)
	assert.Equal(t, "71.42.150.173", ip)

	_, err = NodeFQDN(cd, "MISSINGNODE")
	assert.EqualError(t, err, "Granite | Missing Data - FQDN: device: MISSINGNODE")

	_, err = NodeVendor(cd, "MISSINGNODE")
	assert.EqualError(t, err, "Granite | Missing Data - Vendor: device: MISSINGNODE")
}

func Test_DevicesByPropertyValue(t *testing.T) {
	cd := loadCircuitDetails(t)

	cpes := DevicesByPropertyValue(cd, "Role", "CPE", false)
	assert.Len(t, cpes, 2)
	assert.Equal(t, "CNI2TXR37ZW", cpes[0]["Host Name"])

	others := DevicesByPropertyValue(cd, "Role", "CPE", true)
	assert.Len(t, others, 2)
	assert.Equal(t, "PE", others[0]["Role"])
}

func Test_PENodes(t *testing.T) {
	pes, err := PENodes(loadCircuitDetails(t))

	assert.Nil(t, err)
	assert.Equal(t, []string{"AUSDTXIR2CW.DEV.CHTRSE.COM", "AUSDTXIR3CW.DEV.CHTRSE.COM"}, pes)
}

func Test_PortRole(t *testing.T) {
	cd := loadCircuitDetails(t)

	role, err := PortRole(cd, "CNI2TXR37ZW-ETHERNET-3")
	assert.Nil(t, err)
	assert.Equal(t, "UNI", role)

	// A LAG takes the role of its members.
	role, err = PortRole(cd, "AUSDTXIR3CW-AE17")
	assert.Nil(t, err)
	assert.Equal(t, "INNI", role)

	_, err = PortRole(cd, "AUSDTXIR3CW-AE99")
	assert.EqualError(t, err, "Granite | Missing Data - Port Role: device: AUSDTXIR3CW")
}

func Test_SpokeForHostPort(t *testing.T) {
	cd := loadCircuitDetails(t)

	spoke, err := SpokeForHostPort(cd, "CNI3TXR36ZW", "")
	assert.Nil(t, err)
	assert.Len(t, spoke.Topology(), 1)

	spoke, err = SpokeForHostPort(cd, "CNI3TXR36ZW", "ETHERNET-2")
	assert.Nil(t, err)
	assert.Len(t, spoke.Topology(), 1)

	_, err = SpokeForHostPort(cd, "NOTINSPOKES", "")
	assert.EqualError(t, err, "Granite | Missing Data - Required Topologies Data: device: NOTINSPOKES port: ")
}

func Test_ServiceHelpers(t *testing.T) {
	cd := loadCircuitDetails(t)

	serviceType, err := ServiceType(cd)
	assert.Nil(t, err)
	assert.Equal(t, "EP-UNI", serviceType)

	label, err := ServiceUserLabel(cd)
	assert.Nil(t, err)
	assert.Equal(t, "EP-UNI:ELINE:TEST ACCT DEV@11921 N MOPAC EXPY 78759:51.L1XX.010124..TWCC:", label)

	data, _ := ServiceData(cd)
	pbit, err := DeterminePbit(data, "CPE")
	assert.Nil(t, err)
	assert.Equal(t, "5", pbit)

	cos, err := DeterminePbit(data, "PE")
	assert.Nil(t, err)
	assert.Equal(t, "SERVICEPORT_GOLD_COS", cos)
}

func Test_KBPS(t *testing.T) {
	kbps, err := KBPS("100M")
	assert.Nil(t, err)
	assert.Equal(t, 100000, kbps)

	kbps, err = KBPS("1G")
	assert.Nil(t, err)
	assert.Equal(t, 1000000, kbps)

	kbps, err = KBPS("512")
	assert.Nil(t, err)
	assert.Equal(t, 512, kbps)

	_, err = KBPS("unlimited")
	assert.NotNil(t, err)
}

func Test_BandwidthIntAndUnits(t *testing.T) {
	rate, unit := BandwidthIntAndUnits("10G")
	assert.Equal(t, 10, rate)
	assert.Equal(t, "g", unit)

	rate, unit = BandwidthIntAndUnits("")
	assert.Equal(t, 1, rate)
	assert.Equal(t, "m", unit)

	rate, unit = BandwidthIntAndUnits("256k")
	assert.Equal(t, 256, rate)
	assert.Equal(t, "k", unit)
}
