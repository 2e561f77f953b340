// Copyright Contributors to the Open Cluster Management project

package bpo

// Domain holding the built-in products.
const BuiltInDomainID = "built-in"

// Resource types used by the reconciler workflows.
const (
	CircuitDetailsCollectorType  = "charter.resourceTypes.CircuitDetailsCollector"
	CircuitDetailsType           = "charter.resourceTypes.CircuitDetails"
	ServiceDeviceValidatorType   = "charter.resourceTypes.ServiceDeviceValidator"
	ServiceDeviceOnboarderType   = "charter.resourceTypes.ServiceDeviceOnboarder"
	NetworkServiceType           = "charter.resourceTypes.NetworkService"
	NetworkServiceUpdateType     = "charter.resourceTypes.NetworkServiceUpdate"
	NetworkServiceDeleteType     = "charter.resourceTypes.NetworkServiceDelete"
	CPEActivatorType             = "charter.resourceTypes.cpeActivator"
	ServiceMapperType            = "charter.resourceTypes.ServiceMapper"
	DisconnectMapperType         = "charter.resourceTypes.DisconnectMapper"
	MultiLegServiceType          = "charter.resourceTypes.multiLegCircuit"
	ComplianceType               = "charter.resourceTypes.Compliance"
	ProvisioningType             = "charter.resourceTypes.Provisioning"
	SmokeTestType                = "charter.resourceTypes.SmokeTest"
	DeviceResetType              = "charter.resourceTypes.DeviceReset"
	ManagedServicesActivatorType = "charter.resourceTypes.ManagedServicesActivator"
	SLMServiceFinderType         = "charter.resourceTypes.slmServiceFinder"
	NetworkFunctionType          = "tosca.resourceTypes.NetworkFunction"
	TraceLogType                 = "tosca.resourceTypes.TraceLog"
	PacketBandwidthProfileType   = "tosca.resourceTypes.PacketBandwidthProfile"
	FREType                      = "tosca.resourceTypes.FRE"
	TPEType                      = "tosca.resourceTypes.TPE"
	RaResourcePluginType         = "tosca.resourceTypes.RaResourcePlugin"
	SLMActivatorType             = "charter.resourceTypes.slmConfigurator"
	DisconnectReconcilerType     = "charter.resourceTypes.DisconnectReconciler"
)

// OrchTraceProducts are the resource types that own an orchestration trace log.
var OrchTraceProducts = map[string]bool{
	CPEActivatorType:         true,
	ServiceMapperType:        true,
	DisconnectMapperType:     true,
	NetworkServiceUpdateType: true,
	NetworkServiceDeleteType: true,
	MultiLegServiceType:      true,
	ComplianceType:           true,
	ProvisioningType:         true,
	SmokeTestType:            true,
	DeviceResetType:          true,
}

// Orchestration states.
const (
	StateRequested  = "requested"
	StatePending    = "pending"
	StateScheduled  = "scheduled"
	StateExecuting  = "executing"
	StateActive     = "active"
	StateActivating = "activating"
	StateFailed     = "failed"
	StateTerminated = "terminated"
	StateUnknown    = "unknown"
)

// NoneExecutedStates are the states of a resource whose operation has not run yet.
var NoneExecutedStates = []string{StateRequested, StatePending, StateScheduled, StateExecuting}
