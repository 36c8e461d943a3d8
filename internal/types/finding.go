package types

// Severity ranks how urgently a finding needs attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FindingType tags one detection rule. The set is closed on the producer
// side; consumers must treat unknown tags as opaque rather than fail.
type FindingType string

const (
	// Container security
	FindingPrivilegedContainer   FindingType = "privileged_container"
	FindingRunningAsRoot         FindingType = "running_as_root"
	FindingDangerousCapabilities FindingType = "dangerous_capabilities"
	FindingHostNetwork           FindingType = "host_network"
	FindingHostPID               FindingType = "host_pid"
	FindingHostIPC               FindingType = "host_ipc"
	FindingHostPathMount         FindingType = "host_path_mount"

	// Resource limits
	FindingMissingCPULimit    FindingType = "missing_cpu_limit"
	FindingMissingMemoryLimit FindingType = "missing_memory_limit"

	// ServiceAccount security
	FindingAutomountedSAToken    FindingType = "automounted_sa_token"
	FindingDefaultServiceAccount FindingType = "default_serviceaccount"

	// Network exposure
	FindingNodePortService          FindingType = "nodeport_service"
	FindingUnrestrictedLoadBalancer FindingType = "unrestricted_loadbalancer"
	FindingLoadBalancerService      FindingType = "loadbalancer_service"
	FindingNoNetworkPolicy          FindingType = "no_network_policy"

	// RBAC
	FindingRBACWildcard FindingType = "rbac_wildcard"

	// Image security
	FindingMutableImageTag   FindingType = "mutable_image_tag"
	FindingUntrustedRegistry FindingType = "untrusted_registry"
)

// Finding is a single detected security issue attached to one node.
// Type discriminates the rule; the optional fields carry rule-specific
// evidence and are omitted when empty.
type Finding struct {
	Type     FindingType `json:"type"`
	Severity Severity    `json:"severity"`

	Description string `json:"description,omitempty"`

	// Container-scoped evidence
	Container     string   `json:"container,omitempty"`
	Image         string   `json:"image,omitempty"`
	Registry      string   `json:"registry,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
	Path          string   `json:"path,omitempty"`
	MissingLimits []string `json:"missing_limits,omitempty"`

	// ServiceAccount evidence
	ServiceAccount string `json:"service_account,omitempty"`

	// Network evidence
	Ports        []int32  `json:"ports,omitempty"`
	SourceRanges []string `json:"source_ranges,omitempty"`

	// RBAC evidence
	RoleName  string   `json:"role_name,omitempty"`
	Verbs     []string `json:"verbs,omitempty"`
	Resources []string `json:"resources,omitempty"`
	APIGroups []string `json:"api_groups,omitempty"`
}
