package types

// Kind identifies a topology node variant. It is the JSON discriminant
// field ("type") consumed by the UI's graph renderer.
type Kind string

const (
	KindNamespace Kind = "namespace"
	KindNode      Kind = "node"
	KindPod       Kind = "pod"
	KindService   Kind = "service"
	KindIngress   Kind = "ingress"
)

// Node is the common surface of all topology node variants.
type Node interface {
	GetID() string
	GetKind() Kind
	GetFindings() []Finding
}

// NodeMeta carries the fields shared by every node variant. Variants embed
// it so the common fields are inlined in the JSON object.
type NodeMeta struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     Kind      `json:"type"`
	Status   string    `json:"status"`
	Findings []Finding `json:"findings"`
}

func (m NodeMeta) GetID() string          { return m.ID }
func (m NodeMeta) GetKind() Kind          { return m.Type }
func (m NodeMeta) GetFindings() []Finding { return m.Findings }

// NamespaceNode represents a Kubernetes namespace.
type NamespaceNode struct {
	NodeMeta `json:",inline"`

	CreationTimestamp string            `json:"creation_timestamp,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
	Annotations       map[string]string `json:"annotations,omitempty"`
	ResourceQuotas    []QuotaInfo       `json:"resource_quotas,omitempty"`
	LimitRanges       []LimitRangeInfo  `json:"limit_ranges,omitempty"`
	ResourceCount     ResourceCount     `json:"resource_count"`
}

// QuotaInfo summarizes one ResourceQuota bound to a namespace.
type QuotaInfo struct {
	Name string            `json:"name"`
	Hard map[string]string `json:"hard,omitempty"`
	Used map[string]string `json:"used,omitempty"`
}

// LimitRangeInfo summarizes one LimitRange bound to a namespace.
type LimitRangeInfo struct {
	Name   string           `json:"name"`
	Limits []LimitRangeItem `json:"limits,omitempty"`
}

// LimitRangeItem is one limit entry of a LimitRange.
type LimitRangeItem struct {
	Type           string            `json:"type"`
	Default        map[string]string `json:"default,omitempty"`
	DefaultRequest map[string]string `json:"default_request,omitempty"`
	Max            map[string]string `json:"max,omitempty"`
	Min            map[string]string `json:"min,omitempty"`
}

// ResourceCount counts selected resources inside a namespace.
type ResourceCount struct {
	Pods       int `json:"pods"`
	Services   int `json:"services"`
	ConfigMaps int `json:"configmaps"`
	Secrets    int `json:"secrets"`
}

// ClusterNode represents a Kubernetes worker or control-plane node.
type ClusterNode struct {
	NodeMeta `json:",inline"`

	Capacity    ResourceList      `json:"capacity"`
	Allocatable ResourceList      `json:"allocatable"`
	Conditions  []Condition       `json:"conditions,omitempty"`
	NodeInfo    NodeSystemInfo    `json:"node_info"`
	Addresses   map[string]string `json:"addresses,omitempty"`
	Taints      []Taint           `json:"taints,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Usage       *NodeUsage        `json:"usage,omitempty"`
}

// NodeUsage is the node's live resource consumption from metrics-server.
// Absent when no metrics API is available in the cluster.
type NodeUsage struct {
	CPU       string `json:"cpu,omitempty"`
	Memory    string `json:"memory,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Window    string `json:"window,omitempty"`
}

// ResourceList holds the capacity/allocatable quantities of a cluster node.
type ResourceList struct {
	CPU              string `json:"cpu,omitempty"`
	Memory           string `json:"memory,omitempty"`
	Pods             string `json:"pods,omitempty"`
	EphemeralStorage string `json:"ephemeral_storage,omitempty"`
}

// Condition mirrors a Kubernetes node or pod condition.
type Condition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// NodeSystemInfo describes the node's OS and runtime versions.
type NodeSystemInfo struct {
	OSImage          string `json:"os_image,omitempty"`
	KernelVersion    string `json:"kernel_version,omitempty"`
	ContainerRuntime string `json:"container_runtime,omitempty"`
	KubeletVersion   string `json:"kubelet_version,omitempty"`
	Architecture     string `json:"architecture,omitempty"`
}

// Taint mirrors a Kubernetes node taint.
type Taint struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect"`
}

// PodNode represents a pod, including the container details the security
// rules evaluate so the UI can show evidence next to each finding.
type PodNode struct {
	NodeMeta `json:",inline"`

	Namespace         string            `json:"namespace"`
	NodeName          string            `json:"node_name,omitempty"`
	PodIP             string            `json:"pod_ip,omitempty"`
	HostIP            string            `json:"host_ip,omitempty"`
	QOSClass          string            `json:"qos_class,omitempty"`
	RestartPolicy     string            `json:"restart_policy,omitempty"`
	ServiceAccount    string            `json:"service_account,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
	Containers        []ContainerSpec   `json:"containers"`
	ContainerStatuses []ContainerStatus `json:"container_statuses,omitempty"`
	Conditions        []Condition       `json:"conditions,omitempty"`
	Owner             *OwnerInfo        `json:"owner,omitempty"`
	Volumes           []VolumeInfo      `json:"volumes,omitempty"`
	RecentEvents      []EventInfo       `json:"recent_events,omitempty"`
	Usage             *PodUsage         `json:"usage,omitempty"`
	CreationTimestamp string            `json:"creation_timestamp,omitempty"`
}

// EventInfo is one Kubernetes event involving a pod.
type EventInfo struct {
	Type           string `json:"type"`
	Reason         string `json:"reason,omitempty"`
	Message        string `json:"message,omitempty"`
	Count          int32  `json:"count,omitempty"`
	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`
	Source         string `json:"source,omitempty"`
}

// PodUsage is the pod's live per-container resource consumption from
// metrics-server. Absent when no metrics API is available.
type PodUsage struct {
	Timestamp  string           `json:"timestamp,omitempty"`
	Window     string           `json:"window,omitempty"`
	Containers []ContainerUsage `json:"containers,omitempty"`
}

// ContainerUsage is one container's live CPU and memory consumption.
type ContainerUsage struct {
	Name   string `json:"name"`
	CPU    string `json:"cpu,omitempty"`
	Memory string `json:"memory,omitempty"`
}

// ContainerSpec is the declared shape of one container in a pod.
type ContainerSpec struct {
	Name            string               `json:"name"`
	Image           string               `json:"image"`
	ImagePullPolicy string               `json:"image_pull_policy,omitempty"`
	Ports           []ContainerPort      `json:"ports,omitempty"`
	Resources       ResourceRequirements `json:"resources"`
}

// ContainerPort is a single exposed container port.
type ContainerPort struct {
	Name          string `json:"name,omitempty"`
	ContainerPort int32  `json:"container_port"`
	Protocol      string `json:"protocol,omitempty"`
}

// ResourceRequirements holds a container's requests and limits.
type ResourceRequirements struct {
	Requests map[string]string `json:"requests,omitempty"`
	Limits   map[string]string `json:"limits,omitempty"`
}

// ContainerStatus is the observed state of one container.
type ContainerStatus struct {
	Name         string `json:"name"`
	Ready        bool   `json:"ready"`
	RestartCount int32  `json:"restart_count"`
	Image        string `json:"image,omitempty"`
	State        string `json:"state,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// OwnerInfo identifies the workload controller that owns a pod.
type OwnerInfo struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// VolumeInfo describes one pod volume. Path is set for hostPath volumes.
type VolumeInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// ServiceNode represents a service. Status carries the service type
// (ClusterIP, NodePort, LoadBalancer) the way the UI expects it.
type ServiceNode struct {
	NodeMeta `json:",inline"`

	Namespace    string            `json:"namespace"`
	ClusterIP    string            `json:"cluster_ip,omitempty"`
	ExternalIPs  []string          `json:"external_ips,omitempty"`
	Ports        []ServicePort     `json:"ports,omitempty"`
	Selector     map[string]string `json:"selector,omitempty"`
	Endpoints    EndpointSummary   `json:"endpoints"`
	Labels       map[string]string `json:"labels,omitempty"`
	LoadBalancer []string          `json:"load_balancer_ingress,omitempty"`
}

// ServicePort is one declared service port.
type ServicePort struct {
	Name       string `json:"name,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	Port       int32  `json:"port"`
	TargetPort string `json:"target_port,omitempty"`
	NodePort   int32  `json:"node_port,omitempty"`
}

// EndpointSummary counts the pods backing a service.
type EndpointSummary struct {
	Ready     int               `json:"ready"`
	NotReady  int               `json:"not_ready"`
	Addresses []EndpointAddress `json:"addresses,omitempty"`
}

// EndpointAddress is one ready endpoint behind a service.
type EndpointAddress struct {
	IP         string `json:"ip"`
	NodeName   string `json:"node_name,omitempty"`
	TargetKind string `json:"target_kind,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

// IngressNode represents an ingress and its routing rules.
type IngressNode struct {
	NodeMeta `json:",inline"`

	Namespace    string        `json:"namespace"`
	IngressClass string        `json:"ingress_class,omitempty"`
	Hosts        []string      `json:"hosts,omitempty"`
	TLS          bool          `json:"tls"`
	Rules        []IngressRule `json:"rules,omitempty"`
}

// IngressRule is one host/path route to a backend service.
type IngressRule struct {
	Host    string `json:"host,omitempty"`
	Path    string `json:"path,omitempty"`
	Service string `json:"service,omitempty"`
	Port    int32  `json:"port,omitempty"`
}
