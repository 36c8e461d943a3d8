package types

import "fmt"

// Node IDs are derived deterministically from the resource's kind,
// namespace, and name. The kind prefixes keep the scheme injective:
// two distinct resources never collide, and re-deriving the ID for the
// same resource is stable across scan passes.

// NamespaceNodeID returns the ID for a namespace node.
func NamespaceNodeID(name string) string {
	return "ns-" + name
}

// ClusterNodeID returns the ID for a cluster node.
func ClusterNodeID(name string) string {
	return "node-" + name
}

// PodNodeID returns the ID for a pod node.
func PodNodeID(namespace, name string) string {
	return fmt.Sprintf("pod-%s-%s", namespace, name)
}

// ServiceNodeID returns the ID for a service node.
func ServiceNodeID(namespace, name string) string {
	return fmt.Sprintf("svc-%s-%s", namespace, name)
}

// IngressNodeID returns the ID for an ingress node.
func IngressNodeID(namespace, name string) string {
	return fmt.Sprintf("ing-%s-%s", namespace, name)
}
