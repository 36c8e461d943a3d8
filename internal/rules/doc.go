// Package rules implements the security rule engine: a pure mapping from
// fetched cluster resources to findings, organized into six independently
// evaluable detection categories.
//
// # Contract
//
// Evaluate(category, set) is deterministic for a given input and has no
// side effects. Each category is self-contained so a bug or a missing
// listing in one category cannot suppress the findings of another; the
// scheduler wraps each call and treats a panic as that category failing
// with zero findings.
//
// # Categories
//
//	container_security       privileged, root user, dangerous capabilities,
//	                         host namespaces, hostPath mounts
//	resource_limits          missing CPU/memory limits, one finding per kind
//	serviceaccount_security  automounted tokens, default ServiceAccount
//	network_exposure         NodePort/LoadBalancer exposure, namespaces
//	                         without NetworkPolicies
//	rbac_wildcards           wildcard verbs/resources/apiGroups in
//	                         ClusterRoles
//	image_security           mutable tags, untrusted registries
//
// # Defaults
//
// Absent or partial security configuration is treated as the least-secure
// state (fail-closed): a container without a securityContext is flagged
// as running as root, and an unset automountServiceAccountToken counts as
// automounted, matching the platform's own defaults.
package rules
