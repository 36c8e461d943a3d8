package rules

import (
	"strings"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// Category identifies one of the six detection categories. Categories are
// evaluated independently so a failure in one cannot suppress another.
type Category string

const (
	CategoryContainerSecurity Category = "container_security"
	CategoryResourceLimits    Category = "resource_limits"
	CategoryServiceAccount    Category = "serviceaccount_security"
	CategoryNetworkExposure   Category = "network_exposure"
	CategoryRBACWildcards     Category = "rbac_wildcards"
	CategoryImageSecurity     Category = "image_security"
)

// Categories returns all detection categories in their fixed evaluation
// order. Findings are attached to nodes in this order, so the order is
// part of the deterministic output contract.
func Categories() []Category {
	return []Category{
		CategoryContainerSecurity,
		CategoryResourceLimits,
		CategoryServiceAccount,
		CategoryNetworkExposure,
		CategoryRBACWildcards,
		CategoryImageSecurity,
	}
}

// RequiredKinds returns the resource listings a category evaluates. When
// any of them failed to fetch, the category must be skipped for the pass:
// evaluating over a partial set would turn the transport failure into
// false findings (an absent NetworkPolicy listing is not the same as a
// namespace without policies).
func RequiredKinds(category Category) []string {
	switch category {
	case CategoryContainerSecurity, CategoryResourceLimits, CategoryServiceAccount, CategoryImageSecurity:
		return []string{fetcher.KindPods}
	case CategoryNetworkExposure:
		return []string{fetcher.KindNamespaces, fetcher.KindServices, fetcher.KindNetworkPolicies}
	case CategoryRBACWildcards:
		return []string{fetcher.KindNamespaces, fetcher.KindClusterRoles}
	}
	return nil
}

// FindingsByNode maps node IDs to the ordered findings detected on them.
type FindingsByNode map[string][]types.Finding

// Merge appends all findings from other, preserving insertion order.
func (f FindingsByNode) Merge(other FindingsByNode) {
	for id, findings := range other {
		f[id] = append(f[id], findings...)
	}
}

// Config tunes which resources the engine skips and trusts.
type Config struct {
	// SystemNamespaces are excluded from security scans to avoid false
	// positives on platform-managed workloads.
	SystemNamespaces []string

	// TrustedRegistries are image registry hosts (exact or domain-suffix
	// match) that do not trigger untrusted_registry findings.
	TrustedRegistries []string

	// ExcludedRoles are ClusterRole names skipped by the RBAC scan.
	// Roles prefixed with "system:" are always skipped.
	ExcludedRoles []string
}

// DefaultConfig returns the built-in skip lists and registry allow-list.
func DefaultConfig() Config {
	return Config{
		SystemNamespaces: []string{
			"kube-system",
			"kube-public",
			"kube-node-lease",
			"local-path-storage",
		},
		TrustedRegistries: []string{
			"docker.io",
			"gcr.io",
			"ghcr.io",
			"registry.k8s.io",
			"k8s.gcr.io",
			"quay.io",
			"mcr.microsoft.com",
			"public.ecr.aws",
		},
		ExcludedRoles: []string{
			"cluster-admin",
			"admin",
			"edit",
			"view",
		},
	}
}

// Engine evaluates security rules over fetched resources. All evaluation
// methods are pure: deterministic for a given input, no side effects.
type Engine struct {
	systemNamespaces  map[string]bool
	trustedRegistries []string
	excludedRoles     map[string]bool
}

// NewEngine creates an Engine from the given config.
func NewEngine(cfg Config) *Engine {
	sysNS := make(map[string]bool, len(cfg.SystemNamespaces))
	for _, ns := range cfg.SystemNamespaces {
		sysNS[ns] = true
	}
	excluded := make(map[string]bool, len(cfg.ExcludedRoles))
	for _, r := range cfg.ExcludedRoles {
		excluded[r] = true
	}
	return &Engine{
		systemNamespaces:  sysNS,
		trustedRegistries: cfg.TrustedRegistries,
		excludedRoles:     excluded,
	}
}

// Evaluate runs one category over the resource set and returns the
// findings keyed by owning node ID.
func (e *Engine) Evaluate(category Category, set *fetcher.ResourceSet) FindingsByNode {
	switch category {
	case CategoryContainerSecurity:
		return e.containerSecurity(set)
	case CategoryResourceLimits:
		return e.resourceLimits(set)
	case CategoryServiceAccount:
		return e.serviceAccountSecurity(set)
	case CategoryNetworkExposure:
		return e.networkExposure(set)
	case CategoryRBACWildcards:
		return e.rbacWildcards(set)
	case CategoryImageSecurity:
		return e.imageSecurity(set)
	}
	return FindingsByNode{}
}

// isSystemNamespace reports whether the namespace is on the skip list.
func (e *Engine) isSystemNamespace(ns string) bool {
	return e.systemNamespaces[ns]
}

// isExcludedRole reports whether the ClusterRole is skipped by the RBAC
// scan. Built-in system: roles are expected to be powerful.
func (e *Engine) isExcludedRole(name string) bool {
	return e.excludedRoles[name] || strings.HasPrefix(name, "system:")
}
