package rules

import (
	"fmt"

	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// rbacWildcards detects ClusterRole rules with wildcard permissions.
// ClusterRoles are cluster-scoped and have no node of their own, so the
// findings are attached to every non-system namespace node.
//
// A rule with all three axes wildcarded produces exactly one finding at
// critical severity; otherwise each wildcarded axis produces one finding
// at high severity.
func (e *Engine) rbacWildcards(set *fetcher.ResourceSet) FindingsByNode {
	var findings []types.Finding

	for i := range set.ClusterRoles {
		role := &set.ClusterRoles[i]
		if e.isExcludedRole(role.Name) {
			continue
		}
		for j := range role.Rules {
			findings = append(findings, ruleWildcardFindings(role.Name, &role.Rules[j])...)
		}
	}

	result := FindingsByNode{}
	if len(findings) == 0 {
		return result
	}

	for i := range set.Namespaces {
		ns := &set.Namespaces[i]
		if e.isSystemNamespace(ns.Name) {
			continue
		}
		nodeID := types.NamespaceNodeID(ns.Name)
		result[nodeID] = append(result[nodeID], findings...)
	}

	return result
}

// ruleWildcardFindings evaluates a single policy rule.
func ruleWildcardFindings(roleName string, rule *rbacv1.PolicyRule) []types.Finding {
	wildVerbs := containsWildcard(rule.Verbs)
	wildResources := containsWildcard(rule.Resources)
	wildGroups := containsWildcard(rule.APIGroups)

	if wildVerbs && wildResources && wildGroups {
		return []types.Finding{{
			Type:        types.FindingRBACWildcard,
			Severity:    types.SeverityCritical,
			Description: fmt.Sprintf("ClusterRole %s grants full cluster-admin equivalent access", roleName),
			RoleName:    roleName,
			Verbs:       rule.Verbs,
			Resources:   rule.Resources,
			APIGroups:   rule.APIGroups,
		}}
	}

	var findings []types.Finding
	if wildVerbs {
		findings = append(findings, types.Finding{
			Type:        types.FindingRBACWildcard,
			Severity:    types.SeverityHigh,
			Description: fmt.Sprintf("ClusterRole %s allows any verb", roleName),
			RoleName:    roleName,
			Verbs:       rule.Verbs,
			Resources:   rule.Resources,
		})
	}
	if wildResources {
		findings = append(findings, types.Finding{
			Type:        types.FindingRBACWildcard,
			Severity:    types.SeverityHigh,
			Description: fmt.Sprintf("ClusterRole %s applies to all resources", roleName),
			RoleName:    roleName,
			Verbs:       rule.Verbs,
			Resources:   rule.Resources,
		})
	}
	if wildGroups {
		findings = append(findings, types.Finding{
			Type:        types.FindingRBACWildcard,
			Severity:    types.SeverityHigh,
			Description: fmt.Sprintf("ClusterRole %s applies to all API groups", roleName),
			RoleName:    roleName,
			APIGroups:   rule.APIGroups,
		})
	}
	return findings
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
