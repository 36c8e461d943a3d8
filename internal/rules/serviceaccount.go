package rules

import (
	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// serviceAccountSecurity detects automounted ServiceAccount tokens and
// pods running under the default ServiceAccount. Automounting defaults
// to true when unset, so absence of the field is flagged (fail-closed).
func (e *Engine) serviceAccountSecurity(set *fetcher.ResourceSet) FindingsByNode {
	result := FindingsByNode{}

	for i := range set.Pods {
		pod := &set.Pods[i]
		if e.isSystemNamespace(pod.Namespace) {
			continue
		}
		nodeID := types.PodNodeID(pod.Namespace, pod.Name)

		saName := pod.Spec.ServiceAccountName
		if saName == "" {
			saName = "default"
		}

		automount := pod.Spec.AutomountServiceAccountToken
		if automount == nil || *automount {
			result[nodeID] = append(result[nodeID], types.Finding{
				Type:           types.FindingAutomountedSAToken,
				Severity:       types.SeverityMedium,
				Description:    "ServiceAccount token automatically mounted into the pod",
				ServiceAccount: saName,
			})
		}

		if saName == "default" {
			result[nodeID] = append(result[nodeID], types.Finding{
				Type:           types.FindingDefaultServiceAccount,
				Severity:       types.SeverityMedium,
				Description:    "Pod uses the default ServiceAccount instead of a dedicated one",
				ServiceAccount: saName,
			})
		}
	}

	return result
}
