package rules

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// resourceLimits detects containers without CPU or memory limits, one
// finding per missing limit kind.
func (e *Engine) resourceLimits(set *fetcher.ResourceSet) FindingsByNode {
	result := FindingsByNode{}

	for i := range set.Pods {
		pod := &set.Pods[i]
		if e.isSystemNamespace(pod.Namespace) {
			continue
		}
		nodeID := types.PodNodeID(pod.Namespace, pod.Name)

		for j := range pod.Spec.Containers {
			container := &pod.Spec.Containers[j]
			limits := container.Resources.Limits

			if _, ok := limits[corev1.ResourceCPU]; !ok {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:          types.FindingMissingCPULimit,
					Severity:      types.SeverityHigh,
					Description:   "Container has no CPU limit",
					Container:     container.Name,
					Image:         container.Image,
					MissingLimits: []string{"cpu"},
				})
			}
			if _, ok := limits[corev1.ResourceMemory]; !ok {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:          types.FindingMissingMemoryLimit,
					Severity:      types.SeverityHigh,
					Description:   "Container has no memory limit",
					Container:     container.Name,
					Image:         container.Image,
					MissingLimits: []string{"memory"},
				})
			}
		}
	}

	return result
}
