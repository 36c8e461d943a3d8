package rules

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// networkExposure detects externally exposed services and namespaces
// without any NetworkPolicy.
func (e *Engine) networkExposure(set *fetcher.ResourceSet) FindingsByNode {
	result := FindingsByNode{}

	for i := range set.Services {
		svc := &set.Services[i]
		if e.isSystemNamespace(svc.Namespace) {
			continue
		}
		nodeID := types.ServiceNodeID(svc.Namespace, svc.Name)

		switch svc.Spec.Type {
		case corev1.ServiceTypeNodePort:
			result[nodeID] = append(result[nodeID], types.Finding{
				Type:        types.FindingNodePortService,
				Severity:    types.SeverityHigh,
				Description: "Service exposed on every cluster node via NodePort",
				Ports:       nodePorts(svc),
			})
		case corev1.ServiceTypeLoadBalancer:
			if len(svc.Spec.LoadBalancerSourceRanges) == 0 {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:        types.FindingUnrestrictedLoadBalancer,
					Severity:    types.SeverityCritical,
					Description: "LoadBalancer service accessible from any source IP",
				})
			} else {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:         types.FindingLoadBalancerService,
					Severity:     types.SeverityInfo,
					Description:  "LoadBalancer service with restricted source ranges",
					SourceRanges: svc.Spec.LoadBalancerSourceRanges,
				})
			}
		}
	}

	// Namespaces with zero NetworkPolicy objects allow unrestricted
	// pod-to-pod traffic.
	nsWithPolicies := make(map[string]bool)
	for i := range set.NetworkPolicies {
		nsWithPolicies[set.NetworkPolicies[i].Namespace] = true
	}

	for i := range set.Namespaces {
		ns := &set.Namespaces[i]
		if e.isSystemNamespace(ns.Name) || nsWithPolicies[ns.Name] {
			continue
		}
		nodeID := types.NamespaceNodeID(ns.Name)
		result[nodeID] = append(result[nodeID], types.Finding{
			Type:        types.FindingNoNetworkPolicy,
			Severity:    types.SeverityMedium,
			Description: "Namespace has no NetworkPolicy, pod-to-pod traffic is unrestricted",
		})
	}

	return result
}

// nodePorts collects the allocated node ports of a NodePort service.
func nodePorts(svc *corev1.Service) []int32 {
	var ports []int32
	for _, p := range svc.Spec.Ports {
		if p.NodePort != 0 {
			ports = append(ports, p.NodePort)
		}
	}
	return ports
}
