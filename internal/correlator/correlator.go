package correlator

import (
	"sort"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// Correlator derives typed edges between the resources of one scan pass.
type Correlator struct {
	logger *zap.Logger
}

// New creates a Correlator.
func New(logger *zap.Logger) *Correlator {
	return &Correlator{logger: logger.Named("correlator")}
}

// Derive computes all edges for the resource set. Both endpoints of every
// returned edge resolve to a resource present in the set, so a graph built
// from the same set never contains dangling references even when some
// listings failed. The result is sorted by (source, target, type).
func (c *Correlator) Derive(set *fetcher.ResourceSet) []types.Edge {
	present := presentIDs(set)

	var edges []types.Edge
	add := func(source, target string, kind types.EdgeType) {
		if !present[source] || !present[target] {
			return
		}
		edges = append(edges, types.Edge{Source: source, Target: target, Type: kind})
	}

	// Containment follows the resource's own namespace field.
	for i := range set.Pods {
		pod := &set.Pods[i]
		add(types.NamespaceNodeID(pod.Namespace), types.PodNodeID(pod.Namespace, pod.Name), types.EdgeContains)
	}
	for i := range set.Services {
		svc := &set.Services[i]
		add(types.NamespaceNodeID(svc.Namespace), types.ServiceNodeID(svc.Namespace, svc.Name), types.EdgeContains)
	}

	// Scheduling: unscheduled pods yield no edge.
	for i := range set.Pods {
		pod := &set.Pods[i]
		if pod.Spec.NodeName == "" {
			continue
		}
		add(types.PodNodeID(pod.Namespace, pod.Name), types.ClusterNodeID(pod.Spec.NodeName), types.EdgeRunsOn)
	}

	// Exposure: selector subset match within the service's namespace. An
	// empty selector matches nothing (headless/manual-endpoint services).
	for i := range set.Services {
		svc := &set.Services[i]
		var selector labels.Selector
		if len(svc.Spec.Selector) > 0 {
			selector = labels.SelectorFromSet(svc.Spec.Selector)
		}
		if selector == nil {
			continue
		}
		for j := range set.Pods {
			pod := &set.Pods[j]
			if pod.Namespace != svc.Namespace {
				continue
			}
			if selector.Matches(labels.Set(pod.Labels)) {
				add(types.ServiceNodeID(svc.Namespace, svc.Name), types.PodNodeID(pod.Namespace, pod.Name), types.EdgeExposes)
			}
		}
	}

	// Routing: one edge per ingress rule path with a named backend service.
	for i := range set.Ingresses {
		ing := &set.Ingresses[i]
		ingID := types.IngressNodeID(ing.Namespace, ing.Name)
		for j := range ing.Spec.Rules {
			rule := &ing.Spec.Rules[j]
			if rule.HTTP == nil {
				continue
			}
			for k := range rule.HTTP.Paths {
				backend := rule.HTTP.Paths[k].Backend.Service
				if backend == nil || backend.Name == "" {
					continue
				}
				add(ingID, types.ServiceNodeID(ing.Namespace, backend.Name), types.EdgeRoutesTo)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Type < edges[j].Type
	})

	c.logger.Debug("Derived edges", zap.Int("count", len(edges)))
	return edges
}

// presentIDs indexes the node IDs that the set will produce.
func presentIDs(set *fetcher.ResourceSet) map[string]bool {
	ids := make(map[string]bool)
	for i := range set.Namespaces {
		ids[types.NamespaceNodeID(set.Namespaces[i].Name)] = true
	}
	for i := range set.Nodes {
		ids[types.ClusterNodeID(set.Nodes[i].Name)] = true
	}
	for i := range set.Pods {
		ids[types.PodNodeID(set.Pods[i].Namespace, set.Pods[i].Name)] = true
	}
	for i := range set.Services {
		ids[types.ServiceNodeID(set.Services[i].Namespace, set.Services[i].Name)] = true
	}
	for i := range set.Ingresses {
		ids[types.IngressNodeID(set.Ingresses[i].Namespace, set.Ingresses[i].Name)] = true
	}
	return ids
}
