package graph

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// Assembler merges fetched resources, findings, and edges into immutable
// Graph values.
type Assembler struct {
	logger *zap.Logger
}

// New creates an Assembler.
func New(logger *zap.Logger) *Assembler {
	return &Assembler{logger: logger.Named("graph")}
}

// Assemble builds one Graph from the resource set. Findings are keyed by
// node ID and attached in the order given. The returned Graph is complete
// when err is nil: unique node IDs, every edge endpoint resolving to a
// node. A non-nil error indicates a programming fault upstream, not a
// cluster condition.
func (a *Assembler) Assemble(set *fetcher.ResourceSet, findings map[string][]types.Finding, edges []types.Edge, now time.Time) (*types.Graph, error) {
	nodes := buildNodes(set, findings)

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.GetID()] {
			return nil, fmt.Errorf("duplicate node ID %q", n.GetID())
		}
		seen[n.GetID()] = true
	}
	for _, e := range edges {
		if !seen[e.Source] {
			return nil, fmt.Errorf("edge %s -> %s: unknown source node", e.Source, e.Target)
		}
		if !seen[e.Target] {
			return nil, fmt.Errorf("edge %s -> %s: unknown target node", e.Source, e.Target)
		}
	}

	if edges == nil {
		edges = []types.Edge{}
	}
	g := &types.Graph{
		Timestamp: now.UTC(),
		Nodes:     nodes,
		Links:     edges,
		Stats:     computeStats(nodes, edges),
	}
	a.logger.Debug("Assembled graph",
		zap.Int("nodes", g.Stats.TotalNodes),
		zap.Int("links", g.Stats.TotalLinks),
	)
	return g, nil
}

// computeStats derives the aggregate counts from nodes and edges.
func computeStats(nodes []types.Node, edges []types.Edge) types.Stats {
	stats := types.Stats{
		TotalNodes: len(nodes),
		TotalLinks: len(edges),
		NodeTypes:  make(map[types.Kind]int),
		LinkTypes:  make(map[types.EdgeType]int),
	}
	for _, n := range nodes {
		stats.NodeTypes[n.GetKind()]++
	}
	for _, e := range edges {
		stats.LinkTypes[e.Type]++
	}
	return stats
}

// buildNodes converts every fetched resource into its node variant, in
// kind order (namespaces, cluster nodes, pods, services, ingresses). The
// set is already sorted per kind, so output order is deterministic.
func buildNodes(set *fetcher.ResourceSet, findings map[string][]types.Finding) []types.Node {
	nodes := make([]types.Node, 0,
		len(set.Namespaces)+len(set.Nodes)+len(set.Pods)+len(set.Services)+len(set.Ingresses))

	for i := range set.Namespaces {
		nodes = append(nodes, buildNamespaceNode(&set.Namespaces[i], set, findings))
	}
	for i := range set.Nodes {
		nodes = append(nodes, buildClusterNode(&set.Nodes[i], set, findings))
	}
	for i := range set.Pods {
		nodes = append(nodes, buildPodNode(&set.Pods[i], set, findings))
	}
	for i := range set.Services {
		nodes = append(nodes, buildServiceNode(&set.Services[i], set, findings))
	}
	for i := range set.Ingresses {
		nodes = append(nodes, buildIngressNode(&set.Ingresses[i], findings))
	}
	return nodes
}

// nodeFindings returns the findings for a node ID, never nil so the JSON
// field renders as an empty array.
func nodeFindings(findings map[string][]types.Finding, id string) []types.Finding {
	if f, ok := findings[id]; ok && f != nil {
		return f
	}
	return []types.Finding{}
}

func buildNamespaceNode(ns *corev1.Namespace, set *fetcher.ResourceSet, findings map[string][]types.Finding) types.NamespaceNode {
	id := types.NamespaceNodeID(ns.Name)
	node := types.NamespaceNode{
		NodeMeta: types.NodeMeta{
			ID:       id,
			Label:    ns.Name,
			Type:     types.KindNamespace,
			Status:   string(ns.Status.Phase),
			Findings: nodeFindings(findings, id),
		},
		Labels:        ns.Labels,
		Annotations:   ns.Annotations,
		ResourceCount: countResources(ns.Name, set),
	}
	if !ns.CreationTimestamp.IsZero() {
		node.CreationTimestamp = ns.CreationTimestamp.UTC().Format(time.RFC3339)
	}
	for i := range set.ResourceQuotas {
		rq := &set.ResourceQuotas[i]
		if rq.Namespace != ns.Name {
			continue
		}
		node.ResourceQuotas = append(node.ResourceQuotas, types.QuotaInfo{
			Name: rq.Name,
			Hard: quantityMap(rq.Status.Hard),
			Used: quantityMap(rq.Status.Used),
		})
	}
	for i := range set.LimitRanges {
		lr := &set.LimitRanges[i]
		if lr.Namespace != ns.Name {
			continue
		}
		node.LimitRanges = append(node.LimitRanges, limitRangeInfo(lr))
	}
	return node
}

func limitRangeInfo(lr *corev1.LimitRange) types.LimitRangeInfo {
	info := types.LimitRangeInfo{Name: lr.Name}
	for _, item := range lr.Spec.Limits {
		info.Limits = append(info.Limits, types.LimitRangeItem{
			Type:           string(item.Type),
			Default:        quantityMap(item.Default),
			DefaultRequest: quantityMap(item.DefaultRequest),
			Max:            quantityMap(item.Max),
			Min:            quantityMap(item.Min),
		})
	}
	return info
}

// countResources tallies the namespace's pods, services, configmaps, and
// secrets from the same pass.
func countResources(namespace string, set *fetcher.ResourceSet) types.ResourceCount {
	var count types.ResourceCount
	for i := range set.Pods {
		if set.Pods[i].Namespace == namespace {
			count.Pods++
		}
	}
	for i := range set.Services {
		if set.Services[i].Namespace == namespace {
			count.Services++
		}
	}
	for i := range set.ConfigMaps {
		if set.ConfigMaps[i].Namespace == namespace {
			count.ConfigMaps++
		}
	}
	for i := range set.Secrets {
		if set.Secrets[i].Namespace == namespace {
			count.Secrets++
		}
	}
	return count
}

func buildClusterNode(n *corev1.Node, set *fetcher.ResourceSet, findings map[string][]types.Finding) types.ClusterNode {
	id := types.ClusterNodeID(n.Name)
	node := types.ClusterNode{
		NodeMeta: types.NodeMeta{
			ID:       id,
			Label:    n.Name,
			Type:     types.KindNode,
			Status:   nodeReadyStatus(n),
			Findings: nodeFindings(findings, id),
		},
		Capacity:    resourceList(n.Status.Capacity),
		Allocatable: resourceList(n.Status.Allocatable),
		NodeInfo: types.NodeSystemInfo{
			OSImage:          n.Status.NodeInfo.OSImage,
			KernelVersion:    n.Status.NodeInfo.KernelVersion,
			ContainerRuntime: n.Status.NodeInfo.ContainerRuntimeVersion,
			KubeletVersion:   n.Status.NodeInfo.KubeletVersion,
			Architecture:     n.Status.NodeInfo.Architecture,
		},
		Labels: n.Labels,
	}
	for _, c := range n.Status.Conditions {
		node.Conditions = append(node.Conditions, types.Condition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
	}
	if len(n.Status.Addresses) > 0 {
		node.Addresses = make(map[string]string, len(n.Status.Addresses))
		for _, addr := range n.Status.Addresses {
			node.Addresses[string(addr.Type)] = addr.Address
		}
	}
	for _, t := range n.Spec.Taints {
		node.Taints = append(node.Taints, types.Taint{
			Key:    t.Key,
			Value:  t.Value,
			Effect: string(t.Effect),
		})
	}
	for i := range set.NodeMetrics {
		m := &set.NodeMetrics[i]
		if m.Name != n.Name {
			continue
		}
		node.Usage = &types.NodeUsage{Window: m.Window.Duration.String()}
		if !m.Timestamp.IsZero() {
			node.Usage.Timestamp = m.Timestamp.UTC().Format(time.RFC3339)
		}
		if q, ok := m.Usage[corev1.ResourceCPU]; ok {
			node.Usage.CPU = q.String()
		}
		if q, ok := m.Usage[corev1.ResourceMemory]; ok {
			node.Usage.Memory = q.String()
		}
	}
	return node
}

// nodeReadyStatus reduces the node's conditions to Ready or NotReady.
func nodeReadyStatus(n *corev1.Node) string {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady && c.Status == corev1.ConditionTrue {
			return "Ready"
		}
	}
	return "NotReady"
}

func buildPodNode(pod *corev1.Pod, set *fetcher.ResourceSet, findings map[string][]types.Finding) types.PodNode {
	id := types.PodNodeID(pod.Namespace, pod.Name)
	sa := pod.Spec.ServiceAccountName
	if sa == "" {
		sa = "default"
	}
	node := types.PodNode{
		NodeMeta: types.NodeMeta{
			ID:       id,
			Label:    pod.Name,
			Type:     types.KindPod,
			Status:   string(pod.Status.Phase),
			Findings: nodeFindings(findings, id),
		},
		Namespace:      pod.Namespace,
		NodeName:       pod.Spec.NodeName,
		PodIP:          pod.Status.PodIP,
		HostIP:         pod.Status.HostIP,
		QOSClass:       string(pod.Status.QOSClass),
		RestartPolicy:  string(pod.Spec.RestartPolicy),
		ServiceAccount: sa,
		Labels:         pod.Labels,
		Containers:     containerSpecs(pod.Spec.Containers),
	}
	if !pod.CreationTimestamp.IsZero() {
		node.CreationTimestamp = pod.CreationTimestamp.UTC().Format(time.RFC3339)
	}
	for _, cs := range pod.Status.ContainerStatuses {
		node.ContainerStatuses = append(node.ContainerStatuses, containerStatus(cs))
	}
	for _, c := range pod.Status.Conditions {
		node.Conditions = append(node.Conditions, types.Condition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
	}
	if len(pod.OwnerReferences) > 0 {
		node.Owner = &types.OwnerInfo{
			Kind: pod.OwnerReferences[0].Kind,
			Name: pod.OwnerReferences[0].Name,
		}
	}
	for i := range pod.Spec.Volumes {
		node.Volumes = append(node.Volumes, volumeInfo(&pod.Spec.Volumes[i]))
	}
	node.RecentEvents = podEvents(pod, set)
	node.Usage = podUsage(pod, set)
	return node
}

// podEvents collects the events involving this pod from the same pass.
func podEvents(pod *corev1.Pod, set *fetcher.ResourceSet) []types.EventInfo {
	var events []types.EventInfo
	for i := range set.Events {
		ev := &set.Events[i]
		if ev.InvolvedObject.Kind != "Pod" ||
			ev.InvolvedObject.Namespace != pod.Namespace ||
			ev.InvolvedObject.Name != pod.Name {
			continue
		}
		info := types.EventInfo{
			Type:    ev.Type,
			Reason:  ev.Reason,
			Message: ev.Message,
			Count:   ev.Count,
			Source:  ev.Source.Component,
		}
		if !ev.FirstTimestamp.IsZero() {
			info.FirstTimestamp = ev.FirstTimestamp.UTC().Format(time.RFC3339)
		}
		if !ev.LastTimestamp.IsZero() {
			info.LastTimestamp = ev.LastTimestamp.UTC().Format(time.RFC3339)
		}
		events = append(events, info)
	}
	return events
}

// podUsage attaches live per-container consumption when metrics-server
// reported this pod.
func podUsage(pod *corev1.Pod, set *fetcher.ResourceSet) *types.PodUsage {
	for i := range set.PodMetrics {
		m := &set.PodMetrics[i]
		if m.Namespace != pod.Namespace || m.Name != pod.Name {
			continue
		}
		usage := &types.PodUsage{Window: m.Window.Duration.String()}
		if !m.Timestamp.IsZero() {
			usage.Timestamp = m.Timestamp.UTC().Format(time.RFC3339)
		}
		for j := range m.Containers {
			c := &m.Containers[j]
			cu := types.ContainerUsage{Name: c.Name}
			if q, ok := c.Usage[corev1.ResourceCPU]; ok {
				cu.CPU = q.String()
			}
			if q, ok := c.Usage[corev1.ResourceMemory]; ok {
				cu.Memory = q.String()
			}
			usage.Containers = append(usage.Containers, cu)
		}
		return usage
	}
	return nil
}

func containerSpecs(containers []corev1.Container) []types.ContainerSpec {
	specs := make([]types.ContainerSpec, 0, len(containers))
	for i := range containers {
		c := &containers[i]
		spec := types.ContainerSpec{
			Name:            c.Name,
			Image:           c.Image,
			ImagePullPolicy: string(c.ImagePullPolicy),
			Resources: types.ResourceRequirements{
				Requests: quantityMap(c.Resources.Requests),
				Limits:   quantityMap(c.Resources.Limits),
			},
		}
		for _, p := range c.Ports {
			spec.Ports = append(spec.Ports, types.ContainerPort{
				Name:          p.Name,
				ContainerPort: p.ContainerPort,
				Protocol:      string(p.Protocol),
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

func containerStatus(cs corev1.ContainerStatus) types.ContainerStatus {
	status := types.ContainerStatus{
		Name:         cs.Name,
		Ready:        cs.Ready,
		RestartCount: cs.RestartCount,
		Image:        cs.Image,
	}
	switch {
	case cs.State.Running != nil:
		status.State = "running"
	case cs.State.Waiting != nil:
		status.State = "waiting"
		status.Reason = cs.State.Waiting.Reason
	case cs.State.Terminated != nil:
		status.State = "terminated"
		status.Reason = cs.State.Terminated.Reason
	}
	return status
}

func volumeInfo(vol *corev1.Volume) types.VolumeInfo {
	info := types.VolumeInfo{Name: vol.Name, Type: "other"}
	switch {
	case vol.HostPath != nil:
		info.Type = "hostPath"
		info.Path = vol.HostPath.Path
	case vol.ConfigMap != nil:
		info.Type = "configMap"
	case vol.Secret != nil:
		info.Type = "secret"
	case vol.EmptyDir != nil:
		info.Type = "emptyDir"
	case vol.PersistentVolumeClaim != nil:
		info.Type = "persistentVolumeClaim"
	case vol.Projected != nil:
		info.Type = "projected"
	}
	return info
}

func buildServiceNode(svc *corev1.Service, set *fetcher.ResourceSet, findings map[string][]types.Finding) types.ServiceNode {
	id := types.ServiceNodeID(svc.Namespace, svc.Name)
	node := types.ServiceNode{
		NodeMeta: types.NodeMeta{
			ID:       id,
			Label:    svc.Name,
			Type:     types.KindService,
			Status:   string(svc.Spec.Type),
			Findings: nodeFindings(findings, id),
		},
		Namespace:   svc.Namespace,
		ClusterIP:   svc.Spec.ClusterIP,
		ExternalIPs: svc.Spec.ExternalIPs,
		Selector:    svc.Spec.Selector,
		Endpoints:   endpointSummary(svc, set),
		Labels:      svc.Labels,
	}
	for _, p := range svc.Spec.Ports {
		node.Ports = append(node.Ports, types.ServicePort{
			Name:       p.Name,
			Protocol:   string(p.Protocol),
			Port:       p.Port,
			TargetPort: p.TargetPort.String(),
			NodePort:   p.NodePort,
		})
	}
	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.IP != "" {
			node.LoadBalancer = append(node.LoadBalancer, ing.IP)
		} else if ing.Hostname != "" {
			node.LoadBalancer = append(node.LoadBalancer, ing.Hostname)
		}
	}
	return node
}

// endpointSummary counts ready and not-ready addresses behind a service
// from the Endpoints listing of the same pass.
func endpointSummary(svc *corev1.Service, set *fetcher.ResourceSet) types.EndpointSummary {
	var summary types.EndpointSummary
	for i := range set.Endpoints {
		ep := &set.Endpoints[i]
		if ep.Namespace != svc.Namespace || ep.Name != svc.Name {
			continue
		}
		for j := range ep.Subsets {
			subset := &ep.Subsets[j]
			summary.NotReady += len(subset.NotReadyAddresses)
			for _, addr := range subset.Addresses {
				summary.Ready++
				address := types.EndpointAddress{IP: addr.IP}
				if addr.NodeName != nil {
					address.NodeName = *addr.NodeName
				}
				if addr.TargetRef != nil {
					address.TargetKind = addr.TargetRef.Kind
					address.TargetName = addr.TargetRef.Name
				}
				summary.Addresses = append(summary.Addresses, address)
			}
		}
	}
	return summary
}

func buildIngressNode(ing *netv1.Ingress, findings map[string][]types.Finding) types.IngressNode {
	id := types.IngressNodeID(ing.Namespace, ing.Name)
	node := types.IngressNode{
		NodeMeta: types.NodeMeta{
			ID:       id,
			Label:    ing.Name,
			Type:     types.KindIngress,
			Status:   ingressStatus(ing),
			Findings: nodeFindings(findings, id),
		},
		Namespace: ing.Namespace,
		TLS:       len(ing.Spec.TLS) > 0,
	}
	if ing.Spec.IngressClassName != nil {
		node.IngressClass = *ing.Spec.IngressClassName
	}
	for i := range ing.Spec.Rules {
		rule := &ing.Spec.Rules[i]
		if rule.Host != "" {
			node.Hosts = append(node.Hosts, rule.Host)
		}
		if rule.HTTP == nil {
			continue
		}
		for _, path := range rule.HTTP.Paths {
			r := types.IngressRule{Host: rule.Host, Path: path.Path}
			if path.Backend.Service != nil {
				r.Service = path.Backend.Service.Name
				r.Port = path.Backend.Service.Port.Number
			}
			node.Rules = append(node.Rules, r)
		}
	}
	return node
}

// ingressStatus reports whether a load balancer address was assigned.
func ingressStatus(ing *netv1.Ingress) string {
	if len(ing.Status.LoadBalancer.Ingress) > 0 {
		return "Active"
	}
	return "Pending"
}

// resourceList converts Kubernetes quantities to display strings.
func resourceList(rl corev1.ResourceList) types.ResourceList {
	out := types.ResourceList{}
	if q, ok := rl[corev1.ResourceCPU]; ok {
		out.CPU = q.String()
	}
	if q, ok := rl[corev1.ResourceMemory]; ok {
		out.Memory = q.String()
	}
	if q, ok := rl[corev1.ResourcePods]; ok {
		out.Pods = q.String()
	}
	if q, ok := rl[corev1.ResourceEphemeralStorage]; ok {
		out.EphemeralStorage = q.String()
	}
	return out
}

// quantityMap converts a Kubernetes ResourceList to a string map.
func quantityMap(rl corev1.ResourceList) map[string]string {
	if len(rl) == 0 {
		return nil
	}
	out := make(map[string]string, len(rl))
	for name, q := range rl {
		out[string(name)] = q.String()
	}
	return out
}
