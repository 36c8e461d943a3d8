package fetcher

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// ErrUnreachable indicates that every resource listing failed, i.e. the
// API server could not be reached at all during the pass.
var ErrUnreachable = errors.New("cluster API unreachable")

// Resource kind keys used in ResourceSet.Errors and in the scan summary.
const (
	KindNamespaces      = "namespaces"
	KindNodes           = "nodes"
	KindPods            = "pods"
	KindServices        = "services"
	KindIngresses       = "ingresses"
	KindNetworkPolicies = "networkpolicies"
	KindClusterRoles    = "clusterroles"
	KindResourceQuotas  = "resourcequotas"
	KindLimitRanges     = "limitranges"
	KindEndpoints       = "endpoints"
	KindConfigMaps      = "configmaps"
	KindSecrets         = "secrets"
	KindEvents          = "events"
)

// ResourceSet holds the typed listings of one scan pass. Listings that
// failed are absent and recorded in Errors keyed by resource kind; the
// pass continues with whatever was fetched.
type ResourceSet struct {
	Namespaces      []corev1.Namespace
	Nodes           []corev1.Node
	Pods            []corev1.Pod
	Services        []corev1.Service
	Ingresses       []netv1.Ingress
	NetworkPolicies []netv1.NetworkPolicy
	ClusterRoles    []rbacv1.ClusterRole

	// Supplemental listings used to enrich node payloads.
	ResourceQuotas []corev1.ResourceQuota
	LimitRanges    []corev1.LimitRange
	Endpoints      []corev1.Endpoints
	ConfigMaps     []corev1.ConfigMap
	Secrets        []corev1.Secret
	Events         []corev1.Event

	// Live usage from metrics-server, empty when no metrics client is
	// configured or the metrics API is unavailable. Best effort: metrics
	// failures are not recorded in Errors.
	NodeMetrics []metricsv1beta1.NodeMetrics
	PodMetrics  []metricsv1beta1.PodMetrics

	Errors map[string]error
}

// Empty reports whether the set contains no graph-producing resources.
func (s *ResourceSet) Empty() bool {
	return len(s.Namespaces) == 0 && len(s.Nodes) == 0 && len(s.Pods) == 0 &&
		len(s.Services) == 0 && len(s.Ingresses) == 0
}

// FullyFetched reports whether every listing succeeded.
func (s *ResourceSet) FullyFetched() bool {
	return len(s.Errors) == 0
}

// Fetcher returns one consistent ResourceSet per scan pass.
type Fetcher interface {
	Fetch(ctx context.Context) (*ResourceSet, error)
}

// New creates a Fetcher backed by a Kubernetes clientset. Every listing
// call is bounded by callTimeout.
func New(client kubernetes.Interface, callTimeout time.Duration, logger *zap.Logger) Fetcher {
	return NewWithMetrics(client, nil, callTimeout, logger)
}

// NewWithMetrics creates a Fetcher that also lists live node and pod
// usage through the metrics.k8s.io API. metrics may be nil when no
// metrics-server is available.
func NewWithMetrics(client kubernetes.Interface, metrics metricsclient.Interface, callTimeout time.Duration, logger *zap.Logger) Fetcher {
	return &kubeFetcher{
		client:      client,
		metrics:     metrics,
		callTimeout: callTimeout,
		logger:      logger.Named("fetcher"),
	}
}

type kubeFetcher struct {
	client      kubernetes.Interface
	metrics     metricsclient.Interface
	callTimeout time.Duration
	logger      *zap.Logger
}

// Fetch lists all resource kinds for one pass. A single kind failing is
// recorded in the set's Errors; only when every listing fails does Fetch
// return ErrUnreachable.
func (f *kubeFetcher) Fetch(ctx context.Context) (*ResourceSet, error) {
	set := &ResourceSet{Errors: make(map[string]error)}
	attempted := 0

	list := func(kind string, fn func(context.Context) error) {
		attempted++
		callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
		defer cancel()
		if err := fn(callCtx); err != nil {
			f.logger.Warn("Resource listing failed",
				zap.String("kind", kind),
				zap.Error(err),
			)
			set.Errors[kind] = err
		}
	}

	list(KindNamespaces, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Namespaces = res.Items
		return nil
	})
	list(KindNodes, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Nodes = res.Items
		return nil
	})
	list(KindPods, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Pods = res.Items
		return nil
	})
	list(KindServices, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Services("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Services = res.Items
		return nil
	})
	list(KindIngresses, func(ctx context.Context) error {
		res, err := f.client.NetworkingV1().Ingresses("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Ingresses = res.Items
		return nil
	})
	list(KindNetworkPolicies, func(ctx context.Context) error {
		res, err := f.client.NetworkingV1().NetworkPolicies("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.NetworkPolicies = res.Items
		return nil
	})
	list(KindClusterRoles, func(ctx context.Context) error {
		res, err := f.client.RbacV1().ClusterRoles().List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.ClusterRoles = res.Items
		return nil
	})
	list(KindResourceQuotas, func(ctx context.Context) error {
		res, err := f.client.CoreV1().ResourceQuotas("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.ResourceQuotas = res.Items
		return nil
	})
	list(KindLimitRanges, func(ctx context.Context) error {
		res, err := f.client.CoreV1().LimitRanges("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.LimitRanges = res.Items
		return nil
	})
	list(KindEndpoints, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Endpoints("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Endpoints = res.Items
		return nil
	})
	list(KindConfigMaps, func(ctx context.Context) error {
		res, err := f.client.CoreV1().ConfigMaps("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.ConfigMaps = res.Items
		return nil
	})
	list(KindSecrets, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Secrets("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Secrets = res.Items
		return nil
	})
	list(KindEvents, func(ctx context.Context) error {
		res, err := f.client.CoreV1().Events("").List(ctx, metav1.ListOptions{})
		if err != nil {
			return err
		}
		set.Events = res.Items
		return nil
	})

	if len(set.Errors) == attempted {
		return nil, ErrUnreachable
	}

	f.fetchMetrics(ctx, set)

	sortSet(set)
	return set, nil
}

// fetchMetrics lists live usage from metrics-server. Clusters routinely
// run without one, so failures are logged at debug level and the fields
// stay empty.
func (f *kubeFetcher) fetchMetrics(ctx context.Context, set *ResourceSet) {
	if f.metrics == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	nodes, err := f.metrics.MetricsV1beta1().NodeMetricses().List(callCtx, metav1.ListOptions{})
	if err != nil {
		f.logger.Debug("Node metrics unavailable", zap.Error(err))
	} else {
		set.NodeMetrics = nodes.Items
	}
	pods, err := f.metrics.MetricsV1beta1().PodMetricses("").List(callCtx, metav1.ListOptions{})
	if err != nil {
		f.logger.Debug("Pod metrics unavailable", zap.Error(err))
	} else {
		set.PodMetrics = pods.Items
	}
}

// sortSet orders every listing by (namespace, name) so downstream stages
// produce byte-identical output for identical cluster state.
func sortSet(set *ResourceSet) {
	sort.Slice(set.Namespaces, func(i, j int) bool {
		return set.Namespaces[i].Name < set.Namespaces[j].Name
	})
	sort.Slice(set.Nodes, func(i, j int) bool {
		return set.Nodes[i].Name < set.Nodes[j].Name
	})
	sort.Slice(set.Pods, func(i, j int) bool {
		return objectLess(set.Pods[i].ObjectMeta, set.Pods[j].ObjectMeta)
	})
	sort.Slice(set.Services, func(i, j int) bool {
		return objectLess(set.Services[i].ObjectMeta, set.Services[j].ObjectMeta)
	})
	sort.Slice(set.Ingresses, func(i, j int) bool {
		return objectLess(set.Ingresses[i].ObjectMeta, set.Ingresses[j].ObjectMeta)
	})
	sort.Slice(set.NetworkPolicies, func(i, j int) bool {
		return objectLess(set.NetworkPolicies[i].ObjectMeta, set.NetworkPolicies[j].ObjectMeta)
	})
	sort.Slice(set.ClusterRoles, func(i, j int) bool {
		return set.ClusterRoles[i].Name < set.ClusterRoles[j].Name
	})
	sort.Slice(set.ResourceQuotas, func(i, j int) bool {
		return objectLess(set.ResourceQuotas[i].ObjectMeta, set.ResourceQuotas[j].ObjectMeta)
	})
	sort.Slice(set.LimitRanges, func(i, j int) bool {
		return objectLess(set.LimitRanges[i].ObjectMeta, set.LimitRanges[j].ObjectMeta)
	})
	sort.Slice(set.Endpoints, func(i, j int) bool {
		return objectLess(set.Endpoints[i].ObjectMeta, set.Endpoints[j].ObjectMeta)
	})
	sort.Slice(set.Events, func(i, j int) bool {
		return objectLess(set.Events[i].ObjectMeta, set.Events[j].ObjectMeta)
	})
	sort.Slice(set.NodeMetrics, func(i, j int) bool {
		return set.NodeMetrics[i].Name < set.NodeMetrics[j].Name
	})
	sort.Slice(set.PodMetrics, func(i, j int) bool {
		return objectLess(set.PodMetrics[i].ObjectMeta, set.PodMetrics[j].ObjectMeta)
	})
}

func objectLess(a, b metav1.ObjectMeta) bool {
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}
