package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

func newEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(i int64) *int64 { return &i }

func makePod(ns, name string, containers ...corev1.Container) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Spec:       corev1.PodSpec{Containers: containers},
	}
}

func findingTypes(findings []types.Finding) []types.FindingType {
	var out []types.FindingType
	for _, f := range findings {
		out = append(out, f.Type)
	}
	return out
}

func TestContainerSecurity_Privileged(t *testing.T) {
	pod := makePod("default", "redis", corev1.Container{
		Name:  "redis",
		Image: "redis:7.2.4",
		SecurityContext: &corev1.SecurityContext{
			Privileged:   boolPtr(true),
			RunAsNonRoot: boolPtr(true),
		},
	})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryContainerSecurity, set)
	findings := got[types.PodNodeID("default", "redis")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingPrivilegedContainer, findings[0].Type)
	assert.Equal(t, types.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "redis", findings[0].Container)
}

func TestContainerSecurity_FailClosedRootDefault(t *testing.T) {
	// No securityContext at all must be flagged as running as root.
	pod := makePod("default", "nginx", corev1.Container{Name: "nginx", Image: "nginx:1.25.4"})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryContainerSecurity, set)
	findings := got[types.PodNodeID("default", "nginx")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingRunningAsRoot, findings[0].Type)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
}

func TestContainerSecurity_RootVariants(t *testing.T) {
	cases := []struct {
		name     string
		sc       *corev1.SecurityContext
		expected bool
	}{
		{"nil context", nil, true},
		{"runAsUser 0", &corev1.SecurityContext{RunAsUser: int64Ptr(0)}, true},
		{"runAsNonRoot false", &corev1.SecurityContext{RunAsNonRoot: boolPtr(false)}, true},
		{"runAsNonRoot true", &corev1.SecurityContext{RunAsNonRoot: boolPtr(true)}, false},
		{"runAsUser 1000", &corev1.SecurityContext{RunAsUser: int64Ptr(1000)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, runsAsRoot(tc.sc))
		})
	}
}

func TestContainerSecurity_DangerousCapabilities(t *testing.T) {
	pod := makePod("default", "netshoot", corev1.Container{
		Name:  "netshoot",
		Image: "nicolaka/netshoot:v0.13",
		SecurityContext: &corev1.SecurityContext{
			RunAsNonRoot: boolPtr(true),
			Capabilities: &corev1.Capabilities{
				Add: []corev1.Capability{"NET_ADMIN", "CHOWN", "SYS_ADMIN"},
			},
		},
	})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryContainerSecurity, set)
	findings := got[types.PodNodeID("default", "netshoot")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingDangerousCapabilities, findings[0].Type)
	assert.Equal(t, []string{"NET_ADMIN", "SYS_ADMIN"}, findings[0].Capabilities)
}

func TestContainerSecurity_PodLevel(t *testing.T) {
	pod := makePod("default", "agent", corev1.Container{
		Name:            "agent",
		Image:           "agent:v1.0.0",
		SecurityContext: &corev1.SecurityContext{RunAsNonRoot: boolPtr(true)},
	})
	pod.Spec.HostNetwork = true
	pod.Spec.HostPID = true
	pod.Spec.HostIPC = true
	pod.Spec.Volumes = []corev1.Volume{
		{
			Name: "host-root",
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{Path: "/"},
			},
		},
	}
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryContainerSecurity, set)
	findings := got[types.PodNodeID("default", "agent")]
	require.Equal(t, []types.FindingType{
		types.FindingHostNetwork,
		types.FindingHostPID,
		types.FindingHostIPC,
		types.FindingHostPathMount,
	}, findingTypes(findings))

	// hostPID and hostPath are critical, the rest high
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
	assert.Equal(t, types.SeverityCritical, findings[1].Severity)
	assert.Equal(t, types.SeverityHigh, findings[2].Severity)
	assert.Equal(t, types.SeverityCritical, findings[3].Severity)
	assert.Equal(t, "/", findings[3].Path)
}

func TestContainerSecurity_SkipsSystemNamespaces(t *testing.T) {
	pod := makePod("kube-system", "kube-proxy", corev1.Container{Name: "kube-proxy", Image: "registry.k8s.io/kube-proxy:v1.32.0"})
	pod.Spec.HostNetwork = true
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryContainerSecurity, set)
	assert.Empty(t, got)
}

func TestResourceLimits_OneFindingPerMissingKind(t *testing.T) {
	pod := makePod("default", "nginx", corev1.Container{Name: "nginx", Image: "nginx:1.25.4"})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryResourceLimits, set)
	findings := got[types.PodNodeID("default", "nginx")]
	require.Equal(t, []types.FindingType{
		types.FindingMissingCPULimit,
		types.FindingMissingMemoryLimit,
	}, findingTypes(findings))
	assert.Equal(t, []string{"cpu"}, findings[0].MissingLimits)
	assert.Equal(t, []string{"memory"}, findings[1].MissingLimits)
}

func TestResourceLimits_PartialLimits(t *testing.T) {
	pod := makePod("default", "nginx", corev1.Container{
		Name:  "nginx",
		Image: "nginx:1.25.4",
		Resources: corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse("128Mi"),
			},
		},
	})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryResourceLimits, set)
	findings := got[types.PodNodeID("default", "nginx")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingMissingCPULimit, findings[0].Type)
}

func TestResourceLimits_FullLimitsClean(t *testing.T) {
	pod := makePod("default", "nginx", corev1.Container{
		Name:  "nginx",
		Image: "nginx:1.25.4",
		Resources: corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse("500m"),
				corev1.ResourceMemory: resource.MustParse("128Mi"),
			},
		},
	})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryResourceLimits, set)
	assert.Empty(t, got)
}

func TestServiceAccount_AutomountDefaultsTrue(t *testing.T) {
	pod := makePod("default", "app", corev1.Container{Name: "app", Image: "app:v1"})
	pod.Spec.ServiceAccountName = "app-sa"
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryServiceAccount, set)
	findings := got[types.PodNodeID("default", "app")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingAutomountedSAToken, findings[0].Type)
	assert.Equal(t, "app-sa", findings[0].ServiceAccount)
}

func TestServiceAccount_DefaultSA(t *testing.T) {
	pod := makePod("default", "app", corev1.Container{Name: "app", Image: "app:v1"})
	pod.Spec.AutomountServiceAccountToken = boolPtr(false)
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

	got := newEngine().Evaluate(CategoryServiceAccount, set)
	findings := got[types.PodNodeID("default", "app")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingDefaultServiceAccount, findings[0].Type)
	assert.Equal(t, types.SeverityMedium, findings[0].Severity)
}

func TestNetworkExposure_NodePort(t *testing.T) {
	svc := corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web"},
		Spec: corev1.ServiceSpec{
			Type:  corev1.ServiceTypeNodePort,
			Ports: []corev1.ServicePort{{Port: 80, NodePort: 30080}},
		},
	}
	set := &fetcher.ResourceSet{Services: []corev1.Service{svc}}

	got := newEngine().Evaluate(CategoryNetworkExposure, set)
	findings := got[types.ServiceNodeID("default", "web")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingNodePortService, findings[0].Type)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
	assert.Equal(t, []int32{30080}, findings[0].Ports)
}

func TestNetworkExposure_LoadBalancer(t *testing.T) {
	open := corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "open"},
		Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
	}
	restricted := corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "restricted"},
		Spec: corev1.ServiceSpec{
			Type:                     corev1.ServiceTypeLoadBalancer,
			LoadBalancerSourceRanges: []string{"10.0.0.0/8"},
		},
	}
	set := &fetcher.ResourceSet{Services: []corev1.Service{open, restricted}}

	got := newEngine().Evaluate(CategoryNetworkExposure, set)

	openFindings := got[types.ServiceNodeID("default", "open")]
	require.Len(t, openFindings, 1)
	assert.Equal(t, types.FindingUnrestrictedLoadBalancer, openFindings[0].Type)
	assert.Equal(t, types.SeverityCritical, openFindings[0].Severity)

	restrictedFindings := got[types.ServiceNodeID("default", "restricted")]
	require.Len(t, restrictedFindings, 1)
	assert.Equal(t, types.FindingLoadBalancerService, restrictedFindings[0].Type)
	assert.Equal(t, types.SeverityInfo, restrictedFindings[0].Severity)
	assert.Equal(t, []string{"10.0.0.0/8"}, restrictedFindings[0].SourceRanges)
}

func TestNetworkExposure_NamespaceWithoutPolicy(t *testing.T) {
	set := &fetcher.ResourceSet{
		Namespaces: []corev1.Namespace{
			{ObjectMeta: metav1.ObjectMeta{Name: "covered"}},
			{ObjectMeta: metav1.ObjectMeta{Name: "uncovered"}},
			{ObjectMeta: metav1.ObjectMeta{Name: "kube-system"}},
		},
	}
	set.NetworkPolicies = append(set.NetworkPolicies, netv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{Namespace: "covered", Name: "default-deny"},
	})

	got := newEngine().Evaluate(CategoryNetworkExposure, set)

	assert.NotContains(t, got, types.NamespaceNodeID("covered"))
	assert.NotContains(t, got, types.NamespaceNodeID("kube-system"))

	findings := got[types.NamespaceNodeID("uncovered")]
	require.Len(t, findings, 1)
	assert.Equal(t, types.FindingNoNetworkPolicy, findings[0].Type)
	assert.Equal(t, types.SeverityMedium, findings[0].Severity)
}

func TestRBAC_AllAxesWildcardSingleCritical(t *testing.T) {
	role := rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: "god-mode"},
		Rules: []rbacv1.PolicyRule{{
			Verbs:     []string{"*"},
			Resources: []string{"*"},
			APIGroups: []string{"*"},
		}},
	}
	set := &fetcher.ResourceSet{
		Namespaces:   []corev1.Namespace{{ObjectMeta: metav1.ObjectMeta{Name: "default"}}},
		ClusterRoles: []rbacv1.ClusterRole{role},
	}

	got := newEngine().Evaluate(CategoryRBACWildcards, set)
	findings := got[types.NamespaceNodeID("default")]
	require.Len(t, findings, 1, "all three wildcarded axes must yield one finding, not three")
	assert.Equal(t, types.FindingRBACWildcard, findings[0].Type)
	assert.Equal(t, types.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "god-mode", findings[0].RoleName)
}

func TestRBAC_PerAxisFindings(t *testing.T) {
	role := rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: "wide-reader"},
		Rules: []rbacv1.PolicyRule{{
			Verbs:     []string{"get", "list"},
			Resources: []string{"*"},
			APIGroups: []string{"", "*"},
		}},
	}
	set := &fetcher.ResourceSet{
		Namespaces:   []corev1.Namespace{{ObjectMeta: metav1.ObjectMeta{Name: "default"}}},
		ClusterRoles: []rbacv1.ClusterRole{role},
	}

	got := newEngine().Evaluate(CategoryRBACWildcards, set)
	findings := got[types.NamespaceNodeID("default")]
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, types.FindingRBACWildcard, f.Type)
		assert.Equal(t, types.SeverityHigh, f.Severity)
	}
}

func TestRBAC_ExcludedRoles(t *testing.T) {
	set := &fetcher.ResourceSet{
		Namespaces: []corev1.Namespace{{ObjectMeta: metav1.ObjectMeta{Name: "default"}}},
		ClusterRoles: []rbacv1.ClusterRole{
			{
				ObjectMeta: metav1.ObjectMeta{Name: "cluster-admin"},
				Rules:      []rbacv1.PolicyRule{{Verbs: []string{"*"}, Resources: []string{"*"}, APIGroups: []string{"*"}}},
			},
			{
				ObjectMeta: metav1.ObjectMeta{Name: "system:controller:foo"},
				Rules:      []rbacv1.PolicyRule{{Verbs: []string{"*"}, Resources: []string{"*"}, APIGroups: []string{"*"}}},
			},
		},
	}

	got := newEngine().Evaluate(CategoryRBACWildcards, set)
	assert.Empty(t, got)
}

func TestImageSecurity_MutableTags(t *testing.T) {
	cases := []struct {
		image   string
		flagged bool
	}{
		{"nginx:latest", true},
		{"nginx", true},
		{"nginx:stable", true},
		{"nginx:1.25.4", false},
		{"nginx@sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", false},
		{"gcr.io/project/app:v2.1.0", false},
	}

	for _, tc := range cases {
		t.Run(tc.image, func(t *testing.T) {
			pod := makePod("default", "p", corev1.Container{Name: "c", Image: tc.image})
			set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

			got := newEngine().Evaluate(CategoryImageSecurity, set)
			tagged := false
			for _, f := range got[types.PodNodeID("default", "p")] {
				if f.Type == types.FindingMutableImageTag {
					tagged = true
				}
			}
			assert.Equal(t, tc.flagged, tagged)
		})
	}
}

func TestImageSecurity_RegistryTrust(t *testing.T) {
	cases := []struct {
		image   string
		trusted bool
	}{
		{"nginx:1.25.4", true},                        // short form implies docker.io
		{"gcr.io/project/app:v1", true},               // exact match
		{"us.gcr.io/project/app:v1", true},            // subdomain match
		{"123456789.dkr.ecr.eu-west-1.amazonaws.com/app:v1", true}, // ECR pattern
		{"k8s.gcr.io/pause:3.9", true},
		{"public.ecr.aws/nginx/nginx:1.25", true},
		{"registry.internal.corp/app:v1", false},
		{"evil.example.com/app:v1", false},
	}

	for _, tc := range cases {
		t.Run(tc.image, func(t *testing.T) {
			pod := makePod("default", "p", corev1.Container{Name: "c", Image: tc.image})
			set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}

			got := newEngine().Evaluate(CategoryImageSecurity, set)
			flagged := false
			for _, f := range got[types.PodNodeID("default", "p")] {
				if f.Type == types.FindingUntrustedRegistry {
					flagged = true
				}
			}
			assert.Equal(t, !tc.trusted, flagged)
		})
	}
}

func TestRequiredKinds(t *testing.T) {
	for _, cat := range Categories() {
		assert.NotEmpty(t, RequiredKinds(cat), "category %s", cat)
	}
	assert.Contains(t, RequiredKinds(CategoryNetworkExposure), fetcher.KindNetworkPolicies)
	assert.Contains(t, RequiredKinds(CategoryRBACWildcards), fetcher.KindClusterRoles)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	pod := makePod("default", "nginx", corev1.Container{Name: "nginx", Image: "nginx:latest"})
	set := &fetcher.ResourceSet{Pods: []corev1.Pod{pod}}
	engine := newEngine()

	for _, cat := range Categories() {
		first := engine.Evaluate(cat, set)
		second := engine.Evaluate(cat, set)
		assert.Equal(t, first, second, "category %s", cat)
	}
}
