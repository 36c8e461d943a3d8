package rules

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// dangerousCapabilities are Linux capabilities that grant a container
// near-host-level access when added.
var dangerousCapabilities = map[corev1.Capability]bool{
	"SYS_ADMIN":       true,
	"NET_ADMIN":       true,
	"SYS_MODULE":      true,
	"SYS_PTRACE":      true,
	"DAC_READ_SEARCH": true,
}

// containerSecurity detects privileged containers, root users, dangerous
// capabilities, host namespace sharing, and hostPath mounts.
func (e *Engine) containerSecurity(set *fetcher.ResourceSet) FindingsByNode {
	result := FindingsByNode{}

	for i := range set.Pods {
		pod := &set.Pods[i]
		if e.isSystemNamespace(pod.Namespace) {
			continue
		}
		nodeID := types.PodNodeID(pod.Namespace, pod.Name)

		for j := range pod.Spec.Containers {
			container := &pod.Spec.Containers[j]
			result[nodeID] = append(result[nodeID], containerFindings(container)...)
		}

		result[nodeID] = append(result[nodeID], podLevelFindings(pod)...)

		if len(result[nodeID]) == 0 {
			delete(result, nodeID)
		}
	}

	return result
}

// containerFindings evaluates a single container spec.
func containerFindings(container *corev1.Container) []types.Finding {
	var findings []types.Finding
	sc := container.SecurityContext

	if sc != nil && sc.Privileged != nil && *sc.Privileged {
		findings = append(findings, types.Finding{
			Type:        types.FindingPrivilegedContainer,
			Severity:    types.SeverityCritical,
			Description: "Container runs in privileged mode with full host access",
			Container:   container.Name,
			Image:       container.Image,
		})
	}

	if runsAsRoot(sc) {
		findings = append(findings, types.Finding{
			Type:        types.FindingRunningAsRoot,
			Severity:    types.SeverityHigh,
			Description: "Container allowed to run as root (UID 0)",
			Container:   container.Name,
			Image:       container.Image,
		})
	}

	if caps := addedDangerousCapabilities(sc); len(caps) > 0 {
		findings = append(findings, types.Finding{
			Type:         types.FindingDangerousCapabilities,
			Severity:     types.SeverityHigh,
			Description:  "Container adds dangerous Linux capabilities",
			Container:    container.Name,
			Image:        container.Image,
			Capabilities: caps,
		})
	}

	return findings
}

// runsAsRoot applies the fail-closed default: a container with no
// securityContext at all is treated as running as root, mirroring the
// platform's own default semantics.
func runsAsRoot(sc *corev1.SecurityContext) bool {
	if sc == nil {
		return true
	}
	if sc.RunAsNonRoot != nil && *sc.RunAsNonRoot {
		return false
	}
	if sc.RunAsUser != nil && *sc.RunAsUser != 0 {
		return false
	}
	return true
}

// addedDangerousCapabilities returns the disallowed capabilities the
// container adds, in spec order.
func addedDangerousCapabilities(sc *corev1.SecurityContext) []string {
	if sc == nil || sc.Capabilities == nil {
		return nil
	}
	var caps []string
	for _, c := range sc.Capabilities.Add {
		if dangerousCapabilities[c] {
			caps = append(caps, string(c))
		}
	}
	return caps
}

// podLevelFindings evaluates host namespace sharing and hostPath volumes.
func podLevelFindings(pod *corev1.Pod) []types.Finding {
	var findings []types.Finding

	if pod.Spec.HostNetwork {
		findings = append(findings, types.Finding{
			Type:        types.FindingHostNetwork,
			Severity:    types.SeverityHigh,
			Description: "Pod uses host network namespace, can sniff node traffic",
		})
	}
	if pod.Spec.HostPID {
		findings = append(findings, types.Finding{
			Type:        types.FindingHostPID,
			Severity:    types.SeverityCritical,
			Description: "Pod uses host PID namespace, can see all host processes",
		})
	}
	if pod.Spec.HostIPC {
		findings = append(findings, types.Finding{
			Type:        types.FindingHostIPC,
			Severity:    types.SeverityHigh,
			Description: "Pod uses host IPC namespace",
		})
	}

	for i := range pod.Spec.Volumes {
		vol := &pod.Spec.Volumes[i]
		if vol.HostPath == nil {
			continue
		}
		findings = append(findings, types.Finding{
			Type:        types.FindingHostPathMount,
			Severity:    types.SeverityCritical,
			Description: fmt.Sprintf("Pod mounts host path %s", vol.HostPath.Path),
			Path:        vol.HostPath.Path,
		})
	}

	return findings
}
