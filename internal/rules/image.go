package rules

import (
	"fmt"
	"strings"

	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/types"
)

// mutableTags are well-known floating tags that do not pin an image to a
// specific build. Digest-pinned references are never flagged.
var mutableTags = map[string]bool{
	"latest":  true,
	"stable":  true,
	"main":    true,
	"master":  true,
	"edge":    true,
	"nightly": true,
}

// imageSecurity detects mutable image tags and images pulled from
// registries outside the trusted allow-list.
func (e *Engine) imageSecurity(set *fetcher.ResourceSet) FindingsByNode {
	result := FindingsByNode{}

	for i := range set.Pods {
		pod := &set.Pods[i]
		if e.isSystemNamespace(pod.Namespace) {
			continue
		}
		nodeID := types.PodNodeID(pod.Namespace, pod.Name)

		for j := range pod.Spec.Containers {
			container := &pod.Spec.Containers[j]
			ref := parseImageRef(container.Image)

			if ref.Digest == "" && (ref.Tag == "" || mutableTags[ref.Tag]) {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:        types.FindingMutableImageTag,
					Severity:    types.SeverityMedium,
					Description: "Image tag is mutable, pulls are not reproducible",
					Container:   container.Name,
					Image:       container.Image,
				})
			}

			if !e.isTrustedRegistry(ref.Registry) {
				result[nodeID] = append(result[nodeID], types.Finding{
					Type:        types.FindingUntrustedRegistry,
					Severity:    types.SeverityHigh,
					Description: fmt.Sprintf("Image pulled from registry outside the allow-list: %s", ref.Registry),
					Container:   container.Name,
					Image:       container.Image,
					Registry:    ref.Registry,
				})
			}
		}
	}

	return result
}

// imageRef is a decomposed container image reference.
type imageRef struct {
	Registry string
	Tag      string
	Digest   string
}

// parseImageRef splits an image reference into registry, tag, and digest.
// A leading segment without a dot or port is a repository path component,
// not a registry, and implies docker.io (short form like "nginx").
func parseImageRef(image string) imageRef {
	ref := imageRef{Registry: "docker.io"}

	rest := image
	if idx := strings.Index(rest, "@"); idx >= 0 {
		ref.Digest = rest[idx+1:]
		rest = rest[:idx]
	}

	if idx := strings.Index(rest, "/"); idx >= 0 {
		first := rest[:idx]
		if strings.Contains(first, ".") || strings.Contains(first, ":") || first == "localhost" {
			ref.Registry = first
			rest = rest[idx+1:]
		}
	}

	// The tag separator is the last colon after the final slash.
	if idx := strings.LastIndex(rest, ":"); idx >= 0 && !strings.Contains(rest[idx:], "/") {
		ref.Tag = rest[idx+1:]
	}

	return ref
}

// isTrustedRegistry matches the registry host against the allow-list,
// accepting exact matches and subdomains (us.gcr.io matches gcr.io).
// ECR registries (*.dkr.ecr.*.amazonaws.com) are always trusted.
func (e *Engine) isTrustedRegistry(registry string) bool {
	host := registry
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	for _, trusted := range e.trustedRegistries {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}

	if strings.Contains(host, ".dkr.ecr.") && strings.HasSuffix(host, ".amazonaws.com") {
		return true
	}

	return false
}
