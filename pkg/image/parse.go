package image

import "strings"

const (
	DefaultRegistry  = "docker.io"
	DefaultNamespace = "library"
	DefaultTag       = "latest"
)

// Reference is a normalized image reference.
type Reference struct {
	Registry      string `json:"registry"`
	Repository    string `json:"repository"`
	Tag           string `json:"tag"`
	FullReference string `json:"fullReference"`
}

// Parse normalizes a raw image string the way the docker engine does:
// "nginx" becomes docker.io/library/nginx:latest. It never fails; a
// malformed input yields a reference that will not resolve later.
func Parse(raw string) Reference {
	registry, remainder := DefaultRegistry, raw

	if i := strings.Index(raw, "/"); i != -1 && isRegistryHost(raw[:i]) {
		registry, remainder = raw[:i], raw[i+1:]
	}

	if !strings.Contains(remainder, "/") {
		remainder = DefaultNamespace + "/" + remainder
	}

	if !strings.Contains(remainder, ":") {
		remainder += ":" + DefaultTag
	}

	i := strings.LastIndex(remainder, ":")
	repository, tag := remainder[:i], remainder[i+1:]

	return Reference{
		Registry:      registry,
		Repository:    repository,
		Tag:           tag,
		FullReference: registry + "/" + repository + ":" + tag,
	}
}

// Name returns registry/repository without the tag.
func (r Reference) Name() string {
	return r.Registry + "/" + r.Repository
}

func isRegistryHost(prefix string) bool {
	return strings.ContainsAny(prefix, ".:") || prefix == "localhost"
}
