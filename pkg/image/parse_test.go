package image

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Reference
	}{
		{"nginx", Reference{"docker.io", "library/nginx", "latest", "docker.io/library/nginx:latest"}},
		{"nginx:1.25", Reference{"docker.io", "library/nginx", "1.25", "docker.io/library/nginx:1.25"}},
		{"bitnami/redis", Reference{"docker.io", "bitnami/redis", "latest", "docker.io/bitnami/redis:latest"}},
		{"myregistry.io/app:1.2", Reference{"myregistry.io", "library/app", "1.2", "myregistry.io/library/app:1.2"}},
		{"ghcr.io/org/app", Reference{"ghcr.io", "org/app", "latest", "ghcr.io/org/app:latest"}},
		{"localhost/team/app:dev", Reference{"localhost", "team/app", "dev", "localhost/team/app:dev"}},
		{"registry:5000/team/app", Reference{"registry:5000", "team/app", "latest", "registry:5000/team/app:latest"}},
		{"quay.io/org/sub/app:v1", Reference{"quay.io", "org/sub/app", "v1", "quay.io/org/sub/app:v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(tt.raw)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	got := Parse("")
	if got.Registry != DefaultRegistry {
		t.Errorf("expected default registry, got %q", got.Registry)
	}
	if got.Repository != "library/" {
		t.Errorf("expected best-effort repository, got %q", got.Repository)
	}
}

func TestReference_Name(t *testing.T) {
	if got := Parse("ghcr.io/org/app:1").Name(); got != "ghcr.io/org/app" {
		t.Errorf("Name() = %q", got)
	}
}
