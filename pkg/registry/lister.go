package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/image"
	"gopkg.in/yaml.v3"
)

// TagLister returns the tags published for an image repository.
type TagLister interface {
	ListTags(ctx context.Context, ref image.Reference) ([]string, error)
}

// New returns the lister for a registry tool name, wrapped with retries.
// staticFile is only read for the static tool.
func New(tool string, attempts uint, staticFile string) (TagLister, error) {
	var lister TagLister
	switch tool {
	case api.RegistryToolSkopeo:
		lister = &SkopeoLister{Binary: "skopeo"}
	case api.RegistryToolCrane:
		lister = &CraneLister{}
	case api.RegistryToolStatic:
		static, err := LoadStatic(staticFile)
		if err != nil {
			return nil, err
		}
		return static, nil
	default:
		return nil, fmt.Errorf("unknown registry tool: %s", tool)
	}
	return NewRetrying(lister, attempts, time.Second), nil
}

// SkopeoLister shells out to `skopeo list-tags` without credentials.
type SkopeoLister struct {
	Binary string
}

type skopeoTags struct {
	Repository string   `json:"Repository"`
	Tags       []string `json:"Tags"`
}

func (l *SkopeoLister) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	if _, err := exec.LookPath(l.Binary); err != nil {
		return nil, fmt.Errorf("%s binary not found in PATH: %w", l.Binary, err)
	}

	target := "docker://" + ref.Name()
	slog.Debug("listing tags", "tool", l.Binary, "image", target)

	cmd := exec.CommandContext(ctx, l.Binary, "list-tags", "--no-creds", target)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &api.ExternalToolError{Tool: l.Binary, Stderr: stderr.String(), Err: err}
	}

	var out skopeoTags
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parsing %s output: %w", l.Binary, err)
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out.Tags, nil
}

// CraneLister queries the registry in-process with anonymous credentials.
type CraneLister struct {
	Options []crane.Option
}

func (l *CraneLister) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	opts := append([]crane.Option{crane.WithContext(ctx), crane.WithAuth(authn.Anonymous)}, l.Options...)

	slog.Debug("listing tags", "tool", api.RegistryToolCrane, "image", ref.Name())

	tags, err := crane.ListTags(ref.Name(), opts...)
	if err != nil {
		return nil, &api.ExternalToolError{Tool: api.RegistryToolCrane, Err: err}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// Retrying retries a TagLister on failure.
type Retrying struct {
	next     TagLister
	attempts uint
	delay    time.Duration
}

// NewRetrying wraps next so that each lookup is attempted up to attempts times.
func NewRetrying(next TagLister, attempts uint, delay time.Duration) *Retrying {
	if attempts == 0 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, delay: delay}
}

func (r *Retrying) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	var tags []string
	err := retry.Do(
		func() error {
			var err error
			tags, err = r.next.ListTags(ctx, ref)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(Retryable),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("tag lookup failed, retrying", "image", ref.Name(), "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Retryable reports whether a failed lookup may succeed when repeated.
// A missing binary, a cancelled run and registry answers such as
// "not found" or "unauthorized" are final.
func Retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var tErr *transport.Error
	if errors.As(err, &tErr) {
		return tErr.Temporary()
	}
	return true
}

// Static serves tags from memory, keyed by registry/repository. It backs the
// static registry tool for offline runs.
type Static struct {
	Tags   map[string][]string
	Errors map[string]error
}

func (s *Static) ListTags(_ context.Context, ref image.Reference) ([]string, error) {
	if err, ok := s.Errors[ref.Name()]; ok {
		return nil, err
	}
	tags, ok := s.Tags[ref.Name()]
	if !ok {
		return nil, fmt.Errorf("repository %s not found", ref.Name())
	}
	return tags, nil
}

// LoadStatic reads a YAML mapping of image repository to tags. Repositories
// are normalized, so "nginx" and "docker.io/library/nginx" are the same entry.
func LoadStatic(filename string) (*Static, error) {
	if filename == "" {
		return nil, fmt.Errorf("no static tags file given")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading static tags file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing static tags file: %w", err)
	}

	s := &Static{Tags: make(map[string][]string, len(raw))}
	for repo, tags := range raw {
		if tags == nil {
			tags = []string{}
		}
		s.Tags[image.Parse(repo).Name()] = tags
	}
	return s, nil
}
