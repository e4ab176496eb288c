package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/tidwall/gjson"
)

// ErrMalformedOutput is returned when the strategy does not print JSON.
var ErrMalformedOutput = errors.New("expected JSON output from strategy")

// Request is the payload sent to a strategy program: the available tags of
// every declared key, in declaration order.
type Request struct {
	Keys []string
	Tags map[string][]string
}

// NewRequest returns an empty request.
func NewRequest() *Request {
	return &Request{Tags: make(map[string][]string)}
}

// Add records the tags for key. Adding a key twice keeps its first position.
func (r *Request) Add(key string, tags []string) {
	if _, ok := r.Tags[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	if tags == nil {
		tags = []string{}
	}
	r.Tags[key] = tags
}

// MarshalJSON writes {key: [tags...]} with keys in declaration order.
func (r *Request) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Tags[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Invoke runs a strategy program with the request on stdin and returns its
// validated output. Any nonzero exit, malformed JSON or schema mismatch is a
// failure of the whole call; nothing is partially returned.
func Invoke(ctx context.Context, program, workDir string, req *Request) (*api.StrategyOutput, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding strategy input: %w", err)
	}

	// a relative program path would otherwise resolve against workDir
	if abs, err := filepath.Abs(program); err == nil {
		program = abs
	}

	slog.Debug("running upgrade strategy", "program", program, "keys", len(req.Keys))

	cmd := exec.CommandContext(ctx, program)
	cmd.Dir = workDir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to retrieve latest tag(s): %w",
			&api.ExternalToolError{Tool: program, Stderr: stderr.String(), Err: err})
	}

	return ParseOutput(stdout.Bytes())
}

// ParseOutput validates and decodes strategy output of the form
// {"tags": {key: tag}, "app_version": string|null}. The result is built from
// the validated members only.
func ParseOutput(data []byte) (*api.StrategyOutput, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedOutput
	}

	doc := gjson.ParseBytes(data)
	if err := validateOutput(doc); err != nil {
		return nil, err
	}

	out := &api.StrategyOutput{Tags: make(map[string]string)}
	doc.Get("tags").ForEach(func(key, value gjson.Result) bool {
		out.Tags[key.Str] = value.Str
		return true
	})
	if av := doc.Get("app_version"); av.Type == gjson.String {
		v := av.Str
		out.AppVersion = &v
	}
	return out, nil
}

func validateOutput(doc gjson.Result) error {
	fail := func(format string, args ...any) error {
		return &api.ValidationError{Subject: "strategy output", Reason: fmt.Sprintf(format, args...)}
	}

	if !doc.IsObject() {
		return fail("expected a JSON object, got %s", doc.Type)
	}

	tags := doc.Get("tags")
	if !tags.Exists() {
		return fail("'tags' is a required property")
	}
	if !tags.IsObject() {
		return fail("'tags' must be an object")
	}

	var bad error
	tags.ForEach(func(key, value gjson.Result) bool {
		if key.Type != gjson.String {
			bad = fail("tag key %s is not a string", key.Raw)
			return false
		}
		if value.Type != gjson.String {
			bad = fail("tag for %q must be a string, got %s", key.Str, value.Raw)
			return false
		}
		return true
	})
	if bad != nil {
		return bad
	}

	if av := doc.Get("app_version"); av.Exists() && av.Type != gjson.Null && av.Type != gjson.String {
		return fail("'app_version' must be a string or null, got %s", av.Raw)
	}

	return nil
}
