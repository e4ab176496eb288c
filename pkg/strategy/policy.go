package strategy

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Policy picks the newest acceptable tag, or reports false if none qualifies.
type Policy func(tags []string) (string, bool)

// SemanticVersioning picks the highest tag that parses as a semantic version
// and is not a pre-release. Tags like "1.25-alpine" count as pre-releases.
func SemanticVersioning(tags []string) (string, bool) {
	var (
		best    *semver.Version
		bestTag string
	)
	for _, tag := range tags {
		v, err := semver.NewVersion(tag)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestTag = v, tag
		}
	}
	return bestTag, best != nil
}

// DatetimeVersioning returns a policy picking the latest tag that parses with
// the given time layout. Tags that do not parse are ignored.
func DatetimeVersioning(layout string) Policy {
	return func(tags []string) (string, bool) {
		var (
			best    time.Time
			bestTag string
			found   bool
		)
		for _, tag := range tags {
			t, err := time.Parse(layout, tag)
			if err != nil {
				continue
			}
			if !found || t.After(best) {
				best, bestTag, found = t, tag, true
			}
		}
		return bestTag, found
	}
}

type response struct {
	Tags       map[string]string `json:"tags"`
	AppVersion *string           `json:"app_version"`
}

// Respond implements the strategy side of the contract: it reads the request
// from r, applies policy to every key and writes the response to w. Keys with
// no qualifying tag are left out. When appVersionKey names a key with a
// result, that tag is also reported as the application version.
func Respond(r io.Reader, w io.Writer, policy Policy, appVersionKey string) error {
	var req map[string][]string
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}

	resp := response{Tags: make(map[string]string, len(req))}
	for key, tags := range req {
		if tag, ok := policy(tags); ok {
			resp.Tags[key] = tag
		}
	}

	if tag, ok := resp.Tags[appVersionKey]; ok && appVersionKey != "" {
		resp.AppVersion = &tag
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return nil
}
