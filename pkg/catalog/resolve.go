package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/image"
	"github.com/systemstart/catalog-update/pkg/values"
)

// resolveKeys fills one outcome per declared key. A failure only ever marks
// the key it concerns.
func (i *Item) resolveKeys(ctx context.Context, doc *values.Document, keys []string, details *api.UpgradeDetails) {
	for _, key := range keys {
		if _, seen := details.Keys[key]; seen {
			continue
		}
		outcome := api.NewKeyOutcome()
		details.KeyOrder = append(details.KeyOrder, key)
		details.Keys[key] = outcome

		i.resolveKey(ctx, doc, key, outcome)
	}
}

func (i *Item) resolveKey(ctx context.Context, doc *values.Document, key string, outcome *api.KeyOutcome) {
	log := slog.With("item", i.Name(), "key", key)

	val, found, err := doc.Lookup(key)
	if err != nil {
		log.Warn("could not decode key", "error", err)
	}
	outcome.Value = val
	if !found || isFalsy(val) {
		log.Warn("key not found in values file")
		return
	}

	ref, err := api.ValidateImageReference(val)
	if err != nil {
		outcome.State = api.KeyInvalid
		outcome.Error = "image format invalid: " + reason(err)
		log.Warn("invalid image reference", "error", err)
		return
	}
	outcome.CurrentTag = ref.Tag

	normalized := image.Parse(ref.Repository)
	tags, err := i.Tags.ListTags(ctx, normalized)
	if err != nil {
		outcome.State = api.KeyLookupFailed
		outcome.Error = "failed to retrieve tags: " + err.Error()
		log.Warn("failed to retrieve tags", "image", normalized.Name(), "error", err)
		return
	}

	outcome.State = api.KeyResolved
	outcome.AvailableTags = tags
	outcome.Error = ""
	log.Debug("resolved available tags", "image", normalized.Name(), "count", len(tags))
}

func reason(err error) string {
	var vErr *api.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason
	}
	return err.Error()
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case float64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
