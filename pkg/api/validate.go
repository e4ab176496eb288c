package api

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ValidateUpgradeInfo checks raw upgrade_info.json content: an object with a
// string "filename", an array "keys" of strings and an optional string
// "test_filename".
func ValidateUpgradeInfo(data []byte) error {
	_, err := ParseUpgradeInfo(data)
	return err
}

// ParseUpgradeInfo validates raw upgrade_info.json content and builds the
// result from the validated members only.
func ParseUpgradeInfo(data []byte) (*UpgradeInfo, error) {
	fail := func(format string, args ...any) error {
		return &ValidationError{Subject: "upgrade info", Reason: fmt.Sprintf(format, args...)}
	}

	if !gjson.ValidBytes(data) {
		return nil, fail("not valid JSON")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fail("expected a JSON object")
	}

	filename := doc.Get("filename")
	if !filename.Exists() {
		return nil, fail("'filename' is a required property")
	}
	if filename.Type != gjson.String {
		return nil, fail("'filename' must be a string, got %s", filename.Type)
	}

	keys := doc.Get("keys")
	if !keys.Exists() {
		return nil, fail("'keys' is a required property")
	}
	if !keys.IsArray() {
		return nil, fail("'keys' must be an array")
	}
	for i, k := range keys.Array() {
		if k.Type != gjson.String {
			return nil, fail("keys[%d] must be a string, got %s", i, k.Type)
		}
	}

	tf := doc.Get("test_filename")
	if tf.Exists() && tf.Type != gjson.String {
		return nil, fail("'test_filename' must be a string, got %s", tf.Type)
	}

	info := &UpgradeInfo{Filename: filename.Str, Keys: []string{}, TestFilename: tf.Str}
	for _, k := range keys.Array() {
		info.Keys = append(info.Keys, k.Str)
	}
	return info, nil
}

// ValidateImageReference checks that v is a mapping with string "repository"
// and "tag" fields.
func ValidateImageReference(v any) (ImageReference, error) {
	fail := func(format string, args ...any) (ImageReference, error) {
		return ImageReference{}, &ValidationError{Subject: "image reference", Reason: fmt.Sprintf(format, args...)}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return fail("expected a mapping, got %T", v)
	}

	var ref ImageReference
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"repository", &ref.Repository},
		{"tag", &ref.Tag},
	} {
		raw, exists := m[field.name]
		if !exists {
			return fail("%q is a required property", field.name)
		}
		s, ok := raw.(string)
		if !ok {
			return fail("%q must be a string, got %T", field.name, raw)
		}
		*field.dst = s
	}

	return ref, nil
}
