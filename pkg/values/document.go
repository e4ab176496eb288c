package values

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a YAML file parsed into a node tree so that it can be written
// back with its comments and key order intact.
type Document struct {
	root *yaml.Node
	path string
}

// Load parses a YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(path, data)
}

// Parse parses YAML content that was read from path.
func Parse(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if root.Kind == 0 {
		// empty file
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}

	return &Document{root: &root, path: path}, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// Lookup returns the decoded value at a dotted key path such as
// "image" or "db.images.0". The boolean is false if the path does not exist.
func (d *Document) Lookup(key string) (any, bool, error) {
	node := d.find(key)
	if node == nil {
		return nil, false, nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return v, true, nil
}

// String returns the scalar string at a dotted key path.
func (d *Document) String(key string) (string, bool) {
	node := d.find(key)
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false
	}
	return node.Value, true
}

// SetString sets a string scalar at key within the mapping found at parent
// (empty parent means the top level). The key is appended if missing; the
// parent mapping must exist.
func (d *Document) SetString(parent, key, value string) error {
	var mapping *yaml.Node
	if parent == "" {
		mapping = d.top()
	} else {
		mapping = d.find(parent)
	}
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("no mapping at %q", parent)
	}

	if node := valueAt(mapping, key); node != nil {
		setScalar(node, value)
		return nil
	}

	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
	return nil
}

// Encode renders the whole document.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the whole document back to the file it came from, keeping the
// file's permissions. The content goes to a temporary file in the same
// directory which then replaces the original, so an interrupted save never
// leaves a truncated file behind.
func (d *Document) Save() error {
	data, err := d.Encode()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "."+filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("replacing file: %w", err)
	}
	tmpName = ""
	return nil
}

func (d *Document) top() *yaml.Node {
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 {
		return nil
	}
	return d.root.Content[0]
}

func (d *Document) find(key string) *yaml.Node {
	node := d.top()
	if node == nil {
		return nil
	}

	for _, segment := range strings.Split(key, ".") {
		node = resolveAlias(node)
		switch node.Kind {
		case yaml.MappingNode:
			node = valueAt(node, segment)
		case yaml.SequenceNode:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node.Content) {
				return nil
			}
			node = node.Content[i]
		default:
			return nil
		}
		if node == nil {
			return nil
		}
	}
	return resolveAlias(node)
}

func valueAt(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// setScalar replaces a node with a string scalar. The encoder quotes the value
// when it would otherwise read back as a number or bool.
func setScalar(node *yaml.Node, value string) {
	node.Kind = yaml.ScalarNode
	node.Tag = "!!str"
	node.Value = value
	node.Content = nil
	node.Alias = nil
	if node.Style&(yaml.LiteralStyle|yaml.FoldedStyle|yaml.TaggedStyle) != 0 {
		node.Style = 0
	}
}
