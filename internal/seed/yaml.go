package seed

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"speckit/internal/artifact"
)

// LoadYAML reads a system library from YAML. The document is a list of
// root nodes using the same field names as the JSON form.
func LoadYAML(r io.Reader) (artifact.Tree, error) {
	var tree artifact.Tree
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode library yaml: %w", err)
	}
	if err := validate(tree, map[string]struct{}{}); err != nil {
		return nil, err
	}
	return tree, nil
}

// DumpYAML writes tree as YAML.
func DumpYAML(w io.Writer, tree artifact.Tree) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encode library yaml: %w", err)
	}
	return enc.Close()
}

func validate(nodes []*artifact.Node, seen map[string]struct{}) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == "" {
			return fmt.Errorf("library node %q has no id", n.Name)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate library node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
		switch n.Kind {
		case artifact.KindFile:
			if len(n.Children) > 0 {
				return fmt.Errorf("library file %q has children", n.ID)
			}
		case artifact.KindFolder:
			if err := validate(n.Children, seen); err != nil {
				return err
			}
		default:
			return fmt.Errorf("library node %q has unknown type %q", n.ID, n.Kind)
		}
	}
	return nil
}
