// Package charter assembles the charters, standards and templates that
// govern one generation call.
package charter

import (
	"fmt"
	"strings"

	"speckit/internal/artifact"
	"speckit/internal/platform"
	"speckit/internal/seed"
)

// Bundle is the labeled text gathered for one operation.
type Bundle struct {
	Charters  []string
	Templates []string
}

// Collect gathers, from the system library, the command document named by
// commandID followed by every charter that applies to platforms, and the
// templates under templateFolderID relevant to those platforms.
//
// Charter order matters: later blocks override earlier ones on conflict.
func Collect(system artifact.Tree, commandID, templateFolderID string, platforms []platform.Tag) Bundle {
	var b Bundle

	if cmd := artifact.Find(system, commandID); cmd != nil && cmd.Content != "" {
		b.Charters = append(b.Charters, "--- CURRENT COMMAND DEFINITION ---\n"+cmd.Content)
	}

	if root := artifact.Find(system, seed.ChartersID); root != nil {
		for _, n := range root.Children {
			if n.IsFile() && n.Content != "" {
				b.Charters = append(b.Charters, fmt.Sprintf("--- DEPARTMENT CORE CHARTER: %s ---\n%s", n.Name, n.Content))
			}
		}
		if product := childFolderFold(root, "product"); product != nil {
			for _, n := range artifact.CollectFiles(product) {
				if n.Content != "" {
					b.Charters = append(b.Charters, fmt.Sprintf("--- DEPARTMENT PRODUCT CHARTER: %s ---\n%s", n.Name, n.Content))
				}
			}
		}
		for _, p := range platforms {
			folder := childFolderFold(root, string(p))
			if folder == nil {
				continue
			}
			label := strings.ToUpper(string(p))
			for _, n := range artifact.CollectFiles(folder) {
				if n.Content != "" {
					b.Charters = append(b.Charters, fmt.Sprintf("--- %s DOMAIN CHARTER (%s) ---\n%s", label, n.Name, n.Content))
				}
			}
		}
	}

	if tpl := artifact.Find(system, templateFolderID); tpl != nil {
		for _, child := range tpl.Children {
			for _, n := range artifact.CollectFiles(child) {
				if relevantTemplate(n.Name, platforms) {
					b.Templates = append(b.Templates, fmt.Sprintf("--- TEMPLATE: %s ---\n%s", n.Name, n.Content))
				}
			}
		}
	}
	return b
}

// ProductCharter returns the concatenated product charter files, or the
// single product charter file when the library stores it flat.
func ProductCharter(system artifact.Tree) string {
	root := artifact.Find(system, seed.ChartersID)
	if root == nil {
		return ""
	}
	node := artifact.FindByPredicate(root.Children, func(n *artifact.Node) bool {
		return n.Name == "Product" || n.Name == "constitution-product.md"
	})
	switch {
	case node.IsFile():
		return node.Content
	case node.IsFolder():
		var sb strings.Builder
		for _, f := range artifact.CollectFiles(node) {
			sb.WriteString("\n")
			sb.WriteString(f.Content)
		}
		return sb.String()
	}
	return ""
}

func childFolderFold(parent *artifact.Node, name string) *artifact.Node {
	for _, c := range parent.Children {
		if c.IsFolder() && strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func relevantTemplate(name string, platforms []platform.Tag) bool {
	lower := strings.ToLower(name)
	for _, p := range platforms {
		if strings.Contains(lower, string(p)) {
			return true
		}
	}
	return strings.Contains(name, "overview") || strings.Contains(name, "integration") || name == "spec.md"
}
