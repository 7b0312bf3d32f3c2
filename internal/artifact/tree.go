package artifact

import (
	"strings"

	"github.com/google/uuid"
)

// Find returns the first node with the given id in depth-first order, or nil.
func Find(t Tree, id string) *Node {
	return FindByPredicate(t, func(n *Node) bool { return n.ID == id })
}

// FindByPredicate returns the first node (depth-first, preorder) matching pred.
func FindByPredicate(t Tree, pred func(*Node) bool) *Node {
	for _, n := range t {
		if n == nil {
			continue
		}
		if pred(n) {
			return n
		}
		if found := FindByPredicate(n.Children, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindChild returns the direct child of folder with the given name and kind.
func FindChild(folder *Node, name string, kind Kind) *Node {
	if folder == nil {
		return nil
	}
	for _, c := range folder.Children {
		if c != nil && c.Name == name && c.Kind == kind {
			return c
		}
	}
	return nil
}

// FileContent returns the content of the file with the given id.
func FileContent(t Tree, id string) (string, bool) {
	n := Find(t, id)
	if !n.IsFile() {
		return "", false
	}
	return n.Content, true
}

// CollectFiles flattens n into its file nodes, depth-first preorder.
func CollectFiles(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	if n.IsFile() {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, CollectFiles(c)...)
	}
	return out
}

// AddFileToFolder appends a new file under folderID. The file id is generated.
func AddFileToFolder(t Tree, folderID, name, content string) Tree {
	return AddNode(t, folderID, File(newNodeID("file"), name, content))
}

// AddNode appends child under the folder with folderID.
func AddNode(t Tree, folderID string, child *Node) Tree {
	if child == nil {
		return t
	}
	out, _ := updateNode(t, folderID, func(n *Node) *Node {
		if !n.IsFolder() {
			return n
		}
		cp := *n
		cp.Children = append(copyNodes(n.Children), child)
		return &cp
	})
	return out
}

// RenameNode sets the name of the node with the given id.
func RenameNode(t Tree, id, name string) Tree {
	out, _ := updateNode(t, id, func(n *Node) *Node {
		cp := *n
		cp.Name = name
		return &cp
	})
	return out
}

// UpdateFileContent replaces the content of the file with the given id.
// Folders are left untouched.
func UpdateFileContent(t Tree, id, content string) Tree {
	out, _ := updateNode(t, id, func(n *Node) *Node {
		if !n.IsFile() {
			return n
		}
		cp := *n
		cp.Content = content
		return &cp
	})
	return out
}

// DeleteNode removes every node with the given id, at any depth.
func DeleteNode(t Tree, id string) Tree {
	out, _ := deleteNodes(t, id)
	return out
}

// UpsertFile writes a file into the folder with folderID. An existing file
// with the same name is replaced in place (keeping its position and id);
// otherwise file is appended. The returned id is the id of the stored file.
func UpsertFile(t Tree, folderID string, file *Node) (Tree, string) {
	folder := Find(t, folderID)
	if !folder.IsFolder() || file == nil {
		return t, ""
	}
	if existing := FindChild(folder, file.Name, KindFile); existing != nil {
		return UpdateFileContent(t, existing.ID, file.Content), existing.ID
	}
	return AddNode(t, folderID, file), file.ID
}

// EnsureFolder returns the id of the direct child folder of parentID named
// name, creating it when missing.
func EnsureFolder(t Tree, parentID, name string) (Tree, string) {
	parent := Find(t, parentID)
	if !parent.IsFolder() {
		return t, ""
	}
	if existing := FindChild(parent, name, KindFolder); existing != nil {
		return t, existing.ID
	}
	folder := Folder("folder-"+name+"-"+newNodeID("")[:9], name)
	folder.IsOpen = true
	return AddNode(t, parentID, folder), folder.ID
}

func updateNode(nodes []*Node, id string, fn func(*Node) *Node) ([]*Node, bool) {
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			next := fn(n)
			if next == n {
				return nodes, false
			}
			out := copyNodes(nodes)
			out[i] = next
			return out, true
		}
		if len(n.Children) == 0 {
			continue
		}
		if kids, ok := updateNode(n.Children, id, fn); ok {
			cp := *n
			cp.Children = kids
			out := copyNodes(nodes)
			out[i] = &cp
			return out, true
		}
	}
	return nodes, false
}

func deleteNodes(nodes []*Node, id string) ([]*Node, bool) {
	changed := false
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			changed = true
			continue
		}
		if len(n.Children) > 0 {
			if kids, ok := deleteNodes(n.Children, id); ok {
				cp := *n
				cp.Children = kids
				out = append(out, &cp)
				changed = true
				continue
			}
		}
		out = append(out, n)
	}
	if !changed {
		return nodes, false
	}
	return out, true
}

func copyNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes), len(nodes)+1)
	copy(out, nodes)
	return out
}

func newNodeID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "-" + id[:12]
}
