package artifact

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is one entry of an artifact tree. Folders carry Children, files carry
// Content. Nodes reachable from a Tree are shared between snapshots and must
// be treated as read-only; use the functions in this package to derive a
// modified tree.
type Node struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Kind     Kind    `json:"type" yaml:"type"`
	Content  string  `json:"content,omitempty" yaml:"content,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	IsOpen   bool    `json:"isOpen,omitempty" yaml:"-"`
}

// Tree is an ordered forest of root nodes.
type Tree []*Node

func (n *Node) IsFile() bool   { return n != nil && n.Kind == KindFile }
func (n *Node) IsFolder() bool { return n != nil && n.Kind == KindFolder }

// File builds a file node.
func File(id, name, content string) *Node {
	return &Node{ID: id, Name: name, Kind: KindFile, Content: content}
}

// Folder builds a folder node with the given children.
func Folder(id, name string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{ID: id, Name: name, Kind: KindFolder, Children: children}
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = cloneNode(c)
		}
	}
	return &cp
}
