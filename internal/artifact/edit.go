package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// EditOp names a manual change to a tree.
type EditOp string

const (
	EditAddFile   EditOp = "add_file"
	EditAddFolder EditOp = "add_folder"
	EditRename    EditOp = "rename"
	EditDelete    EditOp = "delete"
	EditUpdate    EditOp = "update"
)

// Edit is a manual change requested by a user. ID targets an existing node;
// ParentID is the folder receiving a new node.
type Edit struct {
	Op       EditOp `json:"op"`
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name,omitempty"`
	Content  string `json:"content,omitempty"`
}

var (
	ErrNodeNotFound = errors.New("artifact: node not found")
	ErrInvalidEdit  = errors.New("artifact: invalid edit")
)

// ApplyEdit returns t with e applied and the id of the node it touched.
func ApplyEdit(t Tree, e Edit) (Tree, string, error) {
	switch e.Op {
	case EditAddFile, EditAddFolder:
		parent := Find(t, e.ParentID)
		if !parent.IsFolder() {
			return t, "", fmt.Errorf("%w: folder %q", ErrNodeNotFound, e.ParentID)
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return t, "", fmt.Errorf("%w: name is required", ErrInvalidEdit)
		}
		if e.Op == EditAddFolder {
			folder := Folder(newNodeID("folder"), name)
			return AddNode(t, parent.ID, folder), folder.ID, nil
		}
		file := File(newNodeID("file"), name, e.Content)
		return AddNode(t, parent.ID, file), file.ID, nil
	case EditRename:
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return t, "", fmt.Errorf("%w: name is required", ErrInvalidEdit)
		}
		if Find(t, e.ID) == nil {
			return t, "", fmt.Errorf("%w: %q", ErrNodeNotFound, e.ID)
		}
		return RenameNode(t, e.ID, name), e.ID, nil
	case EditDelete:
		if Find(t, e.ID) == nil {
			return t, "", fmt.Errorf("%w: %q", ErrNodeNotFound, e.ID)
		}
		return DeleteNode(t, e.ID), e.ID, nil
	case EditUpdate:
		if !Find(t, e.ID).IsFile() {
			return t, "", fmt.Errorf("%w: file %q", ErrNodeNotFound, e.ID)
		}
		return UpdateFileContent(t, e.ID, e.Content), e.ID, nil
	}
	return t, "", fmt.Errorf("%w: unknown op %q", ErrInvalidEdit, e.Op)
}
