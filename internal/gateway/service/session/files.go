package session

import (
	"context"
	"fmt"

	"speckit/internal/artifact"
	"speckit/internal/project"
)

// EditFile applies a manual change to a session's output tree. A new file
// becomes the active file; deleting the active file, or a folder holding
// it, clears the selection.
func (s *Service) EditFile(ctx context.Context, user, id string, e artifact.Edit) (project.State, error) {
	return s.update(ctx, normalizeUser(user), id, func(st project.State) (project.State, error) {
		files, touched, err := artifact.ApplyEdit(st.Files, e)
		if err != nil {
			return st, err
		}
		switch e.Op {
		case artifact.EditAddFile:
			st.ActiveFileID = touched
		case artifact.EditDelete:
			if st.ActiveFileID != "" && containsNode(artifact.Find(st.Files, touched), st.ActiveFileID) {
				st.ActiveFileID = ""
			}
		}
		st.Files = files
		return st, nil
	})
}

// SelectFile makes fileID the active file.
func (s *Service) SelectFile(ctx context.Context, user, id, fileID string) (project.State, error) {
	return s.update(ctx, normalizeUser(user), id, func(st project.State) (project.State, error) {
		if !artifact.Find(st.Files, fileID).IsFile() {
			return st, fmt.Errorf("%w: file %q", artifact.ErrNodeNotFound, fileID)
		}
		st.ActiveFileID = fileID
		return st, nil
	})
}

func containsNode(n *artifact.Node, id string) bool {
	return artifact.Find(artifact.Tree{n}, id) != nil
}
