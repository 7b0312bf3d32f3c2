package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	return Tree{
		Folder("root", "project",
			Folder("specs", "specs",
				File("spec.md", "spec.md", "# Spec"),
				File("checklist.md", "checklist.md", "- [ ] item"),
			),
			Folder("tech", "tech-design",
				File("tech-web", "tech-web.md", "web"),
			),
		),
	}
}

func TestFindDepthFirst(t *testing.T) {
	tree := sampleTree()

	n := Find(tree, "checklist.md")
	require.NotNil(t, n)
	assert.Equal(t, "checklist.md", n.Name)

	assert.Nil(t, Find(tree, "missing"))

	first := FindByPredicate(tree, func(n *Node) bool { return n.IsFile() })
	require.NotNil(t, first)
	assert.Equal(t, "spec.md", first.ID)
}

func TestCollectFilesPreorder(t *testing.T) {
	files := CollectFiles(sampleTree()[0])
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"spec.md", "checklist.md", "tech-web"}, ids)
}

func TestMutationsDoNotTouchInput(t *testing.T) {
	tree := sampleTree()
	snapshot := tree.Clone()

	updated := UpdateFileContent(tree, "spec.md", "# Spec v2")
	renamed := RenameNode(tree, "tech", "tech")
	deleted := DeleteNode(tree, "checklist.md")
	added := AddFileToFolder(tree, "specs", "notes.md", "n")

	assert.Equal(t, snapshot, tree)

	content, ok := FileContent(updated, "spec.md")
	require.True(t, ok)
	assert.Equal(t, "# Spec v2", content)

	assert.Equal(t, "tech", Find(renamed, "tech").Name)
	assert.Nil(t, Find(deleted, "checklist.md"))
	assert.Len(t, Find(added, "specs").Children, 3)
}

func TestUnrelatedSubtreesAreShared(t *testing.T) {
	tree := sampleTree()
	updated := UpdateFileContent(tree, "spec.md", "changed")

	assert.Same(t, Find(tree, "tech"), Find(updated, "tech"))
	assert.NotSame(t, Find(tree, "specs"), Find(updated, "specs"))
}

func TestMissingIDIsNoop(t *testing.T) {
	tree := sampleTree()

	assert.Equal(t, tree, UpdateFileContent(tree, "nope", "x"))
	assert.Equal(t, tree, RenameNode(tree, "nope", "x"))
	assert.Equal(t, tree, DeleteNode(tree, "nope"))
	assert.Equal(t, tree, AddFileToFolder(tree, "nope", "a.md", "x"))
	// Adding into a file is not possible either.
	assert.Equal(t, tree, AddFileToFolder(tree, "spec.md", "a.md", "x"))
	// Folders have no content.
	assert.Equal(t, tree, UpdateFileContent(tree, "specs", "x"))
}

func TestUpsertFileReplacesByName(t *testing.T) {
	tree := sampleTree()

	next, id := UpsertFile(tree, "tech", File("tech-web-2", "tech-web.md", "web v2"))
	assert.Equal(t, "tech-web", id)
	assert.Len(t, Find(next, "tech").Children, 1)
	content, _ := FileContent(next, "tech-web")
	assert.Equal(t, "web v2", content)

	next, id = UpsertFile(next, "tech", File("tech-app", "tech-app.md", "app"))
	assert.Equal(t, "tech-app", id)
	assert.Len(t, Find(next, "tech").Children, 2)
}

func TestEnsureFolder(t *testing.T) {
	tree := sampleTree()

	same, id := EnsureFolder(tree, "root", "specs")
	assert.Equal(t, "specs", id)
	assert.Equal(t, tree, same)

	next, id := EnsureFolder(tree, "root", "test-plans")
	require.NotEmpty(t, id)
	folder := Find(next, id)
	require.NotNil(t, folder)
	assert.Equal(t, "test-plans", folder.Name)
	assert.True(t, folder.IsFolder())
	assert.Nil(t, Find(tree, id))
}

func TestPatchMissingKeepsEdits(t *testing.T) {
	baseline := Tree{
		Folder("sys", "System",
			File("a", "a.md", "seed a"),
			File("b", "b.md", "seed b"),
		),
		Folder("extra", "Extra"),
	}
	current := Tree{
		Folder("sys", "System",
			File("a", "a.md", "edited a"),
		),
	}

	patched := PatchMissing(current, baseline)

	content, _ := FileContent(patched, "a")
	assert.Equal(t, "edited a", content)
	content, _ = FileContent(patched, "b")
	assert.Equal(t, "seed b", content)
	assert.NotNil(t, Find(patched, "extra"))
	assert.Len(t, current[0].Children, 1)
}

func TestDiffReportsLineStats(t *testing.T) {
	before := sampleTree()
	after := UpdateFileContent(before, "spec.md", "# Spec\n## 1\nbody")
	after = DeleteNode(after, "checklist.md")
	after = AddNode(after, "specs", File("tasks.md", "tasks.md", "- [ ] a\n- [ ] b"))

	changes := Diff(before, after)
	require.Len(t, changes, 3)

	assert.Equal(t, Change{ID: "spec.md", Name: "spec.md", Op: ChangeModified, LinesAdded: 3, LinesRemoved: 1}, changes[0])
	assert.Equal(t, ChangeAdded, changes[1].Op)
	assert.Equal(t, 2, changes[1].LinesAdded)
	assert.Equal(t, ChangeRemoved, changes[2].Op)
	assert.Equal(t, "checklist.md", changes[2].ID)

	assert.Empty(t, Diff(before, before))
}
