package artifact

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type ChangeOp string

const (
	ChangeAdded    ChangeOp = "added"
	ChangeRemoved  ChangeOp = "removed"
	ChangeModified ChangeOp = "modified"
)

// Change describes one file that differs between two snapshots.
type Change struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Op           ChangeOp `json:"op"`
	LinesAdded   int      `json:"linesAdded"`
	LinesRemoved int      `json:"linesRemoved"`
}

// Diff lists the files added, modified and removed going from before to
// after. Files are matched by id. Order follows after, then removed files in
// before order.
func Diff(before, after Tree) []Change {
	prev := indexFiles(before)
	next := indexFiles(after)

	var out []Change
	for _, n := range flatten(after) {
		old, ok := prev[n.ID]
		switch {
		case !ok:
			out = append(out, Change{ID: n.ID, Name: n.Name, Op: ChangeAdded, LinesAdded: countLines(n.Content)})
		case old.Content != n.Content:
			added, removed := lineStats(old.Content, n.Content)
			out = append(out, Change{ID: n.ID, Name: n.Name, Op: ChangeModified, LinesAdded: added, LinesRemoved: removed})
		}
	}
	for _, n := range flatten(before) {
		if _, ok := next[n.ID]; !ok {
			out = append(out, Change{ID: n.ID, Name: n.Name, Op: ChangeRemoved, LinesRemoved: countLines(n.Content)})
		}
	}
	return out
}

func flatten(t Tree) []*Node {
	var out []*Node
	for _, root := range t {
		out = append(out, CollectFiles(root)...)
	}
	return out
}

func indexFiles(t Tree) map[string]*Node {
	files := flatten(t)
	out := make(map[string]*Node, len(files))
	for _, f := range files {
		out[f.ID] = f
	}
	return out
}

func lineStats(a, b string) (added, removed int) {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(d.Text)
		}
	}
	return added, removed
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
