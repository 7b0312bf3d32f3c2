package seed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/artifact"
)

func TestSystemHasWellKnownNodes(t *testing.T) {
	sys := System()
	for _, id := range []string{ChartersID, CommandsID, StandardsID, TemplatesID, TechTemplatesID, AutotestTemplatesID, StdSpecID, CmdSpecifyID, "tpl-spec"} {
		assert.NotNil(t, artifact.Find(sys, id), id)
	}
	spec, ok := artifact.FileContent(sys, "tpl-spec")
	require.True(t, ok)
	assert.Contains(t, spec, "> **Pending Generation")
}

func TestSystemReturnsFreshCopies(t *testing.T) {
	a := System()
	b := System()
	assert.NotSame(t, artifact.Find(a, "ch-core"), artifact.Find(b, "ch-core"))
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpYAML(&buf, System()))

	tree, err := LoadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(artifact.CollectFiles(System()[0])), len(artifact.CollectFiles(tree[0])))
	content, _ := artifact.FileContent(tree, "ch-web-payment")
	assert.Contains(t, content, "支付")
}

func TestLoadYAMLRejectsDuplicateIDs(t *testing.T) {
	doc := `
- id: a
  name: A
  type: folder
  children:
    - id: b
      name: b.md
      type: file
      content: x
    - id: b
      name: c.md
      type: file
`
	_, err := LoadYAML(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
