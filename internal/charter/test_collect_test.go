package charter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/artifact"
	"speckit/internal/platform"
	"speckit/internal/seed"
)

func headers(blocks []string) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = strings.SplitN(b, "\n", 2)[0]
	}
	return out
}

func TestCollectChartersInAuthorityOrder(t *testing.T) {
	b := Collect(seed.System(), seed.CmdTechID, seed.TechTemplatesID, []platform.Tag{platform.Web, platform.Backend})

	assert.Equal(t, []string{
		"--- CURRENT COMMAND DEFINITION ---",
		"--- DEPARTMENT CORE CHARTER: 00_constitution-core.md ---",
		"--- DEPARTMENT CORE CHARTER: 99_constitution-summary.md ---",
		"--- DEPARTMENT PRODUCT CHARTER: constitution-product.md ---",
		"--- WEB DOMAIN CHARTER (constitution-web.md) ---",
		"--- WEB DOMAIN CHARTER (sub-payment-rules.md) ---",
		"--- BACKEND DOMAIN CHARTER (constitution-backend.md) ---",
	}, headers(b.Charters))
}

func TestCollectTemplatesByPlatform(t *testing.T) {
	b := Collect(seed.System(), seed.CmdTechID, seed.TechTemplatesID, []platform.Tag{platform.App})

	assert.Equal(t, []string{
		"--- TEMPLATE: app-template.md ---",
		"--- TEMPLATE: integration-template.md ---",
		"--- TEMPLATE: overview-template.md ---",
	}, headers(b.Templates))
}

func TestCollectSpecTemplate(t *testing.T) {
	b := Collect(seed.System(), seed.CmdSpecifyID, seed.TemplatesID, []platform.Tag{platform.Firmware})

	hs := headers(b.Templates)
	assert.Contains(t, hs, "--- TEMPLATE: spec.md ---")
	assert.Contains(t, hs, "--- TEMPLATE: firmware-template.md ---")
}

func TestCollectToleratesMissingNodes(t *testing.T) {
	b := Collect(artifact.Tree{}, "cmd-none", "tpl-none", platform.Fallback)
	assert.Empty(t, b.Charters)
	assert.Empty(t, b.Templates)
}

func TestCollectMatchesFolderNamesCaseInsensitively(t *testing.T) {
	system := artifact.Tree{
		artifact.Folder(seed.ChartersID, "charters",
			artifact.Folder("p", "PRODUCT", artifact.File("p1", "rules.md", "product rule")),
			artifact.Folder("w", "wEb", artifact.Folder("nested", "sub", artifact.File("w1", "deep.md", "deep rule"))),
			artifact.File("empty", "empty.md", ""),
		),
	}
	b := Collect(system, "cmd", "tpl", []platform.Tag{platform.Web})
	assert.Equal(t, []string{
		"--- DEPARTMENT PRODUCT CHARTER: rules.md ---\nproduct rule",
		"--- WEB DOMAIN CHARTER (deep.md) ---\ndeep rule",
	}, b.Charters)
}

func TestProductCharter(t *testing.T) {
	got := ProductCharter(seed.System())
	assert.Contains(t, got, "产品宪章")

	flat := artifact.Tree{artifact.Folder(seed.ChartersID, "charters", artifact.File("x", "constitution-product.md", "flat"))}
	assert.Equal(t, "flat", ProductCharter(flat))
	assert.Empty(t, ProductCharter(artifact.Tree{}))
}

func TestSystemContextSections(t *testing.T) {
	ctx := SystemContext([]string{"C1", "C2"}, []string{"T1"}, []string{"S1", "S2"})

	require.True(t, strings.HasPrefix(strings.TrimSpace(ctx), "You are SpecKit AI"))
	assert.Contains(t, ctx, "--- STANDARDS (MUST FOLLOW) ---\nS1\n\nS2")
	assert.Contains(t, ctx, "--- CONSTITUTION / CHARTERS ---\nC1\n\nC2")
	assert.Contains(t, ctx, "--- TEMPLATES ---\nT1")
	assert.Less(t, strings.Index(ctx, "STANDARDS"), strings.Index(ctx, "CHARTERS ---"))
	assert.Less(t, strings.Index(ctx, "CHARTERS ---"), strings.Index(ctx, "--- TEMPLATES"))
}
