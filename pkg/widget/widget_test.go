package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashdeck/dashboard-server/pkg/assets"
)

func TestRender_WithStylesheet(t *testing.T) {
	got, err := Render(assets.Bundle{Script: "console.log(1)", Stylesheet: "body{margin:0}"})
	require.NoError(t, err)
	want := `<div id="dashboard-root"></div>
<style>body{margin:0}</style>
<script type="module">console.log(1)</script>`
	assert.Equal(t, want, got)
}

func TestRender_WithoutStylesheet(t *testing.T) {
	got, err := Render(assets.Bundle{Script: "console.log(1)"})
	require.NoError(t, err)
	assert.NotContains(t, got, "<style>")
	assert.Equal(t, "<div id=\"dashboard-root\"></div>\n\n<script type=\"module\">console.log(1)</script>", got)
}

func TestRender_WhitespaceStylesheetIsOmitted(t *testing.T) {
	got, err := Render(assets.Bundle{Script: "console.log(1)", Stylesheet: "\n  \t\n"})
	require.NoError(t, err)
	assert.NotContains(t, got, "<style>")
	assert.Equal(t, "<div id=\"dashboard-root\"></div>\n\n<script type=\"module\">console.log(1)</script>", got)
}

func TestRender_StylesheetKeptVerbatim(t *testing.T) {
	css := "\n  body { margin: 0 }\n"
	got, err := Render(assets.Bundle{Script: "x", Stylesheet: css})
	require.NoError(t, err)
	assert.Contains(t, got, "<style>"+css+"</style>")
}

func TestRender_ScriptVerbatim(t *testing.T) {
	script := "const html = `<p class=\"x\">a & b</p>`;\nif (1 < 2) { console.log('ok'); }\n"
	got, err := Render(assets.Bundle{Script: script, Stylesheet: "a > b { color: red }"})
	require.NoError(t, err)
	assert.Contains(t, got, script)
	assert.Contains(t, got, "<style>a > b { color: red }</style>")
	assert.NotContains(t, got, "&lt;")
	assert.NotContains(t, got, "&amp;")
}

func TestRender_Trimmed(t *testing.T) {
	got, err := Render(assets.Bundle{Script: "x"})
	require.NoError(t, err)
	assert.Equal(t, got, strings.TrimSpace(got))
	assert.True(t, strings.HasPrefix(got, `<div id="dashboard-root">`))
	assert.True(t, strings.HasSuffix(got, `</script>`))
}

func TestRender_Deterministic(t *testing.T) {
	b := assets.Bundle{Script: "console.log(1)", Stylesheet: "p{}"}
	first, err := Render(b)
	require.NoError(t, err)
	second, err := Render(b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_TemplateDirectivesInScriptAreInert(t *testing.T) {
	script := `console.log("{{ .RootID }}")`
	got, err := Render(assets.Bundle{Script: script})
	require.NoError(t, err)
	assert.Contains(t, got, script)
}
