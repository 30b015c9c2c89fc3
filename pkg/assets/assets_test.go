package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashdeck/dashboard-server/pkg/iohelper"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ScriptAndStylesheet(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "dashboard.js", "console.log(1)")
	css := writeFile(t, dir, "dashboard.css", "body{margin:0}")

	b, err := Load(js, css)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", b.Script)
	assert.Equal(t, "body{margin:0}", b.Stylesheet)
	assert.True(t, b.HasStylesheet())
}

func TestLoad_MissingScriptIsFatal(t *testing.T) {
	dir := t.TempDir()
	css := writeFile(t, dir, "dashboard.css", "body{}")

	b, err := Load(filepath.Join(dir, "dashboard.js"), css)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScriptUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, Bundle{}, b)
}

func TestLoad_ScriptIsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, filepath.Join(dir, "x.css"))
	assert.ErrorIs(t, err, ErrScriptUnavailable)
}

func TestLoad_MissingStylesheetDegrades(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "dashboard.js", "console.log(1)")
	missing := filepath.Join(dir, "dashboard.css")

	var reported string
	var reportedErr error
	b, err := LoadWithOptions(js, missing, LoadOptions{
		OnStylesheetError: func(path string, err error) {
			reported = path
			reportedErr = err
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", b.Script)
	assert.Empty(t, b.Stylesheet)
	assert.False(t, b.HasStylesheet())
	assert.Equal(t, missing, reported)
	assert.ErrorIs(t, reportedErr, os.ErrNotExist)
}

func TestLoad_MissingStylesheetWithoutCallback(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "dashboard.js", "x")

	b, err := Load(js, filepath.Join(dir, "none.css"))
	require.NoError(t, err)
	assert.Empty(t, b.Stylesheet)
}

func TestLoad_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "dashboard.js", "0123456789")
	css := writeFile(t, dir, "dashboard.css", "0123456789")

	_, err := LoadWithOptions(js, css, LoadOptions{MaxSize: 5})
	assert.ErrorIs(t, err, ErrScriptUnavailable)
	assert.ErrorIs(t, err, iohelper.ErrTooLarge)

	small := writeFile(t, dir, "small.js", "ok")
	var cssErr error
	b, err := LoadWithOptions(small, css, LoadOptions{
		MaxSize:           5,
		OnStylesheetError: func(_ string, err error) { cssErr = err },
	})
	require.NoError(t, err)
	assert.Empty(t, b.Stylesheet)
	assert.ErrorIs(t, cssErr, iohelper.ErrTooLarge)
}

func TestLoad_VerbatimContent(t *testing.T) {
	dir := t.TempDir()
	raw := "const s = `<b>&amp;</b>`;\nif (a < b && c > d) {}\n"
	js := writeFile(t, dir, "dashboard.js", raw)

	b, err := Load(js, filepath.Join(dir, "none.css"))
	require.NoError(t, err)
	assert.Equal(t, raw, b.Script)
}

func TestBundle_HasStylesheet(t *testing.T) {
	assert.False(t, Bundle{}.HasStylesheet())
	assert.False(t, Bundle{Stylesheet: " \n\t"}.HasStylesheet())
	assert.True(t, Bundle{Stylesheet: "p{}"}.HasStylesheet())
}
