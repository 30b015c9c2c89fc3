package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
)

func init() {
	SetNoColor(true)
}

func TestVersionMatchesDefaults(t *testing.T) {
	assert.Equal(t, defaults.Version, Version)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	out := buf.String()
	assert.Contains(t, out, "v"+Version)
	assert.Contains(t, out, "|_|")
}

func TestSilentMode(t *testing.T) {
	SetSilent(true)
	t.Cleanup(func() { SetSilent(false) })

	var buf bytes.Buffer
	PrintBanner(&buf)
	PrintStartup(&buf, Startup{Transport: "stdio"})
	PrintSuccess(&buf, "ok")
	PrintWarning(&buf, "careful")
	assert.Empty(t, buf.String())

	PrintError(&buf, "broken")
	assert.Contains(t, buf.String(), "broken")
}

func TestPrintStartup(t *testing.T) {
	var buf bytes.Buffer
	PrintStartup(&buf, Startup{
		Transport:      "stdio",
		DashboardURL:   "http://localhost:3000",
		SnapshotSource: "built-in",
		Organizations:  5,
		OverallStatus:  67,
	})
	out := buf.String()

	assert.Contains(t, out, "Transport")
	assert.Contains(t, out, "http://localhost:3000")
	assert.Contains(t, out, "built-in")
	assert.Contains(t, out, "67%")
	assert.Contains(t, out, "none")
	assert.NotContains(t, out, "MCP Address", "empty values are skipped")
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "snapshot valid")
	PrintWarning(&buf, "stylesheet missing")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "snapshot valid")
	assert.Contains(t, lines[1], "stylesheet missing")
}

func TestIcon(t *testing.T) {
	got := Icon("✔", "[+]")
	if UnicodeTerminal() {
		assert.Equal(t, "✔", got)
	} else {
		assert.Equal(t, "[+]", got)
	}
}

func TestSanitizeString(t *testing.T) {
	if UnicodeTerminal() {
		t.Skip("stderr is a Unicode terminal")
	}
	assert.Equal(t, "ok  café", SanitizeString("ok ✔ café"))
	assert.Equal(t, "plain", SanitizeString("plain"))
	assert.Equal(t, "warn", SanitizeString("warn\ufe0f"))
}

func TestComplianceStyle(t *testing.T) {
	assert.Equal(t, Success, ComplianceStyle(80).GetForeground())
	assert.Equal(t, Warning, ComplianceStyle(67).GetForeground())
	assert.Equal(t, Error, ComplianceStyle(10).GetForeground())
}

func TestSeverityStyle(t *testing.T) {
	assert.Equal(t, Critical, SeverityStyle("critical").GetForeground())
	assert.Equal(t, Muted, SeverityStyle("other").GetForeground())
}
