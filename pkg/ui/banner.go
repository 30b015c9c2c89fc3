// Package ui renders the human-facing startup banner and status lines on
// stderr. Machine output (stdio MCP traffic, snapshot JSON) never goes
// through this package.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
)

// Version information. These can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/dashdeck/dashboard-server/pkg/ui.Commit=abc123"
var (
	Version   = defaults.Version
	BuildDate = "unknown"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses all output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const bannerArt = `
     _           _     _                         _
  __| | __ _ ___| |__ | |__   ___   __ _ _ __ __| |
 / _' |/ _' / __| '_ \| '_ \ / _ \ / _' | '__/ _' |
| (_| | (_| \__ \ | | | |_) | (_) | (_| | | | (_| |
 \__,_|\__,_|___/_| |_|_.__/ \___/ \__,_|_|  \__,_|
`

const bannerSeparator = "__________________________________________________"

// PrintBanner writes the ASCII banner and version line to w.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(w, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "%s v%s\n\n", strings.Repeat(" ", 20), VersionStyle.Render(Version))
}

// Startup describes a running server for the startup summary.
type Startup struct {
	Transport      string
	MCPAddr        string
	DashboardURL   string
	SnapshotSource string
	Organizations  int
	OverallStatus  int
	Stylesheet     bool
}

// PrintStartup writes the ffuf-style option block for s to w. Empty
// values are skipped.
func PrintStartup(w io.Writer, s Startup) {
	if IsSilent() {
		return
	}
	stylesheet := "none"
	if s.Stylesheet {
		stylesheet = "loaded"
	}
	printOption(w, "Transport", s.Transport)
	printOption(w, "MCP Address", s.MCPAddr)
	if s.DashboardURL != "" {
		fmt.Fprintf(w, " :: %s : %s\n", ConfigLabelStyle.Render(fmt.Sprintf("%-16s", "Dashboard")), URLStyle.Render(s.DashboardURL))
	}
	printOption(w, "Snapshot", s.SnapshotSource)
	printOption(w, "Organizations", fmt.Sprint(s.Organizations))
	fmt.Fprintf(w, " :: %s : %s\n", ConfigLabelStyle.Render(fmt.Sprintf("%-16s", "Compliance")), ComplianceStyle(s.OverallStatus).Render(fmt.Sprintf("%d%%", s.OverallStatus)))
	printOption(w, "Stylesheet", stylesheet)
	fmt.Fprintf(w, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// printOption prints " :: Name             : Value".
func printOption(w io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, " :: %s : %s\n", ConfigLabelStyle.Render(fmt.Sprintf("%-16s", name)), ConfigValueStyle.Render(value))
}

// PrintSuccess prints a success line to w.
func PrintSuccess(w io.Writer, message string) {
	printStatus(w, SuccessStyle, Icon("✔", "[+]"), message)
}

// PrintWarning prints a warning line to w.
func PrintWarning(w io.Writer, message string) {
	printStatus(w, WarningStyle, Icon("⚠", "[!]"), message)
}

// PrintError prints an error line to w. It is shown even in silent mode.
func PrintError(w io.Writer, message string) {
	Fprintf(w, "%s\n", ErrorStyle.Render(Icon("✖", "[X]")+" "+message))
}

func printStatus(w io.Writer, style lipgloss.Style, icon, message string) {
	if IsSilent() {
		return
	}
	Fprintf(w, "%s\n", style.Render(icon+" "+message))
}
