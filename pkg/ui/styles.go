package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	// Severity colors
	Critical = lipgloss.Color("#FF0000")
	High     = lipgloss.Color("#FF6B6B")
	Medium   = lipgloss.Color("#FFD93D")
	Low      = lipgloss.Color("#4D96FF")

	// Status colors
	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
)

// Pre-configured styles
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// SeverityStyle returns the badge style for a finding severity.
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch severity {
	case "critical":
		return base.Foreground(Critical)
	case "high":
		return base.Foreground(High)
	case "medium":
		return base.Foreground(Medium)
	case "low":
		return base.Foreground(Low)
	default:
		return base.Foreground(Muted)
	}
}

// ComplianceStyle colors a compliance percentage: green from 80, amber
// from 50, red below.
func ComplianceStyle(pct int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case pct >= 80:
		return base.Foreground(Success)
	case pct >= 50:
		return base.Foreground(Warning)
	default:
		return base.Foreground(Error)
	}
}
