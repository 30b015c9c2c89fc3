// Package report renders a dashboard snapshot for people instead of
// widgets: an A4 PDF with one page per dashboard section, and a plain text
// summary for terminals.
//
// Usage:
//
//	f, _ := os.Create("dashboard.pdf")
//	defer f.Close()
//	err := report.WritePDF(f, store.Get(), report.Options{})
//
// Both writers take the snapshot by value and never modify it.
package report
