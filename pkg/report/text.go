package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

// WriteText writes a plain text summary of snap to w, one block per
// dashboard section.
func WriteText(w io.Writer, snap snapshot.Snapshot) error {
	bw := bufio.NewWriter(w)
	tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)

	heading := func(title string) {
		fmt.Fprintf(tw, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	}

	fmt.Fprintf(tw, "%s\n%s\n", DefaultTitle, strings.Repeat("=", len(DefaultTitle)))

	heading("Organizations")
	fmt.Fprintln(tw, "NAME\tORGS\tSCOPE\tGREEN\tYELLOW\t")
	for _, org := range snap.Organizations {
		scope := "-"
		if field, n, ok := org.Scope(); ok {
			scope = fmt.Sprintf("%d %s", n, scopeNoun(field))
		}
		yellow := "-"
		if org.Yellow != nil {
			yellow = fmt.Sprint(*org.Yellow)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t\n", org.Name, org.OrgCount, scope, org.Green, yellow)
	}

	heading("Resource Summary")
	for _, e := range byValue(snap.ResourceSummary) {
		fmt.Fprintf(tw, "%s\t%d\t\n", Label(e.key), e.value)
	}

	f := snap.OpenFindings
	heading(fmt.Sprintf("Open Findings (%d)", f.Total()))
	fmt.Fprintf(tw, "Critical\t%d\t\nHigh\t%d\t\nMedium\t%d\t\nLow\t%d\t\n", f.Critical, f.High, f.Medium, f.Low)
	for _, e := range byValue(f.Categories) {
		fmt.Fprintf(tw, "  %s\t%d\t\n", Label(e.key), e.value)
	}

	heading("Compliance")
	for _, e := range complianceEntries(snap.Compliance) {
		fmt.Fprintf(tw, "%s\t%d%%\t\n", Label(e.key), e.value)
	}

	heading("Toxic Combinations")
	for _, tc := range snap.ToxicCombination {
		fmt.Fprintf(tw, "! %s\n", tc)
	}

	heading("Quick Actions")
	for i, qa := range snap.QuickActions {
		fmt.Fprintf(tw, "%d. %s\n", i+1, qa.Text)
		for _, d := range actionContext(qa) {
			fmt.Fprintf(tw, "   %s\n", d)
		}
	}

	t := snap.Trends
	heading("Trends")
	for _, e := range trendEntries(t) {
		fmt.Fprintf(tw, "%s\t%d\t\n", Label(e.key), e.value)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}
