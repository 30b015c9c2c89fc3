package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

// DefaultTitle is the report heading when Options.Title is empty.
const DefaultTitle = "Security Dashboard"

// Sections lists the PDF pages in order. Every section gets its own page.
var Sections = []string{
	"Organizations",
	"Resource Summary",
	"Open Findings",
	"Compliance",
	"Toxic Combinations",
	"Quick Actions",
	"Trends",
}

// Options configures WritePDF.
type Options struct {
	// Title is printed on the first page and stored in the PDF metadata.
	Title string

	// GeneratedAt stamps the footer and metadata. Zero means time.Now.
	GeneratedAt time.Time

	// noCompress disables stream compression so tests can search raw text.
	noCompress bool
}

var (
	colorHeader  = []int{30, 41, 59}
	colorMuted   = []int{100, 116, 139}
	colorText    = []int{30, 30, 30}
	colorGreen   = []int{22, 163, 74}
	colorYellow  = []int{202, 138, 4}
	colorRed     = []int{220, 38, 38}
	colorBarBack = []int{226, 232, 240}

	severityColors = map[string][]int{
		"Critical": {153, 27, 27},
		"High":     colorRed,
		"Medium":   colorYellow,
		"Low":      {37, 99, 235},
	}
)

// pdfWriter carries the document and the text translator through the
// section renderers.
type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	snap snapshot.Snapshot
}

// WritePDF renders snap as an A4 report to w.
func WritePDF(w io.Writer, snap snapshot.Snapshot, opts Options) error {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	generated := opts.GeneratedAt.UTC()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.noCompress)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator(defaults.UserAgent("report"), true)
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	pw := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), snap: snap}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated %s", generated.Format(time.RFC3339)), "", 0, "L", false, 0, "")
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pw.addOrganizations(opts.Title)
	pw.addResourceSummary()
	pw.addOpenFindings()
	pw.addCompliance()
	pw.addToxicCombinations()
	pw.addQuickActions()
	pw.addTrends()

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (pw *pdfWriter) setTextColor(c []int) { pw.pdf.SetTextColor(c[0], c[1], c[2]) }

func (pw *pdfWriter) sectionHeader(title string) {
	pdf := pw.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pw.setTextColor(colorHeader)
	pdf.CellFormat(0, 10, pw.tr(title), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorHeader[0], colorHeader[1], colorHeader[2])
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(6)
}

func (pw *pdfWriter) note(text string) {
	pw.pdf.SetFont("Helvetica", "", 10)
	pw.setTextColor(colorMuted)
	pw.pdf.MultiCell(0, 5, pw.tr(text), "", "L", false)
	pw.pdf.Ln(4)
}

func (pw *pdfWriter) tableHeader(widths []float64, cols ...string) {
	pdf := pw.pdf
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(colorHeader[0], colorHeader[1], colorHeader[2])
	pdf.SetTextColor(255, 255, 255)
	for i, c := range cols {
		align := "C"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, pw.tr(c), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	pw.setTextColor(colorText)
}

// keyValueTable renders a two column table of label and count, with a
// total row when withTotal is set.
func (pw *pdfWriter) keyValueTable(header string, entries []entry, withTotal bool) {
	widths := []float64{110, 70}
	pw.tableHeader(widths, header, "Count")
	total := 0
	for _, e := range entries {
		pw.pdf.CellFormat(widths[0], 7, pw.tr(Label(e.key)), "1", 0, "L", false, 0, "")
		pw.pdf.CellFormat(widths[1], 7, strconv.Itoa(e.value), "1", 1, "R", false, 0, "")
		total += e.value
	}
	if !withTotal {
		return
	}
	pw.pdf.SetFont("Helvetica", "B", 10)
	pw.pdf.CellFormat(widths[0], 7, "Total", "1", 0, "L", false, 0, "")
	pw.pdf.CellFormat(widths[1], 7, strconv.Itoa(total), "1", 1, "R", false, 0, "")
}

func (pw *pdfWriter) addOrganizations(title string) {
	pdf := pw.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pw.setTextColor(colorHeader)
	pdf.CellFormat(0, 14, pw.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Organizations", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	widths := []float64{45, 22, 45, 34, 34}
	pw.tableHeader(widths, "Organization", "Orgs", "Scope", "Green", "Yellow")
	for _, org := range pw.snap.Organizations {
		scope := "-"
		if field, n, ok := org.Scope(); ok {
			scope = fmt.Sprintf("%d %s", n, scopeNoun(field))
		}
		yellow := "-"
		if org.Yellow != nil {
			yellow = strconv.Itoa(*org.Yellow)
		}
		pdf.CellFormat(widths[0], 7, pw.tr(org.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(org.OrgCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, scope, "1", 0, "C", false, 0, "")
		pw.setTextColor(colorGreen)
		pdf.CellFormat(widths[3], 7, strconv.Itoa(org.Green), "1", 0, "C", false, 0, "")
		pw.setTextColor(colorYellow)
		pdf.CellFormat(widths[4], 7, yellow, "1", 1, "C", false, 0, "")
		pw.setTextColor(colorText)
	}
}

func (pw *pdfWriter) addResourceSummary() {
	pw.sectionHeader("Resource Summary")
	pw.note("Inventoried resources by family, largest first.")
	pw.keyValueTable("Family", byValue(pw.snap.ResourceSummary), true)
}

func (pw *pdfWriter) addOpenFindings() {
	pw.sectionHeader("Open Findings")
	f := pw.snap.OpenFindings
	pw.note(fmt.Sprintf("%d open findings across all severities.", f.Total()))

	widths := []float64{110, 70}
	pw.tableHeader(widths, "Severity", "Count")
	for _, s := range []entry{{"Critical", f.Critical}, {"High", f.High}, {"Medium", f.Medium}, {"Low", f.Low}} {
		pw.setTextColor(severityColors[s.key])
		pw.pdf.SetFont("Helvetica", "B", 10)
		pw.pdf.CellFormat(widths[0], 7, s.key, "1", 0, "L", false, 0, "")
		pw.setTextColor(colorText)
		pw.pdf.SetFont("Helvetica", "", 10)
		pw.pdf.CellFormat(widths[1], 7, strconv.Itoa(s.value), "1", 1, "R", false, 0, "")
	}
	pw.pdf.Ln(8)

	pw.keyValueTable("Category", byValue(f.Categories), false)
}

func (pw *pdfWriter) addCompliance() {
	pw.sectionHeader("Compliance")
	pw.note("Percentage of passing controls per framework.")

	pdf := pw.pdf
	const labelW, barW, barH = 60.0, 100.0, 6.0
	for _, e := range complianceEntries(pw.snap.Compliance) {
		pdf.SetFont("Helvetica", "B", 10)
		pw.setTextColor(colorText)
		pdf.CellFormat(labelW, 9, pw.tr(Label(e.key)), "", 0, "L", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()+1.5
		pdf.SetFillColor(colorBarBack[0], colorBarBack[1], colorBarBack[2])
		pdf.Rect(x, y, barW, barH, "F")
		c := complianceColor(e.value)
		pdf.SetFillColor(c[0], c[1], c[2])
		if e.value > 0 {
			pdf.Rect(x, y, barW*float64(e.value)/float64(snapshot.MaxPercentage), barH, "F")
		}
		pdf.SetX(x + barW + 4)
		pdf.CellFormat(0, 9, fmt.Sprintf("%d%%", e.value), "", 1, "L", false, 0, "")
	}
}

func (pw *pdfWriter) addToxicCombinations() {
	pw.sectionHeader("Toxic Combinations")
	if len(pw.snap.ToxicCombination) == 0 {
		pw.note("No toxic combinations detected.")
		return
	}
	pw.note("Risks that compound when they occur on the same resource.")
	for _, tc := range pw.snap.ToxicCombination {
		pw.pdf.SetFont("Helvetica", "", 10)
		pw.setTextColor(colorRed)
		pw.pdf.CellFormat(6, 6, "!", "", 0, "C", false, 0, "")
		pw.setTextColor(colorText)
		pw.pdf.MultiCell(0, 6, pw.tr(tc), "", "L", false)
		pw.pdf.Ln(1)
	}
}

func (pw *pdfWriter) addQuickActions() {
	pw.sectionHeader("Quick Actions")
	if len(pw.snap.QuickActions) == 0 {
		pw.note("No quick actions suggested.")
		return
	}
	pdf := pw.pdf
	for i, qa := range pw.snap.QuickActions {
		pdf.SetFont("Helvetica", "B", 11)
		pw.setTextColor(colorText)
		pdf.MultiCell(0, 6, pw.tr(fmt.Sprintf("%d. %s", i+1, qa.Text)), "", "L", false)
		for _, d := range actionContext(qa) {
			pdf.SetFont("Helvetica", "", 9)
			pw.setTextColor(colorMuted)
			pdf.SetX(21)
			pdf.MultiCell(0, 5, pw.tr(d), "", "L", false)
		}
		pdf.Ln(3)
	}
}

func (pw *pdfWriter) addTrends() {
	pw.sectionHeader("Trends")
	t := pw.snap.Trends
	pw.keyValueTable("Activity", trendEntries(t), false)
}

// actionContext lists the optional fields of a quick action as
// "Label: value" lines.
func actionContext(qa snapshot.QuickAction) []string {
	var out []string
	if qa.Category != "" {
		out = append(out, "Category: "+qa.Category)
	}
	if qa.Cluster != "" {
		out = append(out, "Cluster: "+qa.Cluster)
	}
	if qa.Details != "" {
		out = append(out, "Details: "+qa.Details)
	}
	return out
}

func complianceColor(pct int) []int {
	switch {
	case pct >= 80:
		return colorGreen
	case pct >= 50:
		return colorYellow
	default:
		return colorRed
	}
}

// scopeNoun maps a scope member to a readable plural, e.g.
// "accountCount" to "accounts".
func scopeNoun(field string) string {
	switch field {
	case "accountCount":
		return "accounts"
	case "subscriptionCount":
		return "subscriptions"
	case "projectCount":
		return "projects"
	case "compartmentCount":
		return "compartments"
	default:
		return field
	}
}
