// Package widget renders the HTML fragment that hosts the dashboard inside
// an MCP client.
package widget

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/dashdeck/dashboard-server/pkg/assets"
)

// RootID is the id of the element the dashboard script mounts into.
const RootID = "dashboard-root"

// The script and stylesheet are inserted verbatim. text/template does no
// contextual escaping, which is what the embedded code needs. A stylesheet
// that trims to nothing gets no <style> block.
const fragmentTemplate = `<div id="{{ .RootID }}"></div>
{{ if trim .Stylesheet }}<style>{{ .Stylesheet }}</style>{{ end }}
<script type="module">{{ .Script }}</script>`

var fragment = template.Must(template.New("widget").Funcs(sprig.TxtFuncMap()).Parse(fragmentTemplate))

type fragmentData struct {
	RootID     string
	Script     string
	Stylesheet string
}

// Render builds the fragment for b. The result depends only on b.
func Render(b assets.Bundle) (string, error) {
	var buf bytes.Buffer
	err := fragment.Execute(&buf, fragmentData{
		RootID:     RootID,
		Script:     b.Script,
		Stylesheet: b.Stylesheet,
	})
	if err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
