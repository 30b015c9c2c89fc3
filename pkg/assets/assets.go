// Package assets loads the compiled dashboard frontend: a required script
// and an optional stylesheet.
package assets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/iohelper"
)

// ErrScriptUnavailable is returned when the dashboard script cannot be read.
// The server cannot start without it.
var ErrScriptUnavailable = errors.New("dashboard script unavailable")

// Bundle is the frontend as embedded into the widget. Stylesheet is empty
// when no stylesheet could be read.
type Bundle struct {
	Script     string
	Stylesheet string
}

// HasStylesheet reports whether the bundle carries any CSS. A
// whitespace-only stylesheet counts as none.
func (b Bundle) HasStylesheet() bool {
	return strings.TrimSpace(b.Stylesheet) != ""
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// MaxSize caps each file. Zero means defaults.MaxAssetSize.
	MaxSize int64

	// OnStylesheetError is called when the stylesheet is missing or
	// unreadable. Load still succeeds with an empty stylesheet.
	OnStylesheetError func(path string, err error)
}

// Load reads the script and stylesheet with default options.
func Load(scriptPath, stylesheetPath string) (Bundle, error) {
	return LoadWithOptions(scriptPath, stylesheetPath, LoadOptions{})
}

// LoadWithOptions reads the bundle. Empty paths fall back to the files under
// web/src.
func LoadWithOptions(scriptPath, stylesheetPath string, opts LoadOptions) (Bundle, error) {
	if scriptPath == "" {
		scriptPath = defaults.ScriptPath
	}
	if stylesheetPath == "" {
		stylesheetPath = defaults.StylesheetPath
	}
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = defaults.MaxAssetSize
	}

	script, err := iohelper.ReadFile(scriptPath, maxSize)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrScriptUnavailable, err)
	}

	var css string
	if data, err := iohelper.ReadFile(stylesheetPath, maxSize); err != nil {
		if opts.OnStylesheetError != nil {
			opts.OnStylesheetError(stylesheetPath, err)
		}
	} else {
		css = string(data)
	}

	return Bundle{Script: string(script), Stylesheet: css}, nil
}
