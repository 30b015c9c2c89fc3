package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot wraps every validation failure.
var ErrInvalidSnapshot = errors.New("invalid dashboard snapshot")

// MaxPercentage is the upper bound for compliance values.
const MaxPercentage = 100

// Validate checks the semantic invariants that the JSON Schema cannot
// express on its own. It reports every violation, not only the first.
func Validate(s Snapshot) error {
	var v violations

	if len(s.Organizations) == 0 {
		v.add("/organizations", "at least one organization is required")
	}
	for i, o := range s.Organizations {
		path := fmt.Sprintf("/organizations/%d", i)
		if strings.TrimSpace(o.Name) == "" {
			v.add(path+"/name", "must not be empty")
		}
		v.nonNegative(path+"/orgCount", o.OrgCount)
		v.nonNegative(path+"/green", o.Green)
		if o.Yellow != nil {
			v.nonNegative(path+"/yellow", *o.Yellow)
		}
		validateScope(&v, path, o)
	}

	for _, k := range sortedKeys(s.ResourceSummary) {
		v.nonNegative("/resourceSummary/"+k, s.ResourceSummary[k])
	}

	f := s.OpenFindings
	v.nonNegative("/openFindings/critical", f.Critical)
	v.nonNegative("/openFindings/high", f.High)
	v.nonNegative("/openFindings/medium", f.Medium)
	v.nonNegative("/openFindings/low", f.Low)
	for _, k := range sortedKeys(f.Categories) {
		v.nonNegative("/openFindings/categories/"+k, f.Categories[k])
	}

	if _, ok := s.Compliance[OverallStatusKey]; !ok {
		v.add("/compliance/"+OverallStatusKey, "is required")
	}
	for _, k := range sortedKeys(s.Compliance) {
		pct := s.Compliance[k]
		if pct < 0 || pct > MaxPercentage {
			v.add("/compliance/"+k, fmt.Sprintf("must be between 0 and %d, got %d", MaxPercentage, pct))
		}
	}

	for i, t := range s.ToxicCombination {
		if strings.TrimSpace(t) == "" {
			v.add(fmt.Sprintf("/toxicCombination/%d", i), "must not be empty")
		}
	}
	for i, a := range s.QuickActions {
		if strings.TrimSpace(a.Text) == "" {
			v.add(fmt.Sprintf("/quickActions/%d/text", i), "must not be empty")
		}
	}

	t := s.Trends
	v.nonNegative("/trends/openedFindings", t.OpenedFindings)
	v.nonNegative("/trends/closedFindings", t.ClosedFindings)
	v.nonNegative("/trends/staredFindings", t.StaredFindings)
	v.nonNegative("/trends/snoozedFindings", t.SnoozedFindings)
	v.nonNegative("/trends/ticketsCreated", t.TicketsCreated)
	v.nonNegative("/trends/excludedResources", t.ExcludedResources)

	return v.err()
}

func validateScope(v *violations, path string, o Organization) {
	want := o.Provider().ScopeField()
	set := 0
	for _, sc := range o.scopes() {
		if sc.value == nil {
			continue
		}
		set++
		v.nonNegative(path+"/"+sc.field, *sc.value)
		if sc.field != want {
			if want == "" {
				v.add(path+"/"+sc.field, fmt.Sprintf("provider %s has no scope count", o.Provider()))
			} else {
				v.add(path+"/"+sc.field, fmt.Sprintf("provider %s uses %s", o.Provider(), want))
			}
		}
	}
	if set > 1 {
		v.add(path, "carries more than one scope count")
	}
}

type violations struct {
	errs []error
}

func (v *violations) add(path, msg string) {
	v.errs = append(v.errs, fmt.Errorf("%s: %s", path, msg))
}

func (v *violations) nonNegative(path string, n int) {
	if n < 0 {
		v.add(path, fmt.Sprintf("must be non-negative, got %d", n))
	}
}

func (v *violations) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(v.errs...))
}
