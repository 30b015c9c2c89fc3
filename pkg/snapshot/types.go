// Package snapshot holds the dashboard snapshot: the typed record, the
// built-in reference values, schema and semantic validation, file loading,
// and the immutable Store every facade reads from.
package snapshot

import "strings"

// Snapshot is the complete dashboard data set. Values are never mutated
// after a Store is built from them.
type Snapshot struct {
	Organizations    []Organization `json:"organizations" yaml:"organizations"`
	ResourceSummary  map[string]int `json:"resourceSummary" yaml:"resourceSummary"`
	OpenFindings     OpenFindings   `json:"openFindings" yaml:"openFindings"`
	Compliance       map[string]int `json:"compliance" yaml:"compliance"`
	ToxicCombination []string       `json:"toxicCombination" yaml:"toxicCombination"`
	QuickActions     []QuickAction  `json:"quickActions" yaml:"quickActions"`
	Trends           Trends         `json:"trends" yaml:"trends"`
}

// OverallStatusKey is the compliance entry every snapshot must carry.
const OverallStatusKey = "overallStatus"

// OverallStatus returns the overall compliance percentage.
func (s Snapshot) OverallStatus() int {
	return s.Compliance[OverallStatusKey]
}

// Organization is one cloud or on-premises estate. At most one of the scope
// counts is set, and only the one matching Provider.
type Organization struct {
	Name              string `json:"name" yaml:"name"`
	OrgCount          int    `json:"orgCount" yaml:"orgCount"`
	Green             int    `json:"green" yaml:"green"`
	Yellow            *int   `json:"yellow,omitempty" yaml:"yellow,omitempty"`
	AccountCount      *int   `json:"accountCount,omitempty" yaml:"accountCount,omitempty"`
	SubscriptionCount *int   `json:"subscriptionCount,omitempty" yaml:"subscriptionCount,omitempty"`
	ProjectCount      *int   `json:"projectCount,omitempty" yaml:"projectCount,omitempty"`
	CompartmentCount  *int   `json:"compartmentCount,omitempty" yaml:"compartmentCount,omitempty"`
}

// OpenFindings counts open findings by severity and by category.
type OpenFindings struct {
	Critical   int            `json:"critical" yaml:"critical"`
	High       int            `json:"high" yaml:"high"`
	Medium     int            `json:"medium" yaml:"medium"`
	Low        int            `json:"low" yaml:"low"`
	Categories map[string]int `json:"categories" yaml:"categories"`
}

// Total returns the sum of the severity buckets.
func (f OpenFindings) Total() int {
	return f.Critical + f.High + f.Medium + f.Low
}

// QuickAction is a suggested remediation shown on the dashboard.
type QuickAction struct {
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Details  string `json:"details,omitempty" yaml:"details,omitempty"`
	Cluster  string `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

// Trends are period counters for finding activity.
type Trends struct {
	OpenedFindings    int `json:"openedFindings" yaml:"openedFindings"`
	ClosedFindings    int `json:"closedFindings" yaml:"closedFindings"`
	StaredFindings    int `json:"staredFindings" yaml:"staredFindings"`
	SnoozedFindings   int `json:"snoozedFindings" yaml:"snoozedFindings"`
	TicketsCreated    int `json:"ticketsCreated" yaml:"ticketsCreated"`
	ExcludedResources int `json:"excludedResources" yaml:"excludedResources"`
}

// Provider identifies the platform an organization belongs to.
type Provider string

// Known providers.
const (
	ProviderAWS        Provider = "aws"
	ProviderAzure      Provider = "azure"
	ProviderGCP        Provider = "gcp"
	ProviderOracle     Provider = "oracle"
	ProviderOnPremises Provider = "on-premises"
	ProviderUnknown    Provider = "unknown"
)

// ScopeField names the JSON member that carries a provider's scope count.
// It is empty for providers without one.
func (p Provider) ScopeField() string {
	switch p {
	case ProviderAWS:
		return "accountCount"
	case ProviderAzure:
		return "subscriptionCount"
	case ProviderGCP:
		return "projectCount"
	case ProviderOracle:
		return "compartmentCount"
	default:
		return ""
	}
}

// Provider resolves the organization's provider from its name.
func (o Organization) Provider() Provider {
	name := strings.ToLower(strings.TrimSpace(o.Name))
	switch {
	case name == "aws" || strings.HasPrefix(name, "aws "):
		return ProviderAWS
	case name == "azure" || strings.HasPrefix(name, "azure "):
		return ProviderAzure
	case name == "gcp" || strings.HasPrefix(name, "gcp ") || name == "google cloud":
		return ProviderGCP
	case name == "oracle" || strings.HasPrefix(name, "oracle ") || name == "oci":
		return ProviderOracle
	case name == "on-premises" || name == "on-prem" || name == "on premises":
		return ProviderOnPremises
	default:
		return ProviderUnknown
	}
}

// Scope returns the provider scope count and the member name it was read
// from. ok is false when the organization carries no scope count.
func (o Organization) Scope() (field string, count int, ok bool) {
	for _, s := range o.scopes() {
		if s.value != nil {
			return s.field, *s.value, true
		}
	}
	return "", 0, false
}

type scopeValue struct {
	field string
	value *int
}

func (o Organization) scopes() []scopeValue {
	return []scopeValue{
		{"accountCount", o.AccountCount},
		{"subscriptionCount", o.SubscriptionCount},
		{"projectCount", o.ProjectCount},
		{"compartmentCount", o.CompartmentCount},
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		ResourceSummary:  cloneMap(s.ResourceSummary),
		Compliance:       cloneMap(s.Compliance),
		OpenFindings:     s.OpenFindings,
		Trends:           s.Trends,
		ToxicCombination: append([]string(nil), s.ToxicCombination...),
		QuickActions:     append([]QuickAction(nil), s.QuickActions...),
	}
	out.OpenFindings.Categories = cloneMap(s.OpenFindings.Categories)
	if s.Organizations != nil {
		out.Organizations = make([]Organization, len(s.Organizations))
		for i, o := range s.Organizations {
			out.Organizations[i] = Organization{
				Name:              o.Name,
				OrgCount:          o.OrgCount,
				Green:             o.Green,
				Yellow:            cloneInt(o.Yellow),
				AccountCount:      cloneInt(o.AccountCount),
				SubscriptionCount: cloneInt(o.SubscriptionCount),
				ProjectCount:      cloneInt(o.ProjectCount),
				CompartmentCount:  cloneInt(o.CompartmentCount),
			}
		}
	}
	return out
}

func cloneMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Int returns a pointer to v, for building optional counts.
func Int(v int) *int { return &v }
