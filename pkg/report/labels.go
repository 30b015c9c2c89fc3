package report

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

// acronyms stay upper case when a key is turned into a label.
var acronyms = map[string]string{
	"aws":   "AWS",
	"cis":   "CIS",
	"gdpr":  "GDPR",
	"hipaa": "HIPAA",
	"iam":   "IAM",
	"kms":   "KMS",
}

// Label turns a camelCase snapshot key into a display label, e.g.
// "workloadProtection" becomes "Workload Protection".
func Label(key string) string {
	titleCase := cases.Title(language.English)
	words := splitCamel(key)
	for i, w := range words {
		if a, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = a
			continue
		}
		words[i] = titleCase.String(w)
	}
	return strings.Join(words, " ")
}

func splitCamel(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

type entry struct {
	key   string
	value int
}

// byValue returns m's entries largest first, ties broken by key.
func byValue(m map[string]int) []entry {
	out := make([]entry, 0, len(m))
	for k, v := range m {
		out = append(out, entry{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].key < out[j].key
	})
	return out
}

// complianceEntries puts overallStatus first and the frameworks after it
// in key order.
func complianceEntries(m map[string]int) []entry {
	out := make([]entry, 0, len(m))
	if v, ok := m[snapshot.OverallStatusKey]; ok {
		out = append(out, entry{snapshot.OverallStatusKey, v})
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != snapshot.OverallStatusKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, entry{k, m[k]})
	}
	return out
}

// trendEntries lists the trend counters in display order.
func trendEntries(t snapshot.Trends) []entry {
	return []entry{
		{"openedFindings", t.OpenedFindings},
		{"closedFindings", t.ClosedFindings},
		{"staredFindings", t.StaredFindings},
		{"snoozedFindings", t.SnoozedFindings},
		{"ticketsCreated", t.TicketsCreated},
		{"excludedResources", t.ExcludedResources},
	}
}
