package naming

import (
	"slices"
	"sync"

	"github.com/volatiletech/strmangle"
)

// Inflections are extra pluralization rules added before naming
type Inflections struct {
	Plural        map[string]string `yaml:"plural" json:"plural"`
	PluralExact   map[string]string `yaml:"plural_exact" json:"plural_exact"`
	Singular      map[string]string `yaml:"singular" json:"singular"`
	SingularExact map[string]string `yaml:"singular_exact" json:"singular_exact"`
	Irregular     map[string]string `yaml:"irregular" json:"irregular"`
}

// strmangle's ruleset is global and only grows, so every rule is added once
// per process
//
//nolint:gochecknoglobals
var (
	appliedMu sync.Mutex
	applied   = map[[3]string]struct{}{}
)

// Apply adds the inflections to strmangle's ruleset and returns the number
// of rules that were not added by an earlier call
func (i Inflections) Apply() int {
	appliedMu.Lock()
	defer appliedMu.Unlock()

	ruleset := strmangle.GetBoilRuleset()
	added := 0

	add := func(kind string, rules map[string]string, fn func(k, v string)) {
		keys := make([]string, 0, len(rules))
		for k := range rules {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			id := [3]string{kind, k, rules[k]}
			if _, ok := applied[id]; ok {
				continue
			}
			applied[id] = struct{}{}
			fn(k, rules[k])
			added++
		}
	}

	add("plural", i.Plural, ruleset.AddPlural)
	add("plural_exact", i.PluralExact, func(k, v string) { ruleset.AddPluralExact(k, v, true) })
	add("singular", i.Singular, ruleset.AddSingular)
	add("singular_exact", i.SingularExact, func(k, v string) { ruleset.AddSingularExact(k, v, true) })
	add("irregular", i.Irregular, ruleset.AddIrregular)

	return added
}
