package skillgap

import "time"

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithRoles replaces the role table. Roles with no skills are dropped, and
// an empty table keeps the defaults.
func WithRoles(roles map[string][]string) Option {
	return func(a *Analyzer) {
		table := make(map[string][]string, len(roles))
		for role, skills := range roles {
			if role == "" || len(skills) == 0 {
				continue
			}
			table[role] = append([]string(nil), skills...)
		}
		if len(table) > 0 {
			a.roles = table
		}
	}
}

// WithClock overrides the timestamp source used for LastAnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}
