package citation

import "strings"

// Scope selects the first level Format renders.
type Scope int

const (
	// ScopeDefault renders the section levels only.
	ScopeDefault Scope = iota
	// ScopeAuthor renders author, work and section levels.
	ScopeAuthor
	// ScopeWork renders work and section levels.
	ScopeWork
	// ScopeSection renders levels from 'e' on.
	ScopeSection
)

// FormatOptions control Format.
type FormatOptions struct {
	// Numbers renders author and work as numbers instead of descriptions.
	Numbers bool
	// Diff starts at the first level that differs from the previous citation.
	Diff  bool
	Scope Scope
}

// Format renders c for display. prev is only consulted when opts.Diff is set.
func (c Citation) Format(opts FormatOptions, prev *Citation) string {
	start := byte('a')
	switch opts.Scope {
	case ScopeWork:
		start = 'b'
	case ScopeSection:
		start = 'e'
	}

	i, _ := c.find(start)
	if opts.Diff && prev != nil {
		j, _ := prev.find(start)
		for i < len(c.levels) && j < len(prev.levels) && c.levels[i] == prev.levels[j] {
			i++
			j++
		}
	}

	var sb strings.Builder
	sep := func() {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
	}
	for _, l := range c.levels[i:] {
		switch l.Key {
		case 'a':
			if opts.Scope == ScopeAuthor {
				if opts.Numbers {
					sb.WriteString(l.Value.String())
				} else {
					sb.WriteString(c.authDesc.String())
				}
			}
		case 'b':
			if opts.Scope == ScopeAuthor || opts.Scope == ScopeWork {
				sep()
				if opts.Numbers {
					sb.WriteString(l.Value.String())
				} else {
					sb.WriteString(c.workDesc.String())
				}
			}
		default:
			sep()
			sb.WriteString(l.Value.String())
		}
	}
	return sb.String()
}
