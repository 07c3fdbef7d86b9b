package citation

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

// citationGrammar is the participle grammar for textual citations.
// Examples: "1.2", "12.1.3.5a", "a:12.b:1.z:5a", "1.1.t"
//
//nolint:govet // participle grammar tags are not standard struct tags
type citationGrammar struct {
	Parts []*partGrammar `@@ ( "." @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type partGrammar struct {
	Level  *string `@Level?`
	Number *int    `@Int?`
	Suffix *string `@Word?`
}

// citationLexer defines the lexer for citations.
// Level must precede Word so that "z:" is not read as a word.
var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Level", Pattern: `[a-z]:`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var citationParser = participle.MustBuild[citationGrammar](
	participle.Lexer(citationLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a textual citation.
//
// Positional form binds the first value to the author, the second to the
// work and up to five more to the finest section levels:
//   - "12" (author)
//   - "12.1" (author and work)
//   - "12.1.3.5a" (y=3, z=5a)
//
// Tagged form names every level and inserts them in order:
//   - "a:12.b:1.v:2.z:5a"
func Parse(s string) (Citation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Citation{}, invalid(s, "empty citation string", nil)
	}

	parsed, err := citationParser.ParseString("", s)
	if err != nil {
		return Citation{}, invalid(s, "invalid citation format", err)
	}

	values := make([]Value, len(parsed.Parts))
	tagged := 0
	for i, p := range parsed.Parts {
		if p.Number != nil {
			if *p.Number < 0 || *p.Number >= 1<<14 {
				return Citation{}, invalid(s, fmt.Sprintf("%d out of range", *p.Number), nil)
			}
			values[i].Binary = uint32(*p.Number)
		}
		if p.Suffix != nil {
			values[i].ASCII = *p.Suffix
		}
		if values[i].IsNull() {
			return Citation{}, invalid(s, fmt.Sprintf("empty level %d", i+1), nil)
		}
		if p.Level != nil {
			tagged++
		}
	}

	var c Citation
	switch tagged {
	case len(parsed.Parts):
		for i, p := range parsed.Parts {
			if err := c.Set((*p.Level)[0], values[i]); err != nil {
				return Citation{}, invalid(s, err.Error(), err)
			}
		}
	case 0:
		if len(values) > 7 {
			return Citation{}, invalid(s, "more than five section levels", nil)
		}
		c.insert('a', values[0])
		if len(values) > 1 {
			c.insert('b', values[1])
		}
		if len(values) > 2 {
			c.setSections(values[2:])
		}
	default:
		return Citation{}, invalid(s, "mixes tagged and positional levels", nil)
	}
	return c, nil
}

func invalid(s, message string, err error) error {
	return &errors.ParseError{
		Format:  "citation",
		Path:    fmt.Sprintf("%q", s),
		Offset:  -1,
		Message: message,
		Err:     err,
	}
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Citation {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}
