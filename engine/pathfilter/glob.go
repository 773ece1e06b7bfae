package pathfilter

import (
	"regexp"
	"strings"
)

// Glob is the single-metacharacter glob described by the backup engine's
// wire format: "*" matches zero or more arbitrary characters, including
// "/". It is translated to an anchored regular expression by splitting on
// "*", escaping the literal segments, and joining them with ".*". An empty
// pattern is treated as "*".
type Glob struct {
	re *regexp.Regexp
}

// Compile translates pattern into a matchable Glob.
func Compile(pattern string) *Glob {
	if pattern == "" {
		pattern = "*"
	}

	segments := strings.Split(pattern, "*")
	var b strings.Builder
	b.WriteByte('^')
	for i, segment := range segments {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(segment))
	}
	b.WriteByte('$')

	return &Glob{re: regexp.MustCompile(b.String())}
}

// Match reports whether path satisfies the glob.
func (g *Glob) Match(path string) bool {
	return g.re.MatchString(path)
}
