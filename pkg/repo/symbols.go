package repo

import (
	"path"
	"regexp"
)

// MaxSymbols caps the number of names extracted from one file.
const MaxSymbols = 50

// SymbolExtractor pulls declared names out of source text. Implementations
// are best effort; the analyzer treats the result as an annotation.
type SymbolExtractor interface {
	ExtractSymbols(content, path string) []string
}

// RegexExtractor is the default SymbolExtractor. It matches common
// JavaScript/TypeScript function, class and component declarations, and
// Go func and type declarations in .go files.
type RegexExtractor struct{}

var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:export\s+)?(?:async\s+)?function\s+(\w+)`),
	regexp.MustCompile(`(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(`),
	regexp.MustCompile(`(?:export\s+)?class\s+(\w+)`),
	regexp.MustCompile(`const\s+(\w+)\s*[:=]\s*(?:\([^)]*\)\s*=>|React\.(?:FC|Component))`),
}

var goPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?(\w+)`),
	regexp.MustCompile(`(?m)^type\s+(\w+)`),
}

// ExtractSymbols returns de-duplicated names in pattern order, capped at
// MaxSymbols.
func (RegexExtractor) ExtractSymbols(content, p string) []string {
	patterns := scriptPatterns
	if path.Ext(p) == ".go" {
		patterns = goPatterns
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			name := m[1]
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			symbols = append(symbols, name)
			if len(symbols) == MaxSymbols {
				return symbols
			}
		}
	}
	return symbols
}
