package repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegexExtractor(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    []string
	}{
		{
			name: "script declarations",
			path: "src/index.ts",
			content: `export async function load() {}
export const handler = async (req) => {}
class Store {}
const Button: React.FC = () => null
function load() {}`,
			want: []string{"load", "handler", "Store", "Button"},
		},
		{
			name: "go declarations",
			path: "main.go",
			content: `package main

type Server struct{}

func (s *Server) Start() error { return nil }

func main() {}`,
			want: []string{"Start", "main", "Server"},
		},
		{
			name:    "nothing to find",
			path:    "README.md",
			content: "# title",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegexExtractor{}.ExtractSymbols(tt.content, tt.path)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegexExtractor_Cap(t *testing.T) {
	var b strings.Builder
	for i := range MaxSymbols + 20 {
		fmt.Fprintf(&b, "function f%d() {}\n", i)
	}
	got := RegexExtractor{}.ExtractSymbols(b.String(), "a.js")
	assert.Len(t, got, MaxSymbols)
}
