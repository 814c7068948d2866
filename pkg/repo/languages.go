package repo

import (
	"path"
	"slices"
	"strings"
)

var extensionLanguages = map[string]string{
	"ts":   "typescript",
	"tsx":  "typescript",
	"js":   "javascript",
	"jsx":  "javascript",
	"py":   "python",
	"java": "java",
	"go":   "go",
	"rs":   "rust",
	"rb":   "ruby",
	"php":  "php",
	"css":  "css",
	"scss": "scss",
	"html": "html",
	"json": "json",
	"md":   "markdown",
	"yml":  "yaml",
	"yaml": "yaml",
	"sql":  "sql",
	"sh":   "shell",
	"bash": "shell",
}

// DetectLanguage returns the language for a file path based on its
// extension, or "" when the extension is unknown.
func DetectLanguage(p string) string {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return extensionLanguages[strings.ToLower(ext)]
}

// keyFileNames lists root entries worth sending to the judgment model.
var keyFileNames = []string{
	"package.json",
	"README.md",
	"README",
	"tsconfig.json",
	"next.config.js",
	"next.config.ts",
	"tailwind.config.js",
	"tailwind.config.ts",
	"app",
	"src",
	"components",
	"lib",
	"pages",
	"go.mod",
	"Cargo.toml",
	"pyproject.toml",
	"requirements.txt",
	"Makefile",
	"Dockerfile",
}

// IsKeyFile reports whether a root-level name is on the key file allow-list.
func IsKeyFile(name string) bool {
	return slices.Contains(keyFileNames, name)
}
