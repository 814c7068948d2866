package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/app.tsx", "typescript"},
		{"index.JS", "javascript"},
		{"main.go", "go"},
		{"lib.rs", "rust"},
		{"deploy.bash", "shell"},
		{"config.yml", "yaml"},
		{"Makefile", ""},
		{"archive.tar.gz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
		})
	}
}

func TestIsKeyFile(t *testing.T) {
	for _, name := range []string{"package.json", "README", "go.mod", "Dockerfile"} {
		assert.True(t, IsKeyFile(name), "IsKeyFile(%q)", name)
	}
	assert.False(t, IsKeyFile("main.go"))
}
