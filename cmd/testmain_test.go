package cmd

import (
	"os"
	"testing"

	"github.com/fatih/color"
)

// TestMain disables the bootstrap config cache and colored output so every
// test sees freshly loaded configuration and plain text.
func TestMain(m *testing.M) {
	os.Setenv("GO_TEST", "true")
	color.NoColor = true

	code := m.Run()

	os.Unsetenv("GO_TEST")
	os.Exit(code)
}
