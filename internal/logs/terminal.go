package logs

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is a real terminal, matching the check
// the teacher's performance output package already does before deciding
// whether to colorize. A caller can use it to choose between
// DefaultScheme and NoColorScheme; the CLI does not call it.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
