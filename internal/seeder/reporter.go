package seeder

import "github.com/fatih/color"

// Reporter receives one line per seeding event. The engine only decides what
// to say; rendering belongs to the implementation.
type Reporter interface {
	Report(line string)
}

type consoleReporter struct{}

// NewConsoleReporter returns the default reporter used by the CLI.
func NewConsoleReporter() Reporter {
	return consoleReporter{}
}

func (consoleReporter) Report(line string) {
	color.Cyan("  🌱 %s", line)
}

// quiet default for the whole process, set once at startup from config/flags.
var defaultQuiet bool

func SetQuietDefault(quiet bool) {
	defaultQuiet = quiet
}

// Options configures one seeding run.
type Options struct {
	Quiet      bool // suppress per-record progress reporting
	InsertOnly bool // never touch matched existing rows
}

// DefaultOptions resolves the process-wide quiet default.
func DefaultOptions() Options {
	return Options{Quiet: defaultQuiet}
}
