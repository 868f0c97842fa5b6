// Package diag provides a leveled diagnostic sink for non-zero verbosity
// runs: a startup parameter dump plus color-highlighted warnings, in the
// style of log.Println paired with github.com/fatih/color.
package diag

import (
	"io"
	"log"

	"github.com/fatih/color"
)

// Sink is a leveled diagnostic writer. Level 0 is silent; every level above
// that prints the same set of lines. Exact text is not contractual.
type Sink struct {
	level  int
	logger *log.Logger
}

// New builds a Sink writing to w at the given verbosity level.
func New(w io.Writer, level int) *Sink {
	return &Sink{level: level, logger: log.New(w, "", 0)}
}

// Nop is a Sink that never prints, for verbosity 0.
func Nop() *Sink { return &Sink{level: 0, logger: log.New(io.Discard, "", 0)} }

func (s *Sink) enabled() bool { return s != nil && s.level > 0 }

// Shape prints the k/m/length/chunksize/padding summary.
func (s *Sink) Shape(k, m, length, chunksize, padding int) {
	if !s.enabled() {
		return
	}
	s.logger.Printf("%s k=%d m=%d len=%d chunksize=%d padding=%d",
		color.CyanString("shape:"), k, m, length, chunksize, padding)
}

// DigestCheck prints a single expected/actual digest comparison line.
func (s *Sink) DigestCheck(kind string, index int, expected, actual uint64, ok bool) {
	if !s.enabled() {
		return
	}
	status := color.GreenString("ok")
	if !ok {
		status = color.RedString("MISMATCH")
	}
	s.logger.Printf("[%s %2d] expected=%x actual=%x %s", kind, index, expected, actual, status)
}

// Feasibility prints the repair feasibility summary.
func (s *Sink) Feasibility(badPrimary, goodRepair int, repairable bool) {
	if !s.enabled() {
		return
	}
	if !repairable {
		s.logger.Printf("%s %d bad primaries, only %d usable repairs",
			color.RedString("unrepairable:"), badPrimary, goodRepair)
		return
	}
	if badPrimary == 0 {
		s.logger.Printf("%s no damage detected", color.GreenString("repair:"))
		return
	}
	s.logger.Printf("%s %d bad primaries, %d usable repairs available",
		color.YellowString("repair possible:"), badPrimary, goodRepair)
}

// Printf prints a free-form diagnostic line.
func (s *Sink) Printf(format string, args ...any) {
	if !s.enabled() {
		return
	}
	s.logger.Printf(format, args...)
}
