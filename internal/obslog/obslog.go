// Package obslog is a thin component-tagging wrapper over zerolog, used by
// the pager and runtime for structured diagnostic logging. Grounded on
// SPEC_FULL.md §2's AMBIENT STACK decision (zerolog, per the
// mohammed-shakir/h3-spatial-cache manifest) — this is genuinely new
// ambient surface the teacher's single-shot CLI never needed, so it
// follows the rest of the retrieved corpus's service-shaped logging idiom
// rather than the teacher's plain `log.Printf`.
package obslog

import (
	"os"

	"github.com/rs/zerolog"
)

// base is the process-wide root logger: leveled JSON to stderr, timestamped,
// reading ROCKY_LOG_LEVEL (debug/info/warn/error, default info).
var base = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(levelFromEnv())

func levelFromEnv() zerolog.Level {
	lvl, err := zerolog.ParseLevel(os.Getenv("ROCKY_LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger is a component-tagged zerolog.Logger. Construct one with For and
// reuse it — it carries no per-call allocation beyond zerolog's own event
// builder.
type Logger struct {
	zerolog.Logger
}

// For returns a Logger tagged with the given component name (e.g. "pager",
// "runtime", "layer"), matching the contextual-logger idiom of
// zerolog.With().Str(...).
func For(component string) Logger {
	return Logger{base.With().Str("component", component).Logger()}
}

// SetLevel sets the minimum log level of the root logger at runtime (e.g.
// from a CLI flag in cmd/rocky-pager-demo). It applies to Loggers that For
// returns after the call; Loggers obtained earlier, such as package-level
// ones created at init, keep the level they were built with.
func SetLevel(lvl zerolog.Level) {
	base = base.Level(lvl)
}
