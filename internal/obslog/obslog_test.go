package obslog

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFromEnvDefaultsToInfo(t *testing.T) {
	t.Setenv("ROCKY_LOG_LEVEL", "")
	if got := levelFromEnv(); got != zerolog.InfoLevel {
		t.Errorf("levelFromEnv() = %v, want InfoLevel", got)
	}
}

func TestLevelFromEnvHonorsOverride(t *testing.T) {
	t.Setenv("ROCKY_LOG_LEVEL", "debug")
	if got := levelFromEnv(); got != zerolog.DebugLevel {
		t.Errorf("levelFromEnv() = %v, want DebugLevel", got)
	}
}

func TestForReturnsUsableLogger(t *testing.T) {
	l := For("pager")
	l.Info().Msg("test") // must not panic
}
