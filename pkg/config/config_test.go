package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 100, cfg.Engine.CacheSize)
	require.Equal(t, 2, cfg.Fuzzy.MaxDistance)
	require.Equal(t, 3, cfg.Fuzzy.MinPrefix)
	require.Equal(t, "words_kn.txt", cfg.Dict.KannadaFile)
	require.InDelta(t, 1.0, cfg.Weights.Prefix, 1e-9)
	require.InDelta(t, 3.0, cfg.Sources.ExactMatch, 1e-9)
	require.True(t, cfg.Learn.Enabled)
	require.Equal(t, 90, cfg.Learn.MaxAgeDays)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[engine]
cache_size = 32

[engine.abbreviations]
addr = "No. 12, MG Road"

[dict]
kannada_file = "kn.txt"
hot_words = 200

[fuzzy]
max_distance = 1
min_prefix = 4

[weights]
exact = 2.5
user_learned = 2

[sources]
ngram = 1.8

[learn]
enabled = false
db_file = "custom.db"

[server]
max_limit = 16

[cli]
default_layout = "kannada_phonetic"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 32, cfg.Engine.CacheSize)
	require.Equal(t, map[string]string{"addr": "No. 12, MG Road"}, cfg.Engine.Abbreviations)
	require.Equal(t, "kn.txt", cfg.Dict.KannadaFile)
	require.Equal(t, 200, cfg.Dict.HotWords)
	require.Equal(t, 1, cfg.Fuzzy.MaxDistance)
	require.Equal(t, 4, cfg.Fuzzy.MinPrefix)
	require.InDelta(t, 2.5, cfg.Weights.Exact, 1e-9)
	// Bare integers are valid TOML floats for our purposes.
	require.InDelta(t, 2.0, cfg.Weights.UserLearned, 1e-9)
	require.InDelta(t, 1.8, cfg.Sources.Ngram, 1e-9)
	require.False(t, cfg.Learn.Enabled)
	require.Equal(t, "custom.db", cfg.Learn.DBFile)
	require.Equal(t, 16, cfg.Server.MaxLimit)
	require.Equal(t, "kannada_phonetic", cfg.CLI.DefaultLayout)

	// Untouched sections keep their defaults.
	require.Equal(t, "words_en.txt", cfg.Dict.LatinFile)
	require.InDelta(t, 1.0, cfg.Weights.Prefix, 1e-9)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// A wrongly typed value fails strict decoding; the recovery pass keeps
	// every well-typed key and defaults the broken one.
	path := writeConfig(t, `
[fuzzy]
max_distance = "broken"
min_prefix = 4

[server]
max_limit = 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Fuzzy.MaxDistance)
	require.Equal(t, 4, cfg.Fuzzy.MinPrefix)
	require.Equal(t, 8, cfg.Server.MaxLimit)
}

func TestLoadConfigClampsRanges(t *testing.T) {
	path := writeConfig(t, `
[engine]
cache_size = -5

[fuzzy]
max_distance = 9
min_prefix = 0

[weights]
prefix = -2.0

[server]
min_prefix = 5
max_prefix = 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 100, cfg.Engine.CacheSize)
	require.Equal(t, 3, cfg.Fuzzy.MaxDistance)
	require.Equal(t, 1, cfg.Fuzzy.MinPrefix)
	require.InDelta(t, 0.1, cfg.Weights.Prefix, 1e-9)
	require.Equal(t, 5, cfg.Server.MaxPrefix)
}

func TestUpdatePersists(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	maxLimit := 24
	enable := false
	require.NoError(t, cfg.Update(path, &maxLimit, nil, nil, &enable))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 24, reloaded.Server.MaxLimit)
	require.False(t, reloaded.Server.EnableFilter)
	// Untouched fields survive the round trip.
	require.Equal(t, 60, reloaded.Server.MaxPrefix)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[server]\nmax_limit = 10\n")

	var got atomic.Int64
	w, err := Watch(path, func(cfg *Config) {
		got.Store(int64(cfg.Server.MaxLimit))
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[server]\nmax_limit = 42\n"), 0644))

	require.Eventually(t, func() bool {
		return got.Load() == 42
	}, 3*time.Second, 25*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
