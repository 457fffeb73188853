/*
Package config manages TOML config for LipiServe services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

// Config holds the entire config structure
type Config struct {
	Engine  EngineConfig          `toml:"engine"`
	Dict    DictConfig            `toml:"dict"`
	Fuzzy   FuzzyConfig           `toml:"fuzzy"`
	Weights suggest.Weights       `toml:"weights"`
	Sources suggest.SourceWeights `toml:"sources"`
	Learn   LearnConfig           `toml:"learn"`
	Server  ServerConfig          `toml:"server"`
	CLI     CliConfig             `toml:"cli"`
}

// EngineConfig has orchestrator options.
type EngineConfig struct {
	CacheSize     int               `toml:"cache_size"`
	Abbreviations map[string]string `toml:"abbreviations"`
}

// DictConfig holds dictionary and n-gram asset options. File names are
// resolved against the data directory.
type DictConfig struct {
	LatinFile   string `toml:"latin_file"`
	KannadaFile string `toml:"kannada_file"`
	BigramFile  string `toml:"bigram_file"`
	TrigramFile string `toml:"trigram_file"`
	MaxWords    int    `toml:"max_words"`
	HotWords    int    `toml:"hot_words"`
}

// FuzzyConfig tunes the typo-tolerant completion pass. Trigger length and
// distance bound are heuristics, not invariants.
type FuzzyConfig struct {
	MaxDistance int `toml:"max_distance"`
	MinPrefix   int `toml:"min_prefix"`
}

// LearnConfig holds adaptive learning store options.
type LearnConfig struct {
	Enabled       bool   `toml:"enabled"`
	DBFile        string `toml:"db_file"`
	MinWordLength int    `toml:"min_word_length"`
	MaxAgeDays    int    `toml:"max_age_days"`
	MinWordFreq   int    `toml:"min_word_freq"`
	MinNgramFreq  int    `toml:"min_ngram_freq"`
	PruneOnStart  bool   `toml:"prune_on_start"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int    `toml:"default_limit"`
	DefaultLayout   string `toml:"default_layout"`
	DefaultNoFilter bool   `toml:"default_no_filter"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "lipiserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback from ~/.config if not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "lipiserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/lipiserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheSize: 100,
		},
		Dict: DictConfig{
			LatinFile:   "words_en.txt",
			KannadaFile: "words_kn.txt",
			BigramFile:  "bigrams.txt",
			TrigramFile: "trigrams.txt",
			MaxWords:    50000,
			HotWords:    5000,
		},
		Fuzzy: FuzzyConfig{
			MaxDistance: 2,
			MinPrefix:   3,
		},
		Weights: suggest.DefaultWeights(),
		Sources: suggest.DefaultSourceWeights(),
		Learn: LearnConfig{
			Enabled:       true,
			DBFile:        "learn.db",
			MinWordLength: 2,
			MaxAgeDays:    90,
			MinWordFreq:   3,
			MinNgramFreq:  2,
			PruneOnStart:  true,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
		},
		CLI: CliConfig{
			DefaultLimit:    5,
			DefaultLayout:   "qwerty",
			DefaultNoFilter: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.clamp()
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if engineSection, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(engineSection, &config.Engine)
	}
	if dictSection, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(dictSection, &config.Dict)
	}
	if fuzzySection, ok := utils.ExtractSection(tempConfig, "fuzzy"); ok {
		extractFuzzyConfig(fuzzySection, &config.Fuzzy)
	}
	if weightsSection, ok := utils.ExtractSection(tempConfig, "weights"); ok {
		extractWeightsConfig(weightsSection, &config.Weights)
	}
	if sourcesSection, ok := utils.ExtractSection(tempConfig, "sources"); ok {
		extractSourcesConfig(sourcesSection, &config.Sources)
	}
	if learnSection, ok := utils.ExtractSection(tempConfig, "learn"); ok {
		extractLearnConfig(learnSection, &config.Learn)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	config.clamp()
	return config, nil
}

// extractEngineConfig extracts engine configuration from a map
func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		engine.CacheSize = val
	}
}

// extractDictConfig extracts dictionary configuration from a map
func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "latin_file"); ok {
		dict.LatinFile = val
	}
	if val, ok := utils.ExtractString(data, "kannada_file"); ok {
		dict.KannadaFile = val
	}
	if val, ok := utils.ExtractString(data, "bigram_file"); ok {
		dict.BigramFile = val
	}
	if val, ok := utils.ExtractString(data, "trigram_file"); ok {
		dict.TrigramFile = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "hot_words"); ok {
		dict.HotWords = val
	}
}

// extractFuzzyConfig extracts fuzzy matching configuration from a map
func extractFuzzyConfig(data map[string]any, fuzzy *FuzzyConfig) {
	if val, ok := utils.ExtractInt64(data, "max_distance"); ok {
		fuzzy.MaxDistance = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		fuzzy.MinPrefix = val
	}
}

// extractWeightsConfig extracts scoring weights from a map
func extractWeightsConfig(data map[string]any, weights *suggest.Weights) {
	if val, ok := utils.ExtractFloat64(data, "prefix"); ok {
		weights.Prefix = val
	}
	if val, ok := utils.ExtractFloat64(data, "exact"); ok {
		weights.Exact = val
	}
	if val, ok := utils.ExtractFloat64(data, "frequency"); ok {
		weights.Frequency = val
	}
	if val, ok := utils.ExtractFloat64(data, "recency"); ok {
		weights.Recency = val
	}
	if val, ok := utils.ExtractFloat64(data, "context"); ok {
		weights.Context = val
	}
	if val, ok := utils.ExtractFloat64(data, "user_learned"); ok {
		weights.UserLearned = val
	}
}

// extractSourcesConfig extracts source multipliers from a map
func extractSourcesConfig(data map[string]any, sources *suggest.SourceWeights) {
	if val, ok := utils.ExtractFloat64(data, "dictionary"); ok {
		sources.Dictionary = val
	}
	if val, ok := utils.ExtractFloat64(data, "frequency"); ok {
		sources.Frequency = val
	}
	if val, ok := utils.ExtractFloat64(data, "ngram"); ok {
		sources.Ngram = val
	}
	if val, ok := utils.ExtractFloat64(data, "user_learned"); ok {
		sources.UserLearned = val
	}
	if val, ok := utils.ExtractFloat64(data, "exact_match"); ok {
		sources.ExactMatch = val
	}
}

// extractLearnConfig extracts learning store configuration from a map
func extractLearnConfig(data map[string]any, learn *LearnConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		learn.Enabled = val
	}
	if val, ok := utils.ExtractString(data, "db_file"); ok {
		learn.DBFile = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_length"); ok {
		learn.MinWordLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_age_days"); ok {
		learn.MaxAgeDays = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_freq"); ok {
		learn.MinWordFreq = val
	}
	if val, ok := utils.ExtractInt64(data, "min_ngram_freq"); ok {
		learn.MinNgramFreq = val
	}
	if val, ok := utils.ExtractBool(data, "prune_on_start"); ok {
		learn.PruneOnStart = val
	}
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "default_layout"); ok {
		cli.DefaultLayout = val
	}
	if val, ok := utils.ExtractBool(data, "default_no_filter"); ok {
		cli.DefaultNoFilter = val
	}
}

// clamp pulls out-of-range values back to usable ones so one bad line in a
// hand-edited file cannot disable the engine.
func (c *Config) clamp() {
	if c.Engine.CacheSize <= 0 {
		c.Engine.CacheSize = 100
	}
	if c.Dict.MaxWords <= 0 {
		c.Dict.MaxWords = 50000
	}
	if c.Dict.HotWords < 0 {
		c.Dict.HotWords = 0
	}
	if c.Fuzzy.MaxDistance < 0 {
		c.Fuzzy.MaxDistance = 0
	}
	if c.Fuzzy.MaxDistance > 3 {
		c.Fuzzy.MaxDistance = 3
	}
	if c.Fuzzy.MinPrefix < 1 {
		c.Fuzzy.MinPrefix = 1
	}
	if c.Learn.MinWordLength < 1 {
		c.Learn.MinWordLength = 1
	}
	if c.Learn.MaxAgeDays < 1 {
		c.Learn.MaxAgeDays = 1
	}
	if c.Learn.MinWordFreq < 0 {
		c.Learn.MinWordFreq = 0
	}
	if c.Learn.MinNgramFreq < 0 {
		c.Learn.MinNgramFreq = 0
	}
	if c.Server.MaxLimit < 1 {
		c.Server.MaxLimit = 1
	}
	if c.Server.MinPrefix < 1 {
		c.Server.MinPrefix = 1
	}
	if c.Server.MaxPrefix < c.Server.MinPrefix {
		c.Server.MaxPrefix = c.Server.MinPrefix
	}
	if c.CLI.DefaultLimit < 1 {
		c.CLI.DefaultLimit = 1
	}
	c.Weights = c.Weights.Clamped()
	c.Sources = c.Sources.Clamped()
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the server config values and saves to file
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int, enableFilter *bool) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		server.MaxPrefix = *maxPrefix
	}
	if enableFilter != nil {
		server.EnableFilter = *enableFilter
	}
	c.clamp()
	return SaveConfig(c, configPath)
}
