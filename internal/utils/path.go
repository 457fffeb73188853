package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver locates the data directory holding dictionary and n-gram
// text assets, plus the per-user config directory.
type PathResolver struct {
	executableDir string
	configDir     string
}

// NewPathResolver creates a resolver anchored at the running executable.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		configDir:     userConfigDir(homeDir),
	}

	log.Debugf("PathResolver initialized: exec=%s, configDir=%s",
		execPath, pr.configDir)

	return pr, nil
}

// userConfigDir returns the appropriate config directory for the platform
func userConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "lipiserve")
		}
		return filepath.Join(homeDir, ".config", "lipiserve")
	case "darwin":
		return filepath.Join(homeDir, ".config", "lipiserve")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lipiserve")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "lipiserve")
	default:
		return filepath.Join(homeDir, ".lipiserve")
	}
}

// GetDataDir resolves the directory containing word list assets. Candidates
// in order: the user path as given if absolute, then relative to the
// executable, then relative to the working directory, then the usual data/
// locations. The first directory containing any .txt asset wins; when none
// validates, the executable-relative path is returned so errors point at
// the most likely intended location.
func (pr *PathResolver) GetDataDir(userSpecifiedPath string) (string, error) {
	var candidatePaths []string

	if filepath.IsAbs(userSpecifiedPath) {
		candidatePaths = append(candidatePaths, userSpecifiedPath)
	}

	execRelativePath := filepath.Join(pr.executableDir, userSpecifiedPath)
	candidatePaths = append(candidatePaths, execRelativePath)

	if cwd, err := os.Getwd(); err == nil {
		candidatePaths = append(candidatePaths, filepath.Join(cwd, userSpecifiedPath))
	}

	candidatePaths = append(candidatePaths,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)

	for _, path := range candidatePaths {
		if pr.isValidDataDir(path) {
			log.Debugf("Found valid data directory: %s", path)
			return path, nil
		}
		log.Debugf("Data directory candidate not valid: %s", path)
	}

	return execRelativePath, nil
}

// isValidDataDir checks if a directory holds at least one word list asset
func (pr *PathResolver) isValidDataDir(path string) bool {
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.txt"))
	if err != nil {
		return false
	}
	return len(matches) > 0
}

// GetConfigDir returns the per-user config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}
