package utils

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// DirCheckResult reports whether a directory exists and took a write probe.
type DirCheckResult struct {
	Exists   bool
	Writable bool
	Error    error
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates dirPath and any missing parents.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// SaveTOMLFile encodes data as TOML and writes it atomically: the bytes go
// to a temp file in the target directory first, then rename over filePath.
// The config watcher and the runtime config_update op touch the same file,
// and a reload must never see a half-written config.
func SaveTOMLFile(data any, filePath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".toml-*")
	if err != nil {
		log.Errorf("Failed to create temp config file: %v", err)
		return err
	}
	if err := toml.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// GetExecutableDir returns the directory holding the running binary, the
// last-resort home for config and data when no user dir is writable.
func GetExecutableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// CheckDirStatus makes sure dirPath exists, creating it if needed, and
// probes it for write access. Used to pick a home for config.toml and the
// learn database.
func CheckDirStatus(dirPath string) DirCheckResult {
	if _, err := os.Stat(dirPath); err != nil {
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			log.Warnf("Cannot create directory %s: %v", dirPath, err)
			return DirCheckResult{Error: err}
		}
	}
	return DirCheckResult{Exists: true, Writable: writeProbe(dirPath)}
}

func writeProbe(dirPath string) bool {
	probe := filepath.Join(dirPath, ".lipiserve-probe")
	f, err := os.Create(probe)
	if err != nil {
		log.Warnf("Cannot write to directory %s: %v", dirPath, err)
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
