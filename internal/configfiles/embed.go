// Package configfiles provides embedded example files for carbonreport.
// They seed a new installation and back the render smoke test of the checker.
package configfiles

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed bootstrap.example.yaml
//go:embed sample.payload.json
var configFS embed.FS

// GetBootstrapExample returns the example bootstrap configuration file content
func GetBootstrapExample() ([]byte, error) {
	return configFS.ReadFile("bootstrap.example.yaml")
}

// GetSamplePayload returns a complete example report payload
func GetSamplePayload() ([]byte, error) {
	return configFS.ReadFile("sample.payload.json")
}

// WriteBootstrapExample writes the example configuration to path, creating parent
// directories. An existing file is left untouched and false is returned.
func WriteBootstrapExample(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	content, err := GetBootstrapExample()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, err
	}
	return true, nil
}
