package check

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/carbonreport/carbonreport/internal/configfiles"
)

// ConfigFileResult is the state of the bootstrap file after the check
type ConfigFileResult struct {
	Path    string
	Exists  bool
	Created bool
	Error   error
}

// checkConfigFile offers to write the example bootstrap file when it is missing.
// Declining is not an error: the server then runs on the defaults.
func (c *Checker) checkConfigFile() ConfigFileResult {
	result := ConfigFileResult{Path: c.configPath}

	green := color.New(color.FgGreen)
	if fileExists(c.configPath) {
		result.Exists = true
		green.Printf("  ✓ %s\n", c.configPath)
		return result
	}
	color.New(color.FgYellow).Printf("  ⚠ %s does not exist, defaults apply\n", c.configPath)

	ok, err := c.confirm(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to get user confirmation: %w", err)
		return result
	}
	if !ok {
		return result
	}

	created, err := configfiles.WriteBootstrapExample(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to create file %s: %w", c.configPath, err)
		return result
	}
	result.Exists = true
	result.Created = created
	green.Printf("  ✓ Created %s (review render.language and export.chrome_path)\n", c.configPath)
	return result
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
