// Package check provides interactive environment checking and initialization.
// It helps users set up and validate their local carbonreport configuration.
package check

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/carbonreport/carbonreport/internal/config"
)

// CheckResult represents the result of a non-interactive environment check
type CheckResult struct {
	// Success indicates whether all required checks passed
	Success bool
	// Errors contains critical errors that prevent server startup
	Errors []string
	// Warnings contains non-critical issues that don't block startup
	Warnings []string
	// Suggestions contains helpful tips for fixing issues
	Suggestions []string
}

// Checker handles environment checking and initialization
type Checker struct {
	// configPath is the bootstrap configuration file
	configPath string
	// report collects check results for final output
	report *Report
	// theme for consistent styling
	theme *huh.Theme
	// confirm asks before a missing file is created
	confirm func(prompt string) (bool, error)
}

// NewChecker creates a new environment checker for the configuration at configPath.
// An empty path selects the default bootstrap location.
func NewChecker(configPath string) *Checker {
	if configPath == "" {
		configPath = config.BootstrapConfigPath
	}
	c := &Checker{
		configPath: configPath,
		report:     NewReport(),
		theme:      huh.ThemeCharm(),
	}
	c.confirm = c.confirmCreate
	return c
}

// Run executes the full environment check. It returns an error when the
// configuration cannot be used to start the server.
func (c *Checker) Run() error {
	c.printHeader()

	// Step 1: Offer to create the bootstrap file
	fmt.Println()
	printSection("Checking " + filepath.Base(c.configPath))
	c.report.ConfigFile = c.checkConfigFile()
	if err := c.report.ConfigFile.Error; err != nil {
		return fmt.Errorf("file check failed: %w", err)
	}

	// Step 2: Validate the settings and the environment, then render the sample report
	fmt.Println()
	printSection("Validating settings and rendering the sample report")
	err := c.validateConfigs()

	// Step 3: Print final report
	fmt.Println()
	c.report.Print()

	return err
}

// Report returns the collected results
func (c *Checker) Report() *Report {
	return c.report
}

// printHeader prints the welcome header
func (c *Checker) printHeader() {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10")).
		MarginBottom(1)

	fmt.Println(titleStyle.Render("🌱 carbonreport Environment Check"))
}

// printSection prints a section header
func printSection(title string) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15"))
	fmt.Println(style.Render(title + "..."))
}

// BootstrapPath returns the path to the bootstrap config file
func (c *Checker) BootstrapPath() string {
	return c.configPath
}

// ConfigDir returns the directory holding the bootstrap config file
func (c *Checker) ConfigDir() string {
	return filepath.Dir(c.configPath)
}

// confirmCreate asks user to confirm file creation
func (c *Checker) confirmCreate(path string) (bool, error) {
	var confirm bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Create %s from template?", path)).
		Affirmative("Yes").
		Negative("No").
		Value(&confirm).
		WithTheme(c.theme).
		Run()
	if err != nil {
		return false, err
	}
	return confirm, nil
}

// RunNonInteractive performs a non-interactive environment check.
// Unlike Run(), this method does not prompt for user input and does not create files.
// It returns a CheckResult with errors, warnings, and suggestions.
func (c *Checker) RunNonInteractive() *CheckResult {
	result := &CheckResult{
		Success:     true,
		Errors:      make([]string, 0),
		Warnings:    make([]string, 0),
		Suggestions: make([]string, 0),
	}

	// Step 1: The bootstrap file is optional; defaults apply without it
	if !fileExists(c.configPath) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Configuration not found: %s (using defaults)", c.configPath))
		result.Suggestions = append(result.Suggestions,
			"Run 'carbonreport check' to create the configuration file from the template")
	}

	// Step 2: Validate the configuration
	cfg, validation := c.validateBootstrapYaml()
	if !validation.Valid {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Invalid %s: %v", filepath.Base(c.configPath), validation.Error))
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Fix %s and run 'carbonreport check' again", c.configPath))
		return result
	}

	// Step 3: Environment issues are warnings, not errors
	result.Warnings = append(result.Warnings, checkEnvironment(cfg)...)

	// Step 4: A sample render must succeed with these settings
	if smoke, _ := smokeRender(cfg); !smoke.Valid {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Sample render failed: %v", smoke.Error))
	}

	return result
}

// PrintCheckResult prints the check result in a formatted way
func PrintCheckResult(result *CheckResult) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Print errors
	if len(result.Errors) > 0 {
		fmt.Println()
		red.Println("[ERROR] Environment check failed")
		fmt.Println()
		for _, err := range result.Errors {
			red.Printf("  ✗ %s\n", err)
		}
	}

	// Print warnings
	if len(result.Warnings) > 0 {
		fmt.Println()
		yellow.Println("[WARNING] Configuration warnings:")
		fmt.Println()
		for _, warn := range result.Warnings {
			yellow.Printf("  ⚠ %s\n", warn)
		}
	}

	// Print suggestions
	if len(result.Suggestions) > 0 {
		cyan.Println("\nTo fix these issues:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  → %s\n", suggestion)
		}
	}

	fmt.Println()
}
