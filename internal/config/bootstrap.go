package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BootstrapConfigPath is the default path for the configuration file
const BootstrapConfigPath = "config/bootstrap.yaml"

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads configuration from a YAML file with environment variable support.
// Environment variables can override values using the CR_ prefix:
//   - CR_SERVER_HOST, CR_SERVER_PORT, CR_SERVER_DEBUG
//   - CR_DATABASE_PATH
//   - CR_LOG_LEVEL, CR_LOG_FORMAT, CR_LOG_FILE
//   - CR_TELEMETRY_ENABLED, CR_OTLP_ENABLED, CR_OTLP_ENDPOINT
//   - CR_RENDER_LANGUAGE, CR_NARRATIVE_ENABLED, CR_NARRATIVE_COMMAND, CR_NARRATIVE_MODEL
//   - CR_REPORT_RETENTION_DAYS, CHROME_PATH
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration content over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if !Exists(path) {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// Exists checks if the configuration file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteDefault writes the default configuration to path
func WriteDefault(path string) error {
	return Write(path, Default())
}

// Write writes configuration to file
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, []byte(configHeader+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// configHeader is the comment header for bootstrap.yaml
const configHeader = `# carbonreport configuration
# Changes take effect after restart.
#
# Environment Variable Support:
#   - Use ${VAR_NAME} or ${VAR_NAME:-default} in values to reference environment variables
#   - Or use CR_* prefix environment variables to override:
#     CR_SERVER_HOST, CR_SERVER_PORT, CR_DATABASE_PATH
#     CR_LOG_LEVEL, CR_LOG_FORMAT, CR_RENDER_LANGUAGE
#

`

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Only the braced form is expanded so literal dollar signs in values survive.
func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]

		if value := os.Getenv(varName); value != "" {
			return value
		}
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	})
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if v := os.Getenv("CR_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CR_SERVER_DEBUG"); v != "" {
		cfg.Server.Debug = parseBool(v)
	}

	// Database overrides
	if v := os.Getenv("CR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging overrides
	if v := os.Getenv("CR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CR_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CR_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	// Telemetry overrides
	if v := os.Getenv("CR_TELEMETRY_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("CR_OTLP_ENABLED"); v != "" {
		cfg.Telemetry.OTLP.Enabled = parseBool(v)
	}
	if v := os.Getenv("CR_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLP.Endpoint = v
	}

	// Render and narrative overrides
	if v := os.Getenv("CR_RENDER_LANGUAGE"); v != "" {
		cfg.Render.Language = v
	}
	if v := os.Getenv("CR_NARRATIVE_ENABLED"); v != "" {
		cfg.Narrative.Enabled = parseBool(v)
	}
	if v := os.Getenv("CR_NARRATIVE_COMMAND"); v != "" {
		cfg.Narrative.Command = v
	}
	if v := os.Getenv("CR_NARRATIVE_MODEL"); v != "" {
		cfg.Narrative.Model = v
	}

	// Report and export overrides
	if v := os.Getenv("CR_REPORT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Report.RetentionDays = days
		}
	}
	if v := os.Getenv("CHROME_PATH"); v != "" && cfg.Export.ChromePath == "" {
		cfg.Export.ChromePath = v
	}
}

// parseBool parses a boolean string value
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}
