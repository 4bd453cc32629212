package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
)

// EnvPrefix prefixes every environment variable read into the config.
const EnvPrefix = "FEATURESYNC"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Sync configuration
	Source       string
	Workspace    string
	StagingLayer string
	Target       string
	Layer        string
	WKID         int
	Editor       string
	Encoding     string
	Sheet        string
	Mapping      string
	Strategy     string
	Tolerance    float64
	Timeout      time.Duration

	// Logging configuration. LogLevel is the --log-level flag, EnvLogLevel
	// the LOG_LEVEL environment variable.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (FEATURESYNC_*)
// 3. .env files
// 4. Config file (./.featuresync.yaml or ~/.featuresync.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".featuresync")
		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Source:       v.GetString("source"),
		Workspace:    v.GetString("workspace"),
		StagingLayer: v.GetString("staging_layer"),
		Target:       v.GetString("target"),
		Layer:        v.GetString("layer"),
		WKID:         v.GetInt("wkid"),
		Editor:       v.GetString("editor"),
		Encoding:     v.GetString("encoding"),
		Sheet:        v.GetString("sheet"),
		Mapping:      v.GetString("mapping"),
		Strategy:     v.GetString("strategy"),
		Tolerance:    v.GetFloat64("tolerance"),
		Timeout:      v.GetDuration("timeout"),

		EnvLogLevel: getEnvOrDefault("LOG_LEVEL", v.GetString("log_level")),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", v.GetString("log_format")),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", v.GetString("log_output")),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", constants.DefaultSourceFile)
	v.SetDefault("workspace", constants.DefaultWorkspace)
	v.SetDefault("staging_layer", constants.DefaultStagingLayer)
	v.SetDefault("target", constants.DefaultTarget)
	v.SetDefault("layer", constants.DefaultTargetLayer)
	v.SetDefault("wkid", constants.WKIDWGS84)
	v.SetDefault("strategy", "all")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	c.LogLevel = logLevel
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
