package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultHistogramLowerBound = 1     // seconds
	defaultHistogramUpperBound = 10800 // seconds, 3 hours
	defaultSignificantDigits   = 3
	defaultMinTripSeconds      = 1200 // 20 minutes, business floor

	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "app.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	// Environment variable prefix
	envPrefix = "TRIPLENS"

	// hdrhistogram supports 1..5 significant decimal digits.
	minSignificantDigits = 1
	maxSignificantDigits = 5
)

type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig bounds the duration histograms and sets the minimum
// plausible trip length.
type AnalysisConfig struct {
	HistogramLowerBound int64 `mapstructure:"histogramLowerBound"` // seconds
	HistogramUpperBound int64 `mapstructure:"histogramUpperBound"` // seconds
	SignificantDigits   int   `mapstructure:"significantDigits"`
	MinTripSeconds      int64 `mapstructure:"minTripSeconds"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and
// validates. A missing config file is not an error: the analyzer runs on
// defaults alone, so only an unreadable or invalid file is fatal.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading the config source
	setDefaults(v)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up the viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.histogramLowerBound", defaultHistogramLowerBound)
	v.SetDefault("analysis.histogramUpperBound", defaultHistogramUpperBound)
	v.SetDefault("analysis.significantDigits", defaultSignificantDigits)
	v.SetDefault("analysis.minTripSeconds", defaultMinTripSeconds)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file registered with
// viper. No path configured means defaults apply.
func readConfigFile(v *viper.Viper, configPath string) error {
	if configPath == "" {
		return nil
	}
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	a := cfg.Analysis
	if a.HistogramLowerBound <= 0 || a.HistogramUpperBound <= 0 {
		return ErrNonPositiveHistogramBound
	}
	if a.HistogramLowerBound >= a.HistogramUpperBound {
		return ErrInvertedHistogramBounds
	}
	if a.SignificantDigits < minSignificantDigits || a.SignificantDigits > maxSignificantDigits {
		return ErrInvalidSignificantDigits
	}
	if a.MinTripSeconds <= 0 {
		return ErrNonPositiveMinTripSeconds
	}
	return nil
}
