// Package config loads and validates server configuration from flags and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fieldsnap/fieldsnap/internal/snap"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultEstimatorTimeout = 90 * time.Second
	DefaultPageRetries      = 1
)

// Config holds all configuration for the fieldsnap server.
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	PDFDirectory string

	// Estimator configuration
	GeminiAPIKey     string
	GeminiModel      string
	EstimatorTimeout time.Duration

	// Pipeline configuration
	PageRetries int
	Snap        snap.Options

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		GeminiModel:      DefaultGeminiModel,
		EstimatorTimeout: DefaultEstimatorTimeout,
		PageRetries:      DefaultPageRetries,
		Snap:             snap.DefaultOptions(),
		Version:          "1.0.0",
		ServerName:       "fieldsnap",
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("FIELDSNAP")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("gemini_api_key", cfg.GeminiAPIKey)
	viper.SetDefault("gemini_model", cfg.GeminiModel)
	viper.SetDefault("estimator_timeout", cfg.EstimatorTimeout)
	viper.SetDefault("page_retries", cfg.PageRetries)
	viper.SetDefault("cluster_tolerance", cfg.Snap.ClusterTolerance)
	viper.SetDefault("column_snap_distance", cfg.Snap.ColumnSnapDistance)
	viper.SetDefault("line_snap_distance", cfg.Snap.LineSnapDistance)
	viper.SetDefault("widget_iou", cfg.Snap.WidgetIoU)
	viper.SetDefault("box_widget_iou", cfg.Snap.BoxWidgetIoU)
	viper.SetDefault("rect_iou", cfg.Snap.RectIoU)
	viper.SetDefault("box_rect_iou", cfg.Snap.BoxRectIoU)
	viper.SetDefault("prefill_coverage", cfg.Snap.PrefillCoverage)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF documents")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("gemini-api-key", cfg.GeminiAPIKey, "Gemini API key for field estimation")
	pflag.String("gemini-model", cfg.GeminiModel, "Gemini model used for field estimation")
	pflag.Duration("estimator-timeout", cfg.EstimatorTimeout, "Timeout per estimator call")
	pflag.Int("page-retries", cfg.PageRetries, "Sequential retries for a failed page")
	pflag.Float64("cluster-tolerance", cfg.Snap.ClusterTolerance,
		"Distance (pct) within which duplicate vector lines are clustered")
	pflag.Float64("column-snap-distance", cfg.Snap.ColumnSnapDistance,
		"Maximum distance (pct of page width) a table column boundary may snap")
	pflag.Float64("line-snap-distance", cfg.Snap.LineSnapDistance,
		"Vertical tolerance (pct) for snapping a field baseline to a rule")
	pflag.Float64("widget-iou", cfg.Snap.WidgetIoU,
		"Minimum IoU for adopting an AcroForm widget rectangle")
	pflag.Float64("box-widget-iou", cfg.Snap.BoxWidgetIoU,
		"Relaxed widget IoU for checkbox and radio fields")
	pflag.Float64("rect-iou", cfg.Snap.RectIoU,
		"Minimum IoU for textarea rectangle snapping")
	pflag.Float64("box-rect-iou", cfg.Snap.BoxRectIoU,
		"Minimum IoU for checkbox and radio rectangle snapping")
	pflag.Float64("prefill-coverage", cfg.Snap.PrefillCoverage,
		"Word coverage fraction above which a field counts as prefilled")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("gemini_api_key", pflag.Lookup("gemini-api-key"))
	_ = viper.BindPFlag("gemini_model", pflag.Lookup("gemini-model"))
	_ = viper.BindPFlag("estimator_timeout", pflag.Lookup("estimator-timeout"))
	_ = viper.BindPFlag("page_retries", pflag.Lookup("page-retries"))
	_ = viper.BindPFlag("cluster_tolerance", pflag.Lookup("cluster-tolerance"))
	_ = viper.BindPFlag("column_snap_distance", pflag.Lookup("column-snap-distance"))
	_ = viper.BindPFlag("line_snap_distance", pflag.Lookup("line-snap-distance"))
	_ = viper.BindPFlag("widget_iou", pflag.Lookup("widget-iou"))
	_ = viper.BindPFlag("box_widget_iou", pflag.Lookup("box-widget-iou"))
	_ = viper.BindPFlag("rect_iou", pflag.Lookup("rect-iou"))
	_ = viper.BindPFlag("box_rect_iou", pflag.Lookup("box-rect-iou"))
	_ = viper.BindPFlag("prefill_coverage", pflag.Lookup("prefill-coverage"))
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.GeminiAPIKey = viper.GetString("gemini_api_key")
	cfg.GeminiModel = viper.GetString("gemini_model")
	cfg.EstimatorTimeout = viper.GetDuration("estimator_timeout")
	cfg.PageRetries = viper.GetInt("page_retries")
	cfg.Snap.ClusterTolerance = viper.GetFloat64("cluster_tolerance")
	cfg.Snap.ColumnSnapDistance = viper.GetFloat64("column_snap_distance")
	cfg.Snap.LineSnapDistance = viper.GetFloat64("line_snap_distance")
	cfg.Snap.WidgetIoU = viper.GetFloat64("widget_iou")
	cfg.Snap.BoxWidgetIoU = viper.GetFloat64("box_widget_iou")
	cfg.Snap.RectIoU = viper.GetFloat64("rect_iou")
	cfg.Snap.BoxRectIoU = viper.GetFloat64("box_rect_iou")
	cfg.Snap.PrefillCoverage = viper.GetFloat64("prefill_coverage")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	if _, err := os.Stat(c.PDFDirectory); err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.GeminiModel == "" {
		return errors.New("gemini model cannot be empty")
	}
	if c.EstimatorTimeout < 0 {
		return errors.New("estimator timeout cannot be negative")
	}
	if c.PageRetries < 0 {
		return errors.New("page retries cannot be negative")
	}

	if c.Snap.ClusterTolerance <= 0 || c.Snap.ColumnSnapDistance <= 0 || c.Snap.LineSnapDistance <= 0 {
		return errors.New("snapping tolerances must be positive")
	}
	if c.Snap.WidgetIoU <= 0 || c.Snap.WidgetIoU > 1 {
		return errors.New("widget IoU threshold must be in (0, 1]")
	}
	if c.Snap.BoxWidgetIoU <= 0 || c.Snap.BoxWidgetIoU > 1 {
		return errors.New("box widget IoU threshold must be in (0, 1]")
	}
	if c.Snap.RectIoU <= 0 || c.Snap.RectIoU > 1 {
		return errors.New("rect IoU threshold must be in (0, 1]")
	}
	if c.Snap.BoxRectIoU <= 0 || c.Snap.BoxRectIoU > 1 {
		return errors.New("box rect IoU threshold must be in (0, 1]")
	}
	if c.Snap.PrefillCoverage <= 0 || c.Snap.PrefillCoverage > 1 {
		return errors.New("prefill coverage must be in (0, 1]")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsServerMode returns true if the server is running in HTTP server mode.
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
