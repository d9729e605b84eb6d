// Package config loads riskscan settings from RISKSCAN_* environment
// variables, with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all riskscan configuration.
type Config struct {
	Env        string `env:"RISKSCAN_ENV" validate:"oneof=development production test"`
	Server     ServerConfig
	Log        LogConfig
	Engine     EngineConfig
	Classifier ClassifierConfig
	Output     OutputConfig
}

// ServerConfig holds HTTP transport settings.
type ServerConfig struct {
	Port            int           `env:"RISKSCAN_PORT" validate:"min=1,max=65535"`
	MaxUploadBytes  int64         `env:"RISKSCAN_MAX_UPLOAD_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"RISKSCAN_SHUTDOWN_TIMEOUT" validate:"gte=0"`
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `env:"RISKSCAN_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `env:"RISKSCAN_LOG_FORMAT" validate:"oneof=json text"`
}

// EngineConfig holds normalization settings.
type EngineConfig struct {
	SchemaPath       string `env:"RISKSCAN_SCHEMA_PATH"`
	Workers          int    `env:"RISKSCAN_WORKERS" validate:"gte=0"`
	StrictTimestamps bool   `env:"RISKSCAN_STRICT_TIMESTAMPS"`
}

// ClassifierConfig selects and configures the risk classifier.
type ClassifierConfig struct {
	Kind        string        `env:"RISKSCAN_CLASSIFIER" validate:"oneof=onnx remote"`
	ModelPath   string        `env:"RISKSCAN_MODEL_PATH"`
	OutputName  string        `env:"RISKSCAN_MODEL_OUTPUT" validate:"required"`
	LibraryPath string        `env:"RISKSCAN_ORT_LIBRARY"`
	URL         string        `env:"RISKSCAN_CLASSIFIER_URL" validate:"required_if=Kind remote,omitempty,url"`
	Token       string        `env:"RISKSCAN_CLASSIFIER_TOKEN"`
	Timeout     time.Duration `env:"RISKSCAN_CLASSIFIER_TIMEOUT" validate:"gte=0"`
}

// OutputConfig holds report sink settings. Every sink is optional.
type OutputConfig struct {
	WebhookURL  string `env:"RISKSCAN_WEBHOOK_URL" validate:"omitempty,url"`
	File        string `env:"RISKSCAN_OUTPUT_FILE"`
	FileMaxSize string `env:"RISKSCAN_OUTPUT_FILE_MAX_SIZE" validate:"bytesize"`
	Pretty      bool   `env:"RISKSCAN_OUTPUT_PRETTY"`
	Detail      string `env:"RISKSCAN_OUTPUT_DETAIL" validate:"oneof=summary full"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env: getenv("RISKSCAN_ENV", "development"),
		Server: ServerConfig{
			Port:            getenvInt("RISKSCAN_PORT", 5000),
			MaxUploadBytes:  getenvInt64("RISKSCAN_MAX_UPLOAD_BYTES", 32<<20),
			ShutdownTimeout: getenvDuration("RISKSCAN_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getenv("RISKSCAN_LOG_LEVEL", "info")),
			Format: strings.ToLower(getenv("RISKSCAN_LOG_FORMAT", "json")),
		},
		Engine: EngineConfig{
			SchemaPath:       os.Getenv("RISKSCAN_SCHEMA_PATH"),
			Workers:          getenvInt("RISKSCAN_WORKERS", 0),
			StrictTimestamps: getenvBool("RISKSCAN_STRICT_TIMESTAMPS", false),
		},
		Classifier: ClassifierConfig{
			Kind:        strings.ToLower(getenv("RISKSCAN_CLASSIFIER", "onnx")),
			ModelPath:   getenv("RISKSCAN_MODEL_PATH", "models/fraud_model.onnx"),
			OutputName:  getenv("RISKSCAN_MODEL_OUTPUT", "probabilities"),
			LibraryPath: os.Getenv("RISKSCAN_ORT_LIBRARY"),
			URL:         os.Getenv("RISKSCAN_CLASSIFIER_URL"),
			Token:       os.Getenv("RISKSCAN_CLASSIFIER_TOKEN"),
			Timeout:     getenvDuration("RISKSCAN_CLASSIFIER_TIMEOUT", 10*time.Second),
		},
		Output: OutputConfig{
			WebhookURL:  os.Getenv("RISKSCAN_WEBHOOK_URL"),
			File:        os.Getenv("RISKSCAN_OUTPUT_FILE"),
			FileMaxSize: os.Getenv("RISKSCAN_OUTPUT_FILE_MAX_SIZE"),
			Pretty:      getenvBool("RISKSCAN_OUTPUT_PRETTY", false),
			Detail:      strings.ToLower(getenv("RISKSCAN_OUTPUT_DETAIL", "full")),
		},
	}
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate checks the loaded configuration and reports every problem at
// once, naming the offending environment variable.
func (c Config) Validate() error {
	var errs []error

	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}

	if c.Classifier.Kind == "onnx" {
		if _, err := os.Stat(c.Classifier.ModelPath); err != nil {
			errs = append(errs, fmt.Errorf("RISKSCAN_MODEL_PATH: model file not found: %s", c.Classifier.ModelPath))
		}
	}
	if c.Engine.SchemaPath != "" {
		if _, err := os.Stat(c.Engine.SchemaPath); err != nil {
			errs = append(errs, fmt.Errorf("RISKSCAN_SCHEMA_PATH: schema file not found: %s", c.Engine.SchemaPath))
		}
	}

	return errors.Join(errs...)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := humanize.ParseBytes(s)
		return err == nil
	})
	return v
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required_if":
		return fmt.Errorf("%s: required when RISKSCAN_CLASSIFIER=remote", fe.Field())
	case "required":
		return fmt.Errorf("%s: required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s: %v is not one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "url":
		return fmt.Errorf("%s: %q is not a valid URL", fe.Field(), fe.Value())
	case "bytesize":
		return fmt.Errorf("%s: %q is not a size like 10MB", fe.Field(), fe.Value())
	default:
		return fmt.Errorf("%s: %v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
