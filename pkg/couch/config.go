package couch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	envHost     = "COUCH_HOST"
	envPort     = "COUCH_PORT"
	envUser     = "COUCH_USER"
	envPassword = "COUCH_PASSWORD"
	envTimeout  = "COUCH_TIMEOUT"
)

// validate is the package-level validator; custom registrations belong in init.
var validate = validator.New()

// Config describes how to reach the server.
type Config struct {
	Host     string        `validate:"required,hostname|ip"`
	Port     int           `validate:"min=1,max=65535"`
	Username string        `validate:"required_with=Password"`
	Password string
	Timeout  time.Duration `validate:"min=0"`
}

// DefaultConfig returns the loopback server on the default port.
func DefaultConfig() Config {
	return Config{Host: DefaultHost, Port: DefaultPort}
}

// Validate checks the configuration and reports every failing field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("couch: invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// ConfigFromEnv reads COUCH_HOST, COUCH_PORT, COUCH_USER, COUCH_PASSWORD and
// COUCH_TIMEOUT, falling back to DefaultConfig for unset values.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Host = getEnv(envHost, cfg.Host)
	cfg.Username = getEnv(envUser, "")
	cfg.Password = getEnv(envPassword, "")

	if v := getEnv(envPort, ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("couch: parse %s: %w", envPort, err)
		}
		cfg.Port = port
	}
	if v := getEnv(envTimeout, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("couch: parse %s: %w", envTimeout, err)
		}
		cfg.Timeout = d
	}
	return cfg, cfg.Validate()
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
