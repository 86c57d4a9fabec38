// Package config handles configuration loading for the controller process:
// env vars with a lower-priority optional YAML file, validated defaults,
// descriptive errors on missing required fields.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Runtime backend for the local execution subsystem: docker, kubernetes, exec
	Runtime string

	// Working directory for the exec runtime
	RuntimeWorkDir string

	// OTLP collector endpoint for traces
	OTELEndpoint string

	// Root path jobs archive their output under; always normalized to end
	// in a path separator.
	ArchiveRoot string

	// Fallback job memory (MB) when neither the request nor the resolved
	// command specifies one.
	DefaultJobMemory int

	// Hard per-job memory ceiling (MB); exceeding it fails admission as
	// INVALID/Precondition.
	MaxJobMemory int

	// This node's memory admission ceiling (MB); the NodeMemoryLedger cap.
	MaxSystemMemory int

	// Whether the per-user active-jobs quota (stage 8) is enforced at all.
	ActiveLimitEnabled bool

	// This node's identity, stamped onto every JobRecord's ExecutionHost.
	Hostname string

	// Shared secret required on POST /tenants, the one endpoint that
	// creates the credentials everything else authenticates with. When
	// empty, no bearer token matches, so every POST /tenants is rejected.
	AdminSecret string
}

var validRuntimes = map[string]bool{
	"docker":     true,
	"kubernetes": true,
	"exec":       true,
}

// Load reads configuration from an optional YAML file at path (ignored if
// path is empty) overlaid with environment variables, which always win.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http_port", 6161)
	v.SetDefault("runtime", "docker")
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("archive_root", "/var/lib/jobcoordinator/archive")
	v.SetDefault("default_job_memory", 1024)
	v.SetDefault("max_job_memory", 8192)
	v.SetDefault("max_system_memory", 32768)
	v.SetDefault("active_limit_enabled", false)

	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("http_port", "PORT")
	_ = v.BindEnv("runtime", "RUNTIME")
	_ = v.BindEnv("runtime_workdir", "RUNTIME_WORKDIR")
	_ = v.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("archive_root", "ARCHIVE_ROOT")
	_ = v.BindEnv("default_job_memory", "DEFAULT_JOB_MEMORY")
	_ = v.BindEnv("max_job_memory", "MAX_JOB_MEMORY")
	_ = v.BindEnv("max_system_memory", "MAX_SYSTEM_MEMORY")
	_ = v.BindEnv("active_limit_enabled", "ACTIVE_LIMIT_ENABLED")
	_ = v.BindEnv("admin_secret", "ADMIN_SECRET")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if v.GetString("database_url") == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	runtime := v.GetString("runtime")
	if !validRuntimes[runtime] {
		return nil, fmt.Errorf("invalid runtime %q: must be one of docker, kubernetes, exec", runtime)
	}

	hostname := v.GetString("hostname")
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("determining hostname: %w", err)
		}
		hostname = h
	}

	archiveRoot := v.GetString("archive_root")
	if !strings.HasSuffix(archiveRoot, "/") {
		archiveRoot += "/"
	}

	return &Config{
		DatabaseURL:        v.GetString("database_url"),
		HTTPPort:           v.GetInt("http_port"),
		Runtime:            runtime,
		RuntimeWorkDir:     v.GetString("runtime_workdir"),
		OTELEndpoint:       v.GetString("otel_endpoint"),
		ArchiveRoot:        archiveRoot,
		DefaultJobMemory:   v.GetInt("default_job_memory"),
		MaxJobMemory:       v.GetInt("max_job_memory"),
		MaxSystemMemory:    v.GetInt("max_system_memory"),
		ActiveLimitEnabled: v.GetBool("active_limit_enabled"),
		Hostname:           hostname,
		AdminSecret:        v.GetString("admin_secret"),
	}, nil
}
