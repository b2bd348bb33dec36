// Package config loads a zroj worker's runtime settings from environment
// variables with sane defaults, the same "env var with fallback" idiom
// used for the queue/heartbeat settings it configures.
package config

import (
	"os"
	"strconv"
	"time"

	"zroj/internal/sandbox/engine"
	"zroj/internal/sandbox/spec"
	"zroj/pkg/logger"
)

// Config holds runtime settings for a zroj judge worker process.
type Config struct {
	WorkerID          string        // identifies this worker in heartbeats and logs
	WorkerConcurrency int           // number of judging goroutines
	WorkRoot          string        // base directory for per-submission sandbox workspaces
	QueueVisibility   time.Duration // how long a reserved job may stay unacked
	QueueSweepEvery   time.Duration // how often expired reservations are requeued
	RedisURL          string        // redis://host:port/db

	CacheDir       string // compile cache artifact directory
	CacheMaxBinary int64  // max number of compiled binaries retained at once

	DefaultLimits spec.ResourceLimit // fallback resource limits when a problem doesn't override them

	Sandbox engine.Config

	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console
}

// Load populates Config from environment variables with sane defaults.
func Load() Config {
	return Config{
		WorkerID:          firstNonEmpty(os.Getenv("ZROJ_WORKER_ID"), "zroj-worker"),
		WorkerConcurrency: intFromEnv("ZROJ_WORKER_CONCURRENCY", 4),
		WorkRoot:          firstNonEmpty(os.Getenv("ZROJ_WORK_ROOT"), "/var/lib/zroj/work"),
		QueueVisibility:   durationFromEnv("ZROJ_QUEUE_VISIBILITY", 30*time.Second),
		QueueSweepEvery:   durationFromEnv("ZROJ_QUEUE_SWEEP_INTERVAL", 15*time.Second),
		RedisURL:          firstNonEmpty(os.Getenv("ZROJ_REDIS_URL"), "redis://localhost:6379/0"),

		CacheDir:       firstNonEmpty(os.Getenv("ZROJ_CACHE_DIR"), "/var/lib/zroj/compile-cache"),
		CacheMaxBinary: int64FromEnv("ZROJ_CACHE_MAX_BINARIES", 64),

		DefaultLimits: spec.ResourceLimit{
			CPUTimeMs:  int64FromEnv("ZROJ_DEFAULT_CPU_TIME_MS", 1000),
			WallTimeMs: int64FromEnv("ZROJ_DEFAULT_WALL_TIME_MS", 3000),
			MemoryMB:   int64FromEnv("ZROJ_DEFAULT_MEMORY_MB", 256),
			StackMB:    int64FromEnv("ZROJ_DEFAULT_STACK_MB", 64),
			OutputMB:   int64FromEnv("ZROJ_DEFAULT_OUTPUT_MB", 64),
			PIDs:       int64FromEnv("ZROJ_DEFAULT_PIDS", 16),
		},

		Sandbox: engine.Config{
			CgroupRoot:           firstNonEmpty(os.Getenv("ZROJ_CGROUP_ROOT"), "/sys/fs/cgroup/zroj"),
			SeccompDir:           firstNonEmpty(os.Getenv("ZROJ_SECCOMP_DIR"), "/etc/zroj/seccomp"),
			HelperPath:           firstNonEmpty(os.Getenv("ZROJ_SANDBOX_HELPER"), "/usr/local/bin/zroj-sandbox-init"),
			StdoutStderrMaxBytes: int64FromEnv("ZROJ_MAX_OUTPUT_BYTES", 8*1024*1024),
			EnableSeccomp:        boolFromEnv("ZROJ_ENABLE_SECCOMP", true),
			EnableCgroup:         boolFromEnv("ZROJ_ENABLE_CGROUP", true),
			EnableNamespaces:     boolFromEnv("ZROJ_ENABLE_NAMESPACES", true),
		},

		LogLevel:  firstNonEmpty(os.Getenv("ZROJ_LOG_LEVEL"), "info"),
		LogFormat: firstNonEmpty(os.Getenv("ZROJ_LOG_FORMAT"), "json"),
	}
}

// LoggerConfig adapts the loaded settings into pkg/logger's Config shape.
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Service: "zroj-judge",
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func int64FromEnv(name string, defaultVal int64) int64 {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func durationFromEnv(name string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
