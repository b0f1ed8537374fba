package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFiles are loaded into the process environment before it is read.
// Variables that are already set are not overridden.
var dotenvFiles = []string{".env"}

// parseEnv overlays Config with environment variables. Variable names follow
// the deployment's historical naming (REGION, DB_HOST, PROXY_HOST, ...).
//
// Scheduled operations are tuned with SCHEDULE_<OPERATION>=<duration>,
// e.g. SCHEDULE_AIRDROP=12h or SCHEDULE_EXPIRE_SESSIONS=0 to disable.
func parseEnv(c *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	envString(&c.HTTPAddr, "HTTP_ADDR")
	envString(&c.HealthAddrGRPC, "GRPC_HEALTH_ADDR")
	envString(&c.DatabaseDSN, "DATABASE_DSN")
	envString(&c.DBConnStrategy, "DB_CONN_STRATEGY")
	envString(&c.DBHost, "DB_HOST")
	envString(&c.DBProxyHost, "PROXY_HOST")
	envString(&c.DBUser, "DB_USER")
	envString(&c.DBName, "DB_NAME")
	envString(&c.DBPassword, "DB_PASSWORD")
	envString(&c.DBSSLMode, "DB_SSLMODE")
	envString(&c.AWSRegion, "REGION")
	envString(&c.AWSEndpoint, "AWS_ENDPOINT")
	envString(&c.SigningBackend, "SIGNING_BACKEND")
	envString(&c.KMSKeyID, "KMS_KEY_ID")
	envString(&c.SigningKeyFile, "SIGNING_KEY_FILE")
	envString(&c.NotifierBackend, "NOTIFIER_BACKEND")
	envString(&c.SenderAddress, "SENDER_EMAIL_ADDR")
	envString(&c.RedisURL, "REDIS_URL")
	envString(&c.NotifyTopic, "NOTIFY_TOPIC")
	envString(&c.LogBackend, "LOG_BACKEND")
	envString(&c.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.DBPort = port
	}
	if v, ok := os.LookupEnv("RUN_MIGRATIONS"); ok && v != "" {
		run, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RUN_MIGRATIONS %q: %w", v, err)
		}
		c.RunMigrations = run
	}
	if v, ok := os.LookupEnv("HEALTH_PROBE_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HEALTH_PROBE_INTERVAL %q: %w", v, err)
		}
		c.HealthProbeInterval = d
	}

	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		name, ok := strings.CutPrefix(key, "SCHEDULE_")
		if !ok || name == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if c.Schedule == nil {
			c.Schedule = map[string]time.Duration{}
		}
		c.Schedule[name] = d
	}

	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
