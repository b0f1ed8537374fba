// Package config handles configuration for the democracy365 server:
// defaults, a JSON or YAML file overlay, environment variables (optionally
// loaded from .env) and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Connection strategies for the relational store.
const (
	ConnPassword = "password"
	ConnIAM      = "iam"
)

// Signing backends.
const (
	SigningKMS   = "kms"
	SigningLocal = "local"
)

// Notifier backends.
const (
	NotifierSES   = "ses"
	NotifierQueue = "queue"
	NotifierLog   = "log"
)

// Config holds runtime settings for the server.
//
// Fields:
//   - HTTPAddr / HealthAddrGRPC: bind addresses of the public HTTP API and the gRPC health service.
//   - DatabaseDSN: full PostgreSQL DSN; when set it wins over the discrete DB* fields.
//   - DBConnStrategy: "password" (static password) or "iam" (RDS proxy, IAM auth token per connection).
//   - AWSEndpoint / AWSAccessKey / AWSSecretKey: optional overrides for a local AWS emulator;
//     when empty the SDK default endpoint and credential chain are used.
//   - SigningBackend / KMSKeyID / SigningKeyFile: where bearer tokens are signed.
//   - NotifierBackend / SenderAddress / RedisURL / NotifyTopic: how sign-in codes are delivered.
//   - Schedule: interval per scheduled operation; zero disables the job.
type Config struct {
	HTTPAddr       string
	HealthAddrGRPC string

	DatabaseDSN    string
	DBConnStrategy string
	DBHost         string
	DBProxyHost    string
	DBPort         int
	DBUser         string
	DBName         string
	DBPassword     string
	DBSSLMode      string
	RunMigrations  bool

	AWSRegion      string
	AWSEndpoint    string
	AWSAccessKey   string
	AWSSecretKey   string
	SigningBackend string
	KMSKeyID       string
	SigningKeyFile string

	NotifierBackend string
	SenderAddress   string
	RedisURL        string
	NotifyTopic     string

	LogBackend string
	LogLevel   string

	HealthProbeInterval time.Duration
	Schedule            map[string]time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.HealthAddrGRPC = ":50051"
	c.DBConnStrategy = ConnPassword
	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "postgres"
	c.DBName = "democracy365"
	c.DBPassword = "postgres"
	c.DBSSLMode = "disable"
	c.RunMigrations = true
	c.AWSRegion = "us-east-1"
	c.SigningBackend = SigningLocal
	c.SigningKeyFile = "signing_key.pem"
	c.NotifierBackend = NotifierLog
	c.SenderAddress = "no-reply@democracy365.local"
	c.RedisURL = "redis://localhost:6379/0"
	c.NotifyTopic = "d365.notifications"
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.HealthProbeInterval = 15 * time.Second
	c.Schedule = map[string]time.Duration{
		"AIRDROP":               24 * time.Hour,
		"LOG_RANK_HISTORIES":    24 * time.Hour,
		"REFRESH_PROBLEM_RANK":  5 * time.Minute,
		"REFRESH_SOLUTION_RANK": 5 * time.Minute,
		"EXPIRE_SESSIONS":       time.Hour,
	}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally args
// (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and the settings each backend needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBConnStrategy {
	case ConnPassword:
	case ConnIAM:
		if c.DBProxyHost == "" {
			errs = append(errs, errors.New("iam connection strategy requires a proxy host"))
		}
		if c.AWSRegion == "" {
			errs = append(errs, errors.New("iam connection strategy requires an AWS region"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db connection strategy %q", c.DBConnStrategy))
	}

	switch c.SigningBackend {
	case SigningKMS:
		if c.KMSKeyID == "" {
			errs = append(errs, errors.New("kms signing backend requires a key id"))
		}
	case SigningLocal:
		if c.SigningKeyFile == "" {
			errs = append(errs, errors.New("local signing backend requires a key file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown signing backend %q", c.SigningBackend))
	}

	switch c.NotifierBackend {
	case NotifierSES, NotifierLog:
	case NotifierQueue:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("queue notifier requires a redis url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifier backend %q", c.NotifierBackend))
	}

	if (c.AWSAccessKey == "") != (c.AWSSecretKey == "") {
		errs = append(errs, errors.New("static AWS credentials need both access key and secret key"))
	}

	for name, every := range c.Schedule {
		if every < 0 {
			errs = append(errs, fmt.Errorf("negative schedule interval for %s", name))
		}
	}

	return errors.Join(errs...)
}

// PasswordDSN returns DatabaseDSN or builds one from the discrete fields.
func (c *Config) PasswordDSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	if c.DBSSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DBSSLMode}}.Encode()
	}
	return u.String()
}

// ProxyEndpoint is the host:port the IAM auth token is issued for.
func (c *Config) ProxyEndpoint() string {
	return net.JoinHostPort(c.DBProxyHost, strconv.Itoa(c.DBPort))
}
