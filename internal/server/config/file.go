package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/democracy365/internal/flagx"
	"github.com/dmitrijs2005/democracy365/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. It is decoded from
// JSON or YAML (chosen by file extension) and then overlaid on Config; only
// fields present in the file replace the current values.
type FileConfig struct {
	HTTPAddr       string `json:"http_addr" yaml:"http_addr"`
	HealthAddrGRPC string `json:"health_addr_grpc" yaml:"health_addr_grpc"`

	DatabaseDSN    string `json:"database_dsn" yaml:"database_dsn"`
	DBConnStrategy string `json:"db_conn_strategy" yaml:"db_conn_strategy"`
	DBHost         string `json:"db_host" yaml:"db_host"`
	DBProxyHost    string `json:"db_proxy_host" yaml:"db_proxy_host"`
	DBPort         int    `json:"db_port" yaml:"db_port"`
	DBUser         string `json:"db_user" yaml:"db_user"`
	DBName         string `json:"db_name" yaml:"db_name"`
	DBPassword     string `json:"db_password" yaml:"db_password"`
	DBSSLMode      string `json:"db_sslmode" yaml:"db_sslmode"`
	RunMigrations  *bool  `json:"run_migrations" yaml:"run_migrations"`

	AWSRegion      string `json:"aws_region" yaml:"aws_region"`
	AWSEndpoint    string `json:"aws_endpoint" yaml:"aws_endpoint"`
	AWSAccessKey   string `json:"aws_access_key" yaml:"aws_access_key"`
	AWSSecretKey   string `json:"aws_secret_key" yaml:"aws_secret_key"`
	SigningBackend string `json:"signing_backend" yaml:"signing_backend"`
	KMSKeyID       string `json:"kms_key_id" yaml:"kms_key_id"`
	SigningKeyFile string `json:"signing_key_file" yaml:"signing_key_file"`

	NotifierBackend string `json:"notifier_backend" yaml:"notifier_backend"`
	SenderAddress   string `json:"sender_address" yaml:"sender_address"`
	RedisURL        string `json:"redis_url" yaml:"redis_url"`
	NotifyTopic     string `json:"notify_topic" yaml:"notify_topic"`

	LogBackend string `json:"log_backend" yaml:"log_backend"`
	LogLevel   string `json:"log_level" yaml:"log_level"`

	HealthProbeInterval *timex.Duration           `json:"health_probe_interval" yaml:"health_probe_interval"`
	Schedule            map[string]timex.Duration `json:"schedule" yaml:"schedule"`
}

// parseFile loads the file named by -c/-config, if any.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	case ".json", "":
		err = json.Unmarshal(data, fc)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.HealthAddrGRPC, fc.HealthAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.DBConnStrategy, fc.DBConnStrategy)
	setString(&c.DBHost, fc.DBHost)
	setString(&c.DBProxyHost, fc.DBProxyHost)
	if fc.DBPort != 0 {
		c.DBPort = fc.DBPort
	}
	setString(&c.DBUser, fc.DBUser)
	setString(&c.DBName, fc.DBName)
	setString(&c.DBPassword, fc.DBPassword)
	setString(&c.DBSSLMode, fc.DBSSLMode)
	if fc.RunMigrations != nil {
		c.RunMigrations = *fc.RunMigrations
	}
	setString(&c.AWSRegion, fc.AWSRegion)
	setString(&c.AWSEndpoint, fc.AWSEndpoint)
	setString(&c.AWSAccessKey, fc.AWSAccessKey)
	setString(&c.AWSSecretKey, fc.AWSSecretKey)
	setString(&c.SigningBackend, fc.SigningBackend)
	setString(&c.KMSKeyID, fc.KMSKeyID)
	setString(&c.SigningKeyFile, fc.SigningKeyFile)
	setString(&c.NotifierBackend, fc.NotifierBackend)
	setString(&c.SenderAddress, fc.SenderAddress)
	setString(&c.RedisURL, fc.RedisURL)
	setString(&c.NotifyTopic, fc.NotifyTopic)
	setString(&c.LogBackend, fc.LogBackend)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.HealthProbeInterval != nil {
		c.HealthProbeInterval = fc.HealthProbeInterval.Duration
	}
	if len(fc.Schedule) > 0 && c.Schedule == nil {
		c.Schedule = make(map[string]time.Duration, len(fc.Schedule))
	}
	for name, every := range fc.Schedule {
		c.Schedule[name] = every.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
