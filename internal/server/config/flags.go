package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/democracy365/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g. ":8080")
//	-g string        gRPC health bind address (e.g. ":50051")
//	-d string        PostgreSQL DSN (password strategy)
//	-conn string     connection strategy: password | iam
//	-k string        KMS key id
//	-signing string  signing backend: kms | local
//	-key string      PEM file for the local signing backend
//	-notifier string notifier backend: ses | queue | log
//	-redis string    Redis URL for the queue notifier
//	-l string        log level
//	-migrate bool    run migrations on start
//
// Only these flags are taken from args; everything else is left for other
// components (see flagx.FilterArgs).
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run HTTP server")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DBConnStrategy, "conn", config.DBConnStrategy, "database connection strategy (password|iam)")
	fs.StringVar(&config.KMSKeyID, "k", config.KMSKeyID, "KMS key id")
	fs.StringVar(&config.SigningBackend, "signing", config.SigningBackend, "signing backend (kms|local)")
	fs.StringVar(&config.SigningKeyFile, "key", config.SigningKeyFile, "PEM private key for local signing")
	fs.StringVar(&config.NotifierBackend, "notifier", config.NotifierBackend, "notifier backend (ses|queue|log)")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "Redis URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.RunMigrations, "migrate", config.RunMigrations, "run migrations on start")

	return fs.Parse(flagx.FilterArgs(args, flagx.Names(fs)))
}
