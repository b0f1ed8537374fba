// Package db owns the relational store connection: connector strategies
// (static password or RDS IAM auth token) and the Provider that hands out a
// single reusable, health-checked *sql.DB.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Connector opens a new connection pool. Opening is lazy for database/sql;
// Provider verifies the pool with a ping right after.
type Connector interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// PasswordConnector connects with a static DSN.
type PasswordConnector struct {
	DSN string
}

func (c PasswordConnector) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// buildAuthToken is a seam for testing auth.BuildAuthToken.
var buildAuthToken = auth.BuildAuthToken

// IAMConnector connects through an RDS proxy. Every physical connection gets
// a freshly generated IAM auth token as its password, so pooled connections
// keep working after earlier tokens expire.
type IAMConnector struct {
	Endpoint    string // proxy host:port
	Region      string
	User        string
	Database    string
	Credentials aws.CredentialsProvider
}

func (c IAMConnector) config() (*pgx.ConnConfig, error) {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(c.User),
		Host:     c.Endpoint,
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {"require"}}.Encode(),
	}
	cfg, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("parse iam conn config: %w", err)
	}
	return cfg, nil
}

func (c IAMConnector) beforeConnect(ctx context.Context, cc *pgx.ConnConfig) error {
	token, err := buildAuthToken(ctx, c.Endpoint, c.Region, c.User, c.Credentials)
	if err != nil {
		return fmt.Errorf("build rds auth token: %w", err)
	}
	cc.Password = token
	return nil
}

func (c IAMConnector) Open(ctx context.Context) (*sql.DB, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cfg, stdlib.OptionBeforeConnect(c.beforeConnect)), nil
}
