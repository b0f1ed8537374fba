package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordConnector_OpenIsLazy(t *testing.T) {
	db, err := PasswordConnector{DSN: "postgres://u:p@127.0.0.1:1/none?sslmode=disable"}.Open(context.Background())
	require.NoError(t, err)
	require.NotNil(t, db)
	_ = db.Close()
}

func newIAMConnector() IAMConnector {
	return IAMConnector{
		Endpoint:    "proxy.example.rds.amazonaws.com:5432",
		Region:      "us-east-1",
		User:        "app",
		Database:    "democracy365",
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	}
}

func TestIAMConnector_Config(t *testing.T) {
	cfg, err := newIAMConnector().config()
	require.NoError(t, err)

	assert.Equal(t, "proxy.example.rds.amazonaws.com", cfg.Host)
	assert.EqualValues(t, 5432, cfg.Port)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "democracy365", cfg.Database)
	assert.NotNil(t, cfg.TLSConfig, "proxy connections require TLS")
}

func TestIAMConnector_BeforeConnectSetsToken(t *testing.T) {
	orig := buildAuthToken
	t.Cleanup(func() { buildAuthToken = orig })

	var gotEndpoint, gotRegion, gotUser string
	buildAuthToken = func(ctx context.Context, endpoint, region, dbUser string, creds aws.CredentialsProvider, optFns ...func(options *auth.BuildAuthTokenOptions)) (string, error) {
		gotEndpoint, gotRegion, gotUser = endpoint, region, dbUser
		return "signed-token", nil
	}

	cc := &pgx.ConnConfig{}
	require.NoError(t, newIAMConnector().beforeConnect(context.Background(), cc))

	assert.Equal(t, "signed-token", cc.Password)
	assert.Equal(t, "proxy.example.rds.amazonaws.com:5432", gotEndpoint)
	assert.Equal(t, "us-east-1", gotRegion)
	assert.Equal(t, "app", gotUser)
}

func TestIAMConnector_BeforeConnectError(t *testing.T) {
	orig := buildAuthToken
	t.Cleanup(func() { buildAuthToken = orig })
	buildAuthToken = func(ctx context.Context, endpoint, region, dbUser string, creds aws.CredentialsProvider, optFns ...func(options *auth.BuildAuthTokenOptions)) (string, error) {
		return "", errors.New("no credentials")
	}

	err := newIAMConnector().beforeConnect(context.Background(), &pgx.ConnConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestIAMConnector_TokenIsRealSignature(t *testing.T) {
	cc := &pgx.ConnConfig{}
	require.NoError(t, newIAMConnector().beforeConnect(context.Background(), cc))
	assert.Contains(t, cc.Password, "X-Amz-Signature=")
	assert.Contains(t, cc.Password, "Action=connect")
}

func TestIAMConnector_Open(t *testing.T) {
	db, err := newIAMConnector().Open(context.Background())
	require.NoError(t, err)
	require.NotNil(t, db)
	_ = db.Close()
}
