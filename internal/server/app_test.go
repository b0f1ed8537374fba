package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/config"
	"github.com/dmitrijs2005/democracy365/internal/server/db"
	"github.com/dmitrijs2005/democracy365/internal/server/notify"
	"github.com/dmitrijs2005/democracy365/internal/server/signing"
)

func writeKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	path := filepath.Join(t.TempDir(), "signing_key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

// testConfig points the store at a port nothing listens on.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.HealthAddrGRPC = "127.0.0.1:0"
	c.DatabaseDSN = "postgres://u:p@127.0.0.1:1/d365?sslmode=disable&connect_timeout=1"
	c.SigningKeyFile = writeKey(t)
	c.AWSAccessKey = "test"
	c.AWSSecretKey = "test"
	c.LogLevel = "error"
	return c
}

func TestLoadAWSConfig_StaticCredentials(t *testing.T) {
	c := testConfig(t)
	c.AWSRegion = "eu-central-1"

	cfg, err := loadAWSConfig(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}

func TestEndpoint(t *testing.T) {
	c := testConfig(t)
	assert.Nil(t, endpoint(c))

	c.AWSEndpoint = "http://localstack:4566"
	require.NotNil(t, endpoint(c))
	assert.Equal(t, "http://localstack:4566", *endpoint(c))
}

func TestNewConnector(t *testing.T) {
	c := testConfig(t)
	cfg, err := loadAWSConfig(context.Background(), c)
	require.NoError(t, err)

	pc, ok := newConnector(c, cfg).(db.PasswordConnector)
	require.True(t, ok)
	assert.Equal(t, c.DatabaseDSN, pc.DSN)

	c.DBConnStrategy = config.ConnIAM
	c.DBProxyHost = "proxy.example"
	ic, ok := newConnector(c, cfg).(db.IAMConnector)
	require.True(t, ok)
	assert.Equal(t, "proxy.example:5432", ic.Endpoint)
	assert.Equal(t, c.DBUser, ic.User)
	assert.NotNil(t, ic.Credentials)
}

func TestNewSigner(t *testing.T) {
	c := testConfig(t)
	cfg, err := loadAWSConfig(context.Background(), c)
	require.NoError(t, err)

	s, err := newSigner(c, cfg)
	require.NoError(t, err)
	assert.IsType(t, &signing.LocalSigner{}, s)

	c.SigningBackend = config.SigningKMS
	s, err = newSigner(c, cfg)
	require.NoError(t, err)
	assert.IsType(t, &signing.KMSSigner{}, s)

	c.SigningBackend = config.SigningLocal
	c.SigningKeyFile = filepath.Join(t.TempDir(), "missing.pem")
	_, err = newSigner(c, cfg)
	assert.Error(t, err)

	c.SigningBackend = "hsm"
	_, err = newSigner(c, cfg)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	c := testConfig(t)
	cfg, err := loadAWSConfig(context.Background(), c)
	require.NoError(t, err)

	n, closeFn, err := newNotifier(c, cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)
	assert.NoError(t, closeFn())

	c.NotifierBackend = config.NotifierSES
	n, _, err = newNotifier(c, cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.SESNotifier{}, n)

	c.NotifierBackend = config.NotifierQueue
	c.RedisURL = "not a url"
	_, _, err = newNotifier(c, cfg, logging.Nop())
	assert.Error(t, err)

	c.NotifierBackend = "pigeon"
	_, _, err = newNotifier(c, cfg, logging.Nop())
	assert.Error(t, err)
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, app.httpServer)
	assert.NotNil(t, app.health)
	assert.ElementsMatch(t, []string{
		"AIRDROP", "LOG_RANK_HISTORIES", "REFRESH_PROBLEM_RANK", "REFRESH_SOLUTION_RANK", "EXPIRE_SESSIONS",
	}, app.scheduler.Jobs())
}

func TestNewApp_UnknownScheduledOperation(t *testing.T) {
	c := testConfig(t)
	c.Schedule["DELEGATE"] = time.Minute

	_, err := NewApp(c)
	assert.ErrorContains(t, err, "unknown operation")
}

func TestNewApp_FailureReleasesNotifier(t *testing.T) {
	closed := 0
	orig := notifierFactory
	notifierFactory = func(c *config.Config, awsCfg aws.Config, l logging.Logger) (notify.Notifier, func() error, error) {
		n, closeFn, err := orig(c, awsCfg, l)
		if err != nil {
			return nil, nil, err
		}
		return n, func() error {
			closed++
			return closeFn()
		}, nil
	}
	t.Cleanup(func() { notifierFactory = orig })

	c := testConfig(t)
	c.Schedule["DELEGATE"] = time.Minute
	_, err := NewApp(c)
	require.Error(t, err)
	assert.Equal(t, 1, closed, "notifier must be closed when startup fails")

	closed = 0
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	assert.Zero(t, closed)
	require.NoError(t, app.close())
	assert.Equal(t, 1, closed)
}

func TestRun_MigrationFailureStopsStartup(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = app.Run(ctx)
	assert.ErrorContains(t, err, "db init error")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	c := testConfig(t)
	c.RunMigrations = false
	app, err := NewApp(c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestRunMaintenance_UnknownOperation(t *testing.T) {
	err := RunMaintenance(context.Background(), testConfig(t), "DELEGATE")
	assert.ErrorContains(t, err, "unknown scheduled operation")
}

func TestRunMaintenance_StoreUnreachable(t *testing.T) {
	err := RunMaintenance(context.Background(), testConfig(t), "AIRDROP")
	assert.Error(t, err)
}
