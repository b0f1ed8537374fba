package server

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/config"
	"github.com/dmitrijs2005/democracy365/internal/server/db"
	"github.com/dmitrijs2005/democracy365/internal/server/notify"
	"github.com/dmitrijs2005/democracy365/internal/server/signing"
)

func loadAWSConfig(ctx context.Context, c *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.AWSRegion)}
	if c.AWSAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWSAccessKey, c.AWSSecretKey, "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// endpoint points an AWS client at c.AWSEndpoint when one is configured.
func endpoint(c *config.Config) *string {
	if c.AWSEndpoint == "" {
		return nil
	}
	return aws.String(c.AWSEndpoint)
}

func newConnector(c *config.Config, awsCfg aws.Config) db.Connector {
	if c.DBConnStrategy == config.ConnIAM {
		return db.IAMConnector{
			Endpoint:    c.ProxyEndpoint(),
			Region:      c.AWSRegion,
			User:        c.DBUser,
			Database:    c.DBName,
			Credentials: awsCfg.Credentials,
		}
	}
	return db.PasswordConnector{DSN: c.PasswordDSN()}
}

func newSigner(c *config.Config, awsCfg aws.Config) (signing.Signer, error) {
	switch c.SigningBackend {
	case config.SigningKMS:
		client := kms.NewFromConfig(awsCfg, func(o *kms.Options) {
			o.BaseEndpoint = endpoint(c)
		})
		return signing.NewKMSSigner(client), nil
	case config.SigningLocal:
		return signing.LoadLocalSigner(c.SigningKeyFile)
	default:
		return nil, fmt.Errorf("unknown signing backend %q", c.SigningBackend)
	}
}

// newNotifier builds the configured notifier and a func releasing whatever
// it holds open.
func newNotifier(c *config.Config, awsCfg aws.Config, l logging.Logger) (notify.Notifier, func() error, error) {
	noop := func() error { return nil }

	switch c.NotifierBackend {
	case config.NotifierSES:
		client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			o.BaseEndpoint = endpoint(c)
		})
		return notify.NewSESNotifier(client, c.SenderAddress), noop, nil

	case config.NotifierQueue:
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("create redis publisher: %w", err)
		}

		closeAll := func() error {
			pubErr := publisher.Close()
			if err := client.Close(); err != nil {
				return err
			}
			return pubErr
		}
		return notify.NewQueueNotifier(publisher, c.NotifyTopic), closeAll, nil

	case config.NotifierLog:
		return notify.NewLogNotifier(l), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown notifier backend %q", c.NotifierBackend)
	}
}
