package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/config"
	"github.com/dmitrijs2005/democracy365/internal/server/db"
	"github.com/dmitrijs2005/democracy365/internal/server/dispatch"
	"github.com/dmitrijs2005/democracy365/internal/server/operations"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/democracy365/internal/server/scheduler"
)

// RunMaintenance runs one scheduled operation and returns. It serves external
// cron triggers; no HTTP or gRPC server is started.
func RunMaintenance(ctx context.Context, c *config.Config, name string) error {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	awsCfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return fmt.Errorf("aws config error: %w", err)
	}

	_, _, scheduled, err := operations.Registries()
	if err != nil {
		return fmt.Errorf("operation tables: %w", err)
	}
	if _, ok := scheduled.Lookup(name); !ok {
		return fmt.Errorf("unknown scheduled operation %q (known: %v)", name, scheduled.Names())
	}

	provider := db.NewProvider(newConnector(c, awsCfg), logger)
	gateway := dispatch.NewGateway(scheduled, provider, repomanager.NewPostgresRepositoryManager(), logger)

	s, err := scheduler.New(gateway, scheduled, nil, logger)
	if err != nil {
		return err
	}

	runErr := s.RunOnce(ctx, name)
	return errors.Join(runErr, provider.Close())
}
