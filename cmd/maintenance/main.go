// Command maintenance runs a single scheduled operation, e.g.
//
//	maintenance -op REFRESH_PROBLEM_RANK
//
// for deployments that trigger jobs from an external cron instead of the
// server's scheduler. All server configuration sources apply.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/democracy365/internal/flagx"
	"github.com/dmitrijs2005/democracy365/internal/server"
	"github.com/dmitrijs2005/democracy365/internal/server/config"
)

func main() {

	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	op := fs.String("op", "", "scheduled operation to run")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], flagx.Names(fs))); err != nil {
		log.Fatalf("%v", err)
	}
	if *op == "" {
		log.Fatal("-op is required")
	}

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.RunMaintenance(ctx, cfg, *op); err != nil {
		log.Fatalf("%v", err)
	}

}
