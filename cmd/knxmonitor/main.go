// knxmonitor connects to a KNX installation and prints every group
// telegram it observes to stdout, in the spirit of knxd's busmonitor
// and ETS's group monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/internal/config"
	"github.com/nerrad567/knxip/internal/logging"
	"github.com/nerrad567/knxip/knx"
	"github.com/nerrad567/knxip/telegram"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "knxip.yaml", "path to configuration file")
	flag.Parse()

	fmt.Printf("knxmonitor %s (%s)\n", version, commit)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "knxmonitor: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	client, err := knx.New(*cfg, log, nil)
	if err != nil {
		return fmt.Errorf("constructing client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("starting client: %w", err)
	}

	all := address.MustNewFilter("*/*/*")
	client.Queue.Subscribe(all, printTelegram)

	log.Info().Msg("knxmonitor running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	return client.Stop()
}

func printTelegram(t telegram.Telegram) {
	fmt.Printf("%-8s %-17s -> %-9s %-7s %x\n",
		t.Direction, t.Source, t.Destination, t.Payload, t.Data)
}
