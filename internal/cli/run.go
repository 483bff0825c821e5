package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildtall-systems/sodamachine/internal/config"
	"github.com/buildtall-systems/sodamachine/internal/db"
	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/buildtall-systems/sodamachine/internal/metrics"
	"github.com/buildtall-systems/sodamachine/internal/nostr"
	"github.com/buildtall-systems/sodamachine/internal/orderapi"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/keyer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const dedupTTL = time.Hour

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the vending terminal",
	Long:  `Start the vending terminal. Reads commands from the console and, when enabled, SMS orders sent as Nostr DMs.`,
	RunE:  runTerminal,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTerminal(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithSecrets()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.RequireOrderAPI(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"order_api": cfg.OrderAPI.BaseURL,
		"database":  cfg.Database.Path,
		"sms":       cfg.SMS.Enabled,
	}).Info("sodamachine starting")

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Create context that cancels on shutdown signals
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, reg); err != nil {
				log.WithError(err).Error("metrics endpoint stopped")
			}
		}()
	}

	client, err := orderapi.NewClient(cfg.OrderAPI.BaseURL, cfg.OrderAPI.Timeout)
	if err != nil {
		return fmt.Errorf("creating order service client: %w", err)
	}
	client.SetObserver(m)

	ctrl, err := machine.New(ctx, client)
	if err != nil {
		return fmt.Errorf("starting order session: %w", err)
	}
	log.WithField("products", len(ctrl.Products())).Info("catalog loaded")

	term := &terminal{
		session: ctrl,
		out:     cmd.OutOrStdout(),
		journal: database,
		metrics: m,
	}

	var dms <-chan *gonostr.Event
	if cfg.SMS.Enabled {
		sms, relayMgr, err := startSMS(ctx, cfg, database)
		if err != nil {
			return err
		}
		defer relayMgr.Close()

		term.sms = sms
		dms = relayMgr.DMEvents()
	}

	term.greet()
	return term.loop(ctx, readLines(cmd.InOrStdin()), dms)
}

func startSMS(ctx context.Context, cfg *config.Config, database *db.DB) (*smsChannel, *nostr.RelayManager, error) {
	log.WithFields(log.Fields{"npub": cfg.SMS.Npub, "relays": cfg.SMS.Relays}).Info("enabling sms orders")

	kr, err := keyer.NewPlainKeySigner(cfg.SMS.SecretHex)
	if err != nil {
		return nil, nil, fmt.Errorf("creating keyer: %w", err)
	}

	since, err := database.GetHighWaterMark()
	if err != nil {
		return nil, nil, err
	}

	relayMgr := nostr.NewRelayManager(cfg.SMS.Relays, cfg.SMS.PubkeyHex)
	if err := relayMgr.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connecting to relays: %w", err)
	}

	dedup := nostr.NewEventDeduplicator(dedupTTL)
	go dedup.StartCleanupLoop(ctx.Done(), dedupTTL/4)

	return &smsChannel{
		keyer:     kr,
		pubkeyHex: cfg.SMS.PubkeyHex,
		publisher: relayMgr,
		claims:    database,
		dedup:     dedup,
		since:     since,
	}, relayMgr, nil
}
