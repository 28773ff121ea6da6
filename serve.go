package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/config"
	"auction-engine/internal/metrics"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/internal/repository/migrations"
	"auction-engine/internal/repository/postgres"
	"auction-engine/internal/repository/sqlite"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(dir)
		if err != nil {
			return err
		}
		if err := utils.SetLevel(cfg.LogLevel); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	ledger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	collector := metrics.NewCollector()
	dispatchers := notify.Fanout{notify.LogDispatcher{}, collector}
	if cfg.RedisAddr != "" {
		redis := notify.NewRedisDispatcher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, notify.WithChannel(cfg.RedisChannel))
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			// events are best effort, the engine still serves without a broker
			utils.Warn("redis unreachable, events will not be published", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
		}
		dispatchers = append(dispatchers, redis)
	}

	biddingSvc := bidding.NewBiddingService(ledger, bidding.WithNotifier(dispatchers))
	if cfg.SeedDemo {
		if err := seedDemo(ctx, biddingSvc); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: server.SetupRouter(biddingSvc, collector, cfg.RequestTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("starting auction server", map[string]any{"addr": cfg.ServerAddress, "ledger": cfg.LedgerDriver})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	utils.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openLedger selects the storage backend named by the configuration
func openLedger(ctx context.Context, cfg config.Config) (repository.Ledger, error) {
	switch cfg.LedgerDriver {
	case config.DriverMemory:
		return repository.NewMemoryRepo(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverPostgres:
		if err := migrations.UpPostgres(cfg.PostgresConn); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.Connect(ctx, cfg.PostgresConn)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}

// seedDemo creates a sample auction so a fresh server can be exercised by hand.
// An existing demo auction is left untouched.
func seedDemo(ctx context.Context, svc *bidding.BiddingService) error {
	demo := model.Auction{
		AuctionID: "demo",
		Title:     "Demo auction",
		Status:    model.AuctionActive,
		Lots: []model.Lot{
			{LotID: "lot1", Title: "Oil painting", InitialBidValue: decimal.NewFromInt(1000), BidIncrement: decimal.NewFromInt(100)},
			{LotID: "lot2", Title: "Silver tea set", InitialBidValue: decimal.NewFromInt(200), BidIncrement: decimal.NewFromInt(25)},
			{LotID: "lot3", Title: "Pocket watch", InitialBidValue: decimal.NewFromInt(150), BidIncrement: decimal.NewFromInt(10)},
		},
	}
	if _, err := svc.GetAuction(ctx, demo.AuctionID); err == nil {
		return nil
	}
	if _, err := svc.CreateAuction(ctx, demo); err != nil {
		return fmt.Errorf("seed demo auction: %w", err)
	}
	utils.Info("demo auction seeded", map[string]any{"auction_id": demo.AuctionID})
	return nil
}
