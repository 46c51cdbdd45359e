// cmd/server/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/cache"
	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/middleware"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/router"
	"github.com/javajoker/lease-backend/internal/scheduler"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

// buildServices wires the production collaborators: system clock, Redis (when configured) and the document store.
func buildServices(db *gorm.DB, cfg *config.Config) (*router.Services, error) {
	store, err := services.NewDocumentStore(cfg)
	if err != nil {
		return nil, err
	}

	var kv cache.KV = cache.Nop{}
	if client := cache.NewRedisClient(cfg.Redis); client != nil {
		kv = cache.NewRedisKV(client)
	}

	return router.NewServices(db, cfg, router.Dependencies{
		Clock: clock.NewSystem(cfg.Renewal.Location()),
		Cache: kv,
		Store: store,
	}), nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily auto-renewal scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if cfg.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			svc, err := buildServices(db, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			limits := middleware.DefaultRateLimits()
			limits.Cleanup(ctx)

			if cfg.Renewal.Enabled {
				renewals := scheduler.NewRenewalScheduler(svc.Leases, cfg.Renewal.RunHour, cfg.Renewal.Location())
				go renewals.Start(ctx)
			}

			srv := &http.Server{
				Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
				Handler:      router.Initialize(svc, cfg, limits),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
				IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logrus.WithField("addr", srv.Addr).Info("Starting server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("failed to start server: %w", err)
			case <-ctx.Done():
			}
			logrus.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			logrus.Info("Server exited")
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			database.Close(db)
			logrus.Info("Migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var adminPassword string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the built-in roles and the default admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if adminPassword == "" {
				adminPassword = os.Getenv("ADMIN_PASSWORD")
			}
			generated := adminPassword == ""
			if generated {
				if adminPassword, err = utils.GenerateInitialPassword(); err != nil {
					return err
				}
			}
			if err := database.SeedInitialData(db, adminPassword); err != nil {
				return err
			}
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "Initial admin password (shown once if the admin was created): %s\n", adminPassword)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for the default admin account (default $ADMIN_PASSWORD or generated)")
	return cmd
}

func newSweepCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one auto-renewal sweep",
		Long:  "Run one auto-renewal sweep for --date (yyyy-mm-dd), or for today when no date is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc, err := buildServices(db, cfg)
			if err != nil {
				return err
			}

			day := models.NewDate(clock.NewSystem(cfg.Renewal.Location()).Today())
			if date != "" {
				if day, err = models.ParseDate(date); err != nil {
					return err
				}
			}

			ctx := database.WithActor(cmd.Context(), database.SystemActor)
			outcomes, err := svc.Leases.RunAutoRenewalSweep(ctx, day)
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s..%s\t%s\n",
					o.Result, o.AgreementNumber, o.PreviousExpiry, o.CommencementDate, o.ExpiryDate, o.Reason)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lease(s) processed for %s\n", len(outcomes), day)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "sweep date in yyyy-mm-dd (default today)")
	return cmd
}
