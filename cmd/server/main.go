package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slatechat/slate-server/internal/app"
	"github.com/slatechat/slate-server/internal/auth"
	"github.com/slatechat/slate-server/internal/config"
	"github.com/slatechat/slate-server/internal/log"
	"github.com/slatechat/slate-server/internal/store"
	"github.com/slatechat/slate-server/internal/store/sqlite"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "slate-server",
		Short:        "Realtime delivery server for Slate",
		SilenceUsage: true,
		RunE:         runServer,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newTokenCmd())
	root.AddCommand(newSeedUserCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	bootstrap := log.New("info")
	cfg, path, err := config.Load(bootstrap, configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting slate server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newTokenCmd mints a development token for an existing user.
func newTokenCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			svc := auth.NewService(st, &auth.JWTConfig{
				Secret:   []byte(cfg.JWTSecret),
				Issuer:   cfg.JWTIssuer,
				Audience: cfg.JWTAudience,
				TTL:      cfg.TokenTTL,
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			token, err := svc.Issue(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to mint a token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// newSeedUserCmd inserts a user row, for local development and demos.
func newSeedUserCmd() *cobra.Command {
	var (
		tenantID int64
		role     string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create a user in the local database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			user, err := st.CreateUser(ctx, &store.User{
				TenantID:    tenantID,
				Role:        role,
				DisplayName: name,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created user %d (tenant %d, role %s)\n", user.ID, user.TenantID, user.Role)
			return nil
		},
	}

	cmd.Flags().Int64Var(&tenantID, "tenant", 1, "tenant id")
	cmd.Flags().StringVar(&role, "role", store.RoleStudent, "user role")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
