// Command cli bundles the operational tools: schema migration, data
// seeding and admin promotion. Every command reads the same environment
// the server does.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	"github.com/arthub/backend/internal/config"
	"github.com/arthub/backend/internal/database"
	"github.com/arthub/backend/internal/seed"
	"github.com/arthub/backend/internal/service"
	"github.com/arthub/backend/internal/store"
	"github.com/arthub/backend/internal/store/local"
	"github.com/arthub/backend/internal/store/relational"
	"github.com/arthub/backend/internal/store/remote"
)

var (
	seedUsers    int
	seedPosts    int
	seedRandSeed uint64
)

var rootCmd = &cobra.Command{
	Use:   "arthub",
	Short: "ArtHub operational tooling",
	Long:  "Maintenance commands for an ArtHub deployment: migrations, seeding and account administration.",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations against the relational backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured backend with fake users and activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, svc, st, err := buildService()
		if err != nil {
			return err
		}
		defer st.Close()

		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()

		fmt.Printf("seeding %s backend with %d users, %d posts each\n",
			cfg.StorageBackend, seedUsers, seedPosts)
		seeder := seed.NewSeeder(svc, log, seedRandSeed)
		return seeder.Run(context.Background(), seedUsers, seedPosts)
	},
}

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <username>",
	Short: "Grant admin privileges to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, st, err := buildService()
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := svc.PromoteAdmin(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("promote %s: %w", args[0], err)
		}
		fmt.Printf("%s is now an admin\n", user.Username)
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func buildService() (*config.Config, *service.Service, store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s store: %w", cfg.StorageBackend, err)
	}

	svc := service.New(st, auth.NewService([]byte(cfg.JWTSecret)), zap.NewNop())
	return cfg, svc, st, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StorageBackend {
	case "local":
		return local.Open(cfg.BadgerDir)
	case "remote":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return remote.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		return relational.New(db), nil
	}
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 10, "number of users to create")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 5, "posts per user")
	seedCmd.Flags().Uint64Var(&seedRandSeed, "seed", 0, "random seed, 0 for nondeterministic")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(promoteAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
