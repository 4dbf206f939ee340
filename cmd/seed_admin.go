package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
	"github.com/carepoint/scheduling-api/internal/core/service"
	"github.com/carepoint/scheduling-api/internal/infrastructure/cache"
	mongodb "github.com/carepoint/scheduling-api/internal/infrastructure/db/mongo"
	redisdb "github.com/carepoint/scheduling-api/internal/infrastructure/db/redis"
	"github.com/carepoint/scheduling-api/internal/pkg/config"
)

var seedAdminFlags struct {
	email     string
	password  string
	firstName string
	lastName  string
}

// seedAdminCmd creates an Admin account directly in storage. Self
// registration only creates patients and doctors.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedAdminFlags.email == "" || seedAdminFlags.password == "" {
			return errors.New("--email and --password are required")
		}

		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: serviceName})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		users := mongodb.NewUserRepository(db)
		if err := mongodb.EnsureIndexes(ctx, users); err != nil {
			return err
		}

		// a shared redis cache must see the invalidation; a memory cache lives in the API process
		var shared ports.Cache
		if cfg.Cache.Backend == config.CacheBackendRedis {
			rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			if err != nil {
				return err
			}
			defer func() { _ = rdb.Close() }()
			shared = cache.New(redisdb.NewCacheStore(rdb), cfg.Cache.KeyPrefix, log)
		}

		user, err := service.NewUserService(users, shared, nil, log).Create(ctx, ports.CreateUserInput{
			Email:     seedAdminFlags.email,
			Password:  seedAdminFlags.password,
			FirstName: seedAdminFlags.firstName,
			LastName:  seedAdminFlags.lastName,
			Role:      domain.RoleAdmin,
		})
		if err != nil {
			return err
		}

		log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin account created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	f := seedAdminCmd.Flags()
	f.StringVar(&seedAdminFlags.email, "email", "", "admin email address")
	f.StringVar(&seedAdminFlags.password, "password", "", "admin password")
	f.StringVar(&seedAdminFlags.firstName, "first-name", "System", "admin first name")
	f.StringVar(&seedAdminFlags.lastName, "last-name", "Administrator", "admin last name")
}
