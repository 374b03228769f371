package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princinho/sahoadmin/database"
	"github.com/princinho/sahoadmin/devbackend"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("dev backend stopped")
	}
}

func run() error {
	ctx := context.Background()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	users, categories, closeDB, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := devbackend.SeedAdminUser(ctx, users, devbackend.SeedUser{
		Email:     os.Getenv("ADMIN_EMAIL"),
		Password:  os.Getenv("ADMIN_PASSWORD"),
		FirstName: utils.GetEnv("ADMIN_FIRST_NAME", "Admin"),
		Role:      models.Role(utils.GetEnv("ADMIN_ROLE", string(models.RoleAdmin))),
	}); err != nil {
		return err
	}
	if err := categories.Seed(ctx, devbackend.DefaultCategories()); err != nil {
		return err
	}

	tokens := devbackend.NewTokenIssuer(secret, utils.MinutesEnv("ACCESS_TOKEN_TTL_MINUTES", 30))
	handler := devbackend.NewServer(users, categories, tokens).Handler()

	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{Addr: ":" + utils.GetEnv("PORT", "8080"), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("dev backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

// openRepositories uses MongoDB when MONGODB_URI is set and memory otherwise.
func openRepositories(ctx context.Context) (devbackend.UserRepository, devbackend.CategoryRepository, func(), error) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Info().Msg("MONGODB_URI not set, using in-memory repositories")
		return devbackend.NewMemoryUsers(), devbackend.NewMemoryCategories(), func() {}, nil
	}

	client, err := database.Connect(ctx, uri)
	if err != nil {
		return nil, nil, nil, err
	}
	dbName := utils.GetEnv("DATABASE_NAME", "saho")
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}
	return devbackend.NewMongoUsers(database.OpenCollection(client, dbName, "users")),
		devbackend.NewMongoCategories(database.OpenCollection(client, dbName, "categories")),
		closeFn, nil
}
