// Command admintoken issues an access token for an existing admin account.
//
//	admintoken -username root
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/config"
	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/repositories"
	"github.com/BradenHooton/useradmin/internal/services"
)

func main() {
	username := flag.String("username", "", "admin username to issue the token for")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := run(*username, logger); err != nil {
		fmt.Fprintln(os.Stderr, "admintoken:", err)
		os.Exit(1)
	}
}

func run(username string, logger *slog.Logger) error {
	if username == "" {
		return errors.New("-username is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("tokens can only be issued against postgres storage (STORAGE_DRIVER=%s)", cfg.Storage.Driver)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lookup := services.NewUserLookup(repositories.NewUserRepository(db))
	user, found, err := lookup.ByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", username, err)
	}
	if !found {
		return fmt.Errorf("no user named %q", username)
	}
	if user.Role != models.RoleAdmin {
		return fmt.Errorf("user %q is not an admin", username)
	}

	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry).GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
