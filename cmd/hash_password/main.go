// Command hash_password prints a bcrypt hash for the users file, or stores the user
// in postgres when -create is given.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/news-cms/internal/auth"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-cms/pkg/config/env"
)

func main() {
	username := flag.String("username", "", "Username, required with -create")
	create := flag.Bool("create", false, "Insert the user into the postgres users table")
	flag.Parse()

	password, err := readPassword()
	if err != nil {
		slog.Error("failed to read password", "error", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	if !*create {
		fmt.Println(hash)
		return
	}

	if err := createUser(*username, hash); err != nil {
		slog.Error("failed to create user", "username", *username, "error", err)
		os.Exit(1)
	}
}

// readPassword takes the first line of stdin so the password stays out of shell history.
func readPassword() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func createUser(username, hash string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("-username is required with -create")
	}
	if err := env.LoadDotEnv(os.Getenv("ENV"), "cmd/cms_api/.env"); err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}
	connStr := os.Getenv("PG_CONNECTION_STRING")
	if connStr == "" {
		return fmt.Errorf("PG_CONNECTION_STRING is not set")
	}

	ctx := context.Background()
	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: connStr})
	if err != nil {
		return err
	}
	defer pool.Close()

	user, err := pg.NewUserStore(pool).Create(ctx, strings.TrimSpace(username), hash)
	if err != nil {
		return err
	}
	slog.Info("User created", "id", user.ID, "username", user.Username)
	return nil
}
