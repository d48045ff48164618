package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/db"
)

// userctl manages operator accounts directly in the database:
//
//	userctl -env dev create -username mile -name "Mile M." -role AGENT
//	userctl -env dev deactivate -username mile
//	userctl -env dev activate -username mile
//	userctl -env dev list
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("no command given, use one of: create, deactivate, activate, list")
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	repo := auth.NewRepo(dbPool)

	switch command {
	case "create":
		createCredential(ctx, repo, flag.Args()[1:])
	case "deactivate":
		setActive(ctx, repo, flag.Args()[1:], false)
	case "activate":
		setActive(ctx, repo, flag.Args()[1:], true)
	case "list":
		listCredentials(ctx, repo)
	default:
		log.Fatalf("unknown command: %s", command)
	}
}

func createCredential(ctx context.Context, repo *auth.Repo, args []string) {
	createFlags := flag.NewFlagSet("create", flag.ExitOnError)
	username := createFlags.String("username", "", "login username")
	name := createFlags.String("name", "", "display name")
	role := createFlags.String("role", string(auth.RoleAgent), "role [ADMIN | AGENT | CASHIER]")
	if err := createFlags.Parse(args); err != nil {
		log.Fatalf("parse create flags: %s", err)
	}

	if *username == "" || *name == "" {
		log.Fatalln("username and name are required")
	}
	if !auth.Role(*role).IsValid() {
		log.Fatalf("invalid role: %s", *role)
	}

	fmt.Print("password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("read password: %s", err)
	}

	passwordHash, err := auth.HashPassword(string(passwordBytes), auth.DefaultHashCost)
	if err != nil {
		log.Fatalf("hash password: %s", err)
	}

	added, err := repo.Add(ctx, &auth.Credential{
		Username:     *username,
		Name:         *name,
		PasswordHash: passwordHash,
		IsActive:     true,
		Role:         auth.Role(*role),
	})
	if err != nil {
		log.Fatalf("add credential: %s", err)
	}

	fmt.Printf("credential created: id=%d username=%s role=%s\n", added.ID, added.Username, added.Role)
}

func setActive(ctx context.Context, repo *auth.Repo, args []string, active bool) {
	activeFlags := flag.NewFlagSet("set-active", flag.ExitOnError)
	username := activeFlags.String("username", "", "login username")
	if err := activeFlags.Parse(args); err != nil {
		log.Fatalf("parse flags: %s", err)
	}
	if *username == "" {
		log.Fatalln("username is required")
	}

	if err := repo.SetActive(ctx, *username, active); err != nil {
		log.Fatalf("set active [%t] for %s: %s", active, *username, err)
	}

	fmt.Printf("credential %s: active=%t\n", *username, active)
}

func listCredentials(ctx context.Context, repo *auth.Repo) {
	credentials, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("list credentials: %s", err)
	}

	if len(credentials) == 0 {
		fmt.Println("no credentials found")
		os.Exit(0)
	}

	for _, c := range credentials {
		fmt.Printf(
			"%4d  %-20s %-25s %-8s active=%t created=%s\n",
			c.ID, c.Username, c.Name, c.Role, c.IsActive, c.CreatedAt.Format(time.DateOnly),
		)
	}
}
