package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/amzju/amzju/pkg/config"
	"github.com/amzju/amzju/pkg/credstore"
	"github.com/amzju/amzju/pkg/prettylog"
	"github.com/amzju/amzju/pkg/proxy"
	"github.com/amzju/amzju/pkg/session"
	"github.com/amzju/amzju/pkg/util"
	"github.com/amzju/amzju/pkg/zjuam"
)

func main() {
	godotenv.Load()

	if os.Getenv("PRETTY_LOGS") != "false" {
		logger := slog.New(prettylog.NewHandler(slog.LevelDebug))
		slog.SetDefault(logger)
	}

	cfg, err := config.Load(util.GetEnv("AMZJU_CONFIG_PATH", "config.yaml"), "local.config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	store := session.NewStore[string, http.CookieJar]()

	login, err := zjuam.NewClient(zjuam.ClientConfig{
		BaseURL:         cfg.ProviderBaseURL,
		UserAgent:       cfg.UserAgent,
		RequestTimeout:  cfg.Timeout(),
		SessionDuration: cfg.SessionTTL(),
	}, store)
	if err != nil {
		log.Fatal(err)
	}

	creds, err := credstore.Load(cfg.CredentialFile, &credstore.TerminalApprover{
		In:  os.Stdin,
		Out: os.Stderr,
	})
	if err != nil {
		log.Fatal(err)
	}

	srv, err := proxy.New(cfg, store, login, creds)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx, cfg.CleanupInterval())

	slog.Info("Starting amzju proxy", "address", cfg.Address, "docs_enabled", cfg.DocsEnabled)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
