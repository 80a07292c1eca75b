package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"redline/internal/deploy"
	"redline/internal/llm"
	"redline/internal/server"
	"redline/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	Long: `Serves the chat UI and API. Every chat turn prompts the configured
LLM, extracts edit directives from the reply, and applies them to the
remote store. A background poller tracks GitHub Pages build status.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newGitHubStore()
	if err != nil {
		return err
	}

	client, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(cfg.Session.DatabasePath)
	if err != nil {
		return err
	}
	defer sessions.Close()

	var poller *deploy.Poller
	if cfg.Deploy.Enabled {
		interval, err := time.ParseDuration(cfg.Deploy.Interval)
		if err != nil {
			interval = 15 * time.Second
		}
		poller = deploy.NewPoller(deploy.Config{
			Owner:    cfg.Store.Owner,
			Repo:     cfg.Store.Repo,
			Token:    cfg.Store.Token,
			Interval: interval,
		})
	}

	listTTL, err := time.ParseDuration(cfg.Server.ListCacheTTL)
	if err != nil {
		listTTL = 30 * time.Second
	}
	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		StaticDir:    cfg.Server.StaticDir,
		ListCacheTTL: listTTL,
	}, st, client, sessions, poller)

	logger.Info("starting redline server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("repo", cfg.Store.Owner+"/"+cfg.Store.Repo),
		zap.String("llm", client.Name()),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if poller != nil {
		g.Go(func() error { return poller.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
