package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recallguard/recall/internal/config"
	"github.com/recallguard/recall/internal/engine"
	"github.com/recallguard/recall/internal/server"
	"github.com/recallguard/recall/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Detect and configure embedder
	var emb engine.Embedder
	if engine.ProbeOllama(cfg.Embedding.OllamaURL, cfg.Embedding.Model) {
		emb = engine.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.Model, 768)
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.Embedding.Model)
	} else {
		emb = engine.NewHashEmbedder(cfg.Embedding.Dimensions)
		fmt.Fprintf(os.Stderr, "  embedder: hashing (fallback, %d dims)\n", cfg.Embedding.Dimensions)
	}

	eng, err := engine.New(db, emb, policyFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "recall serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// policyFromConfig maps the config's verify and password sections onto
// the engine policy.
func policyFromConfig(cfg config.Config) engine.Policy {
	return engine.Policy{
		AuthorizedThreshold: cfg.Verify.AuthorizedThreshold,
		AmbiguousThreshold:  cfg.Verify.AmbiguousThreshold,
		MaxAttempts:         cfg.Verify.MaxAttempts,
		LockoutDuration:     time.Duration(cfg.Verify.LockoutMinutes) * time.Minute,
		ClarificationTTL:    time.Duration(cfg.Verify.ClarificationTTLSeconds) * time.Second,
		Password: engine.PasswordPolicy{
			MinLength:  cfg.Password.MinLength,
			MinClasses: cfg.Password.MinClasses,
		},
	}
}
