package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/recallguard/recall/internal/config"
	"github.com/recallguard/recall/internal/engine"
	"github.com/recallguard/recall/internal/store"
	"github.com/spf13/cobra"
)

// openEngine opens the database and builds an engine for one-shot CLI
// commands. The database path honors RECALL_DB like the server does.
func openEngine() (*engine.Engine, *store.DB, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	var emb engine.Embedder
	if engine.ProbeOllama(cfg.Embedding.OllamaURL, cfg.Embedding.Model) {
		emb = engine.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.Model, 768)
	} else {
		emb = engine.NewHashEmbedder(cfg.Embedding.Dimensions)
	}

	eng, err := engine.New(db, emb, policyFromConfig(cfg))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return eng, db, nil
}

// --- enroll command ---

var (
	enrollPassword string
	enrollPhrases  []string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [user-id]",
	Short: "Enroll a user with a password and memory phrases",
	Long:  "Enroll a new user. Phrases are embedded and stored as vectors; the raw text is discarded.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnroll,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := eng.Enroll(ctx, args[0], enrollPassword, enrollPhrases); err != nil {
		return err
	}
	fmt.Printf("enrolled %s with %d phrase(s)\n", args[0], len(enrollPhrases))
	return nil
}

// --- verify command ---

var verifyPassword string

var verifyCmd = &cobra.Command{
	Use:   "verify [user-id] [answer...]",
	Short: "Verify a recovery answer for a user",
	Long:  "Score a recovery answer against the user's enrolled memories, or check a password with --password.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	userID := args[0]

	var d engine.Decision
	if verifyPassword != "" {
		d, err = eng.VerifyPassword(userID, verifyPassword)
	} else {
		if len(args) < 2 {
			return fmt.Errorf("provide a recovery answer or --password")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d, err = eng.Verify(ctx, userID, strings.Join(args[1:], " "))
	}

	var locked *engine.LockedError
	if errors.As(err, &locked) {
		fmt.Printf("locked until %s\n", locked.Until.Format(time.RFC3339))
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	switch d.Status {
	case engine.StatusAuthorized:
		fmt.Printf("authorized (score %.3f)\n", d.Score)
	case engine.StatusAmbiguous:
		fmt.Printf("ambiguous (score %.3f), answer once more to clarify\n", d.Score)
	default:
		fmt.Printf("denied (score %.3f), %d attempt(s) remaining\n", d.Score, d.AttemptsRemaining)
	}
	return nil
}

// --- lookup command ---

var lookupCmd = &cobra.Command{
	Use:   "lookup [user-id]",
	Short: "Show whether a user exists and their lock state",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := eng.Lookup(args[0])
	if err != nil {
		return err
	}
	if !res.Exists {
		fmt.Printf("%s: not enrolled\n", args[0])
		return nil
	}
	if res.Locked {
		fmt.Printf("%s: enrolled, locked until %s\n", args[0], res.LockedUntil.Format(time.RFC3339))
	} else {
		fmt.Printf("%s: enrolled\n", args[0])
	}
	return nil
}

// --- passwd command ---

var passwdNew string

var passwdCmd = &cobra.Command{
	Use:   "passwd [user-id]",
	Short: "Replace a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswd,
}

func runPasswd(cmd *cobra.Command, args []string) error {
	if passwdNew == "" {
		return fmt.Errorf("--password is required")
	}
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := eng.UpdatePassword(args[0], passwdNew); err != nil {
		return err
	}
	fmt.Printf("password updated for %s\n", args[0])
	return nil
}

func init() {
	enrollCmd.Flags().StringVarP(&enrollPassword, "password", "p", "", "Account password (required)")
	enrollCmd.Flags().StringArrayVar(&enrollPhrases, "phrase", nil, "Memory phrase (repeatable)")
	enrollCmd.MarkFlagRequired("password")

	verifyCmd.Flags().StringVar(&verifyPassword, "password", "", "Verify by password instead of memory phrase")

	passwdCmd.Flags().StringVarP(&passwdNew, "password", "p", "", "New password")
}
