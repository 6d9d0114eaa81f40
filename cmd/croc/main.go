package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crocsthepen/internal/auth"
	"crocsthepen/internal/config"
	"crocsthepen/internal/gateway"
	"crocsthepen/internal/gemini"
	"crocsthepen/internal/ledger"
	"crocsthepen/internal/logging"
	"crocsthepen/internal/session"
	"crocsthepen/internal/store"
	"crocsthepen/internal/types"
)

var (
	// Global flags
	verbose    bool
	apiKeyFlag string
	dataDir    string
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "croc",
	Short: "CrocSthepen AI - credit-metered generative studio",
	Long: `CrocSthepen AI is a generative studio driven by a credit ledger.

Every generation debits a fixed credit cost on success and nothing on
failure: chat messages cost 1, images 5, websites 20, videos 50. A daily
reward of 40 credits can be claimed once per 24 hours.

Sign up or log in first, then chat, generate images and videos, build
websites, or hold a live voice conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (or set CROC_API_KEY / GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.croc)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: <data-dir>/config.yaml)")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(websiteCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(rewardsCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func main() {
	err := rootCmd.Execute()
	logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

// app bundles the wired studio components for one command invocation.
type app struct {
	cfg      *config.Config
	db       *store.Local
	registry *auth.Registry
	ledger   *ledger.Ledger
	sessions *session.Store
	client   *gemini.Client
	gw       *gateway.Gateway
}

// openApp loads config, opens the local store, and wires the studio. The
// generation client is only dialed when the command needs it, so auth and
// ledger commands work without an API key.
func openApp(ctx context.Context, needGemini bool) (*app, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	if apiKeyFlag != "" {
		cfg.Gemini.APIKey = apiKeyFlag
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := logging.Initialize(cfg.DataDir, cfg.Debug || verbose); err != nil {
		logger.Warn("Debug logging unavailable", zap.Error(err))
	}

	db, err := store.NewLocal(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	registry := auth.NewRegistry(db)
	led := ledger.New(registry)
	sessions := session.NewStore(db)

	a := &app{
		cfg:      cfg,
		db:       db,
		registry: registry,
		ledger:   led,
		sessions: sessions,
	}
	if needGemini {
		if cfg.Gemini.APIKey == "" {
			cfg.Gemini.APIKey = storedAPIKey(db)
		}
		client, err := gemini.NewClient(ctx, cfg.Gemini, cfg.Video)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.client = client
		a.gw = gateway.New(led, sessions, client)
	}
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// requireUser resolves the signed-in user or explains how to get one.
func (a *app) requireUser() (*types.User, error) {
	u, err := a.registry.CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("not signed in; run 'croc login <email>' or 'croc signup' first")
	}
	return u, nil
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	base := dataDir
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".croc")
	}
	return filepath.Join(base, "config.yaml")
}
