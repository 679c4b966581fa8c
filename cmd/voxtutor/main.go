package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voxtutor/internal/catalog"
	"voxtutor/internal/config"
	"voxtutor/internal/llm"
	"voxtutor/internal/logging"
	"voxtutor/internal/mastery"
	"voxtutor/internal/session"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "voxtutor",
	Short: "voxtutor - voice-driven tutoring personas",
	Long: `voxtutor is a voice-driven tutoring system built from four cooperating
personas: a coordinator, a learning tutor, a quiz tutor, and a teach-back
coach. Teach-back explanations are scored against the loaded content and
aggregated into per-concept mastery statistics.

Run 'voxtutor run' to start a console session (text stands in for the voice
layer), or 'voxtutor stats' to inspect recorded mastery data.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The config file isn't loaded yet; commands rebuild the logger at
		// the configured level once it is.
		var err error
		logger, err = logging.FromConfig("", verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args)
	},
}

// runCmd starts an interactive console session
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive tutoring session on the console",
	Long: `Starts one tutoring session with the coordinator persona active.
Type what you would say; replies are printed with the active persona's
voice tag. End the session with Ctrl-D or /quit.`,
	RunE: runSession,
}

// statsCmd dumps mastery statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded mastery statistics",
	Long: `Prints every concept mastery record and the current weakest-concepts
ranking from the mastery database.`,
	RunE: runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "voxtutor.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if rebuilt, err := logging.FromConfig(cfg.Logging.Level, verbose); err != nil {
		logger.Warn("invalid log level in config, keeping current level",
			zap.String("level", cfg.Logging.Level))
	} else {
		logger = rebuilt
	}

	store, err := mastery.Open(cfg.Mastery.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open mastery store: %w", err)
	}
	defer store.Close()

	cat, err := catalog.Load(cfg.Content.Path)
	if err != nil {
		// An empty catalog still converses; every lookup degrades to the
		// fallback listing.
		logger.Warn("content load failed, starting with empty catalog",
			zap.String("path", cfg.Content.Path), zap.Error(err))
	} else {
		logger.Info("content loaded",
			zap.String("path", cfg.Content.Path), zap.Int("concepts", cat.Len()))
	}

	client, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client (set GEMINI_API_KEY): %w", err)
	}

	manager := session.NewManager(ctx, cat, store, client, cfg.VoiceTags(), logger)

	if cfg.Content.Watch {
		watcher, err := catalog.NewWatcher(cfg.Content.Path, manager.SetCatalog, logger)
		if err != nil {
			logger.Warn("content watcher unavailable", zap.Error(err))
		} else {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("content watcher failed to start", zap.Error(err))
			} else {
				defer watcher.Stop()
			}
		}
	}

	if _, err := manager.StartSession(newConsoleIO()); err != nil {
		return err
	}

	// Let the conversation run; Shutdown would cancel it out from under the
	// user. A signal cancels ctx, which ends the session loop, and Wait
	// returns once it has drained.
	err = manager.Wait()
	_ = manager.Shutdown()
	return err
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := mastery.Open(cfg.Mastery.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open mastery store: %w", err)
	}
	defer store.Close()

	records, err := store.AllRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No mastery data recorded yet.")
		return nil
	}

	fmt.Printf("%-20s %-24s %8s %8s %8s\n", "CONCEPT", "TITLE", "LAST", "AVG", "ATTEMPTS")
	for _, r := range records {
		fmt.Printf("%-20s %-24s %8d %8.1f %8d\n",
			r.ConceptID, r.Title, r.LastScore, r.AvgScore, r.ScoreCount)
	}

	weakest, err := store.WeakestConcepts(ctx, 3)
	if err != nil {
		return err
	}
	if len(weakest) > 0 {
		fmt.Println("\nWeakest concepts:")
		for i, w := range weakest {
			fmt.Printf("  %d. %s (avg %.1f over %d attempts)\n", i+1, w.Title, w.AvgScore, w.ScoreCount)
		}
	}
	return nil
}

func main() {
	// Matches the original deployment layout; absence is fine.
	_ = godotenv.Load(".env.local")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
