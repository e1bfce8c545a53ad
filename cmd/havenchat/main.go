// Haven Daemon - the support chat backend service
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/havenchat/havenchat/internal/api"
	"github.com/havenchat/havenchat/internal/auth"
	"github.com/havenchat/havenchat/internal/chat"
	"github.com/havenchat/havenchat/internal/config"
	"github.com/havenchat/havenchat/internal/llm"
	"github.com/havenchat/havenchat/internal/logging"
	"github.com/havenchat/havenchat/internal/profile"
	"github.com/havenchat/havenchat/internal/scheduler"
	"github.com/havenchat/havenchat/internal/storage"
)

var (
	dataDir    string
	port       int
	configPath string
	inMemory   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "havenchat",
		Short: "Haven Daemon - a supportive chat backend",
		RunE:  runDaemon,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".haven")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "Data directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	rootCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Keep all state in memory, nothing on disk")

	rootCmd.AddCommand(createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if cfg.Features.DebugMode {
		logging.SetLevel(logging.DEBUG)
	}
	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("🏠 Starting Haven Daemon...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Stores: SQLite on disk, or everything in memory for throwaway runs
	var (
		convStore    chat.Store
		profileStore profile.Store
		authStore    auth.Store
	)
	if inMemory {
		fmt.Println("📦 Running with in-memory stores, state is not persisted")
		convStore = chat.NewMemoryStore()
		profileStore = profile.NewMemoryStore()
		authStore = auth.NewMemoryStore()
	} else {
		dbPath := filepath.Join(cfg.DataDir, "haven.db")
		db, err := storage.Open(storage.Config{Path: dbPath})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		convStore = storage.NewConversationStore(db)
		profileStore = storage.NewProfileStore(db)
		authStore = storage.NewAuthStore(db)
	}

	// Completion client
	llmClient := llm.NewClient(llm.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
	})
	if !llmClient.IsConfigured() {
		fmt.Println("⚠️  GEMINI_API_KEY not set - replies will be degraded")
	} else {
		fmt.Println("✅ Gemini API configured")
	}

	// Profile analyzer
	var analyzer chat.Analyzer
	var profileAnalyzer *profile.Analyzer
	if cfg.Features.EnableAnalysis {
		profileAnalyzer = profile.NewAnalyzer(profileStore, convStore, llmClient)
		analyzer = profileAnalyzer
	}

	chatSvc := chat.NewService(chat.Config{
		Store:                convStore,
		Profiles:             profileStore,
		Completer:            llmClient,
		Analyzer:             analyzer,
		HistoryWindow:        cfg.Chat.HistoryWindow,
		AnalyzeAfterMessages: cfg.Chat.AnalyzeAfterMessages,
	})

	// Auth
	var authSvc *auth.Service
	if cfg.Features.EnableAuth {
		secret := cfg.Auth.JWTSecret
		if secret == "" {
			secret = uuid.New().String()
			fmt.Println("⚠️  HAVEN_JWT_SECRET not set - sessions will not survive a restart")
		}
		authSvc = auth.NewService(authStore, secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	}

	// Background sweep: analyze conversations gone quiet
	sched := scheduler.New()
	if profileAnalyzer != nil {
		idleFor := time.Duration(cfg.Chat.InactivityMinutes) * time.Minute
		sched.Register(scheduler.IntervalTask("inactivity-sweep", "Analyze idle conversations",
			5*time.Minute, func(ctx context.Context) error {
				return profileAnalyzer.Sweep(ctx, convStore, idleFor)
			}))
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.New(api.Config{
		Port:     cfg.Server.Port,
		Chat:     chatSvc,
		Profiles: profileStore,
		Auth:     authSvc,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		sched.Stop()
		server.Stop(context.Background())
	}()

	// Start server (blocks)
	fmt.Printf("🌐 Listening on http://localhost:%d\n", cfg.Server.Port)
	return server.Start()
}

func createUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-user <username>",
		Short: "Register an account from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dbPath := filepath.Join(cfg.DataDir, "haven.db")
			db, err := storage.Open(storage.Config{Path: dbPath})
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			password, err := readPassword()
			if err != nil {
				return err
			}

			svc := auth.NewService(storage.NewAuthStore(db), cfg.Auth.JWTSecret,
				time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
			a, err := svc.Register(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("✅ Created %s (identity %s)\n", a.Username, a.Identity)
			return nil
		},
	}
}

func readPassword() (string, error) {
	stdin := bufio.NewReader(os.Stdin)
	read := func(prompt string) (string, error) {
		fmt.Print(prompt)
		if term.IsTerminal(int(os.Stdin.Fd())) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			return string(b), err
		}
		// Piped input, e.g. in scripts
		line, err := stdin.ReadString('\n')
		return strings.TrimRight(line, "\r\n"), err
	}

	first, err := read("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	second, err := read("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	if first == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return first, nil
}
