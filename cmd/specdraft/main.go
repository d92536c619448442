// Command specdraft runs the feature-drafting assistant, either as an HTTP
// service or as an interactive terminal chat.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/specdraft/specdraft"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/observability"
	"github.com/specdraft/specdraft/internal/server"
	"github.com/specdraft/specdraft/pkg/config"
	metrics "github.com/specdraft/specdraft/pkg/observability"
	"github.com/specdraft/specdraft/pkg/session"
)

// Version is set via ldflags.
var Version = "dev"

var (
	configFile string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "specdraft",
		Short:         "Conversational feature specification assistant",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "configuration file (YAML)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd(), chatCmd(), sessionsCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			if addr != "" {
				app.cfg.Server.Addr = addr
			}

			if err := observability.InitFromEnv(); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() { _ = observability.Shutdown(context.Background()) }()
			metrics.InitMetrics()

			checker := metrics.InitHealthChecker()
			checker.RegisterCheck(metrics.StorageCheck(func(ctx context.Context) error {
				_, err := app.store.ListSessions(ctx, session.ListOptions{Limit: 1})
				return err
			}))
			checker.RegisterCheck(metrics.ProviderCheck(func(ctx context.Context) error {
				_, err := app.providers.Get(app.cfg.Provider)
				return err
			}))

			srv := &http.Server{
				Addr:              app.cfg.Server.Addr,
				Handler:           server.New(app.agent, app.logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errChan := make(chan error, 1)
			go func() {
				app.logger.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errChan:
				return fmt.Errorf("http server: %w", err)
			case sig := <-quit:
				app.logger.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func chatCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Draft a feature interactively on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			fmt.Println("Describe the feature you want to build. Ctrl-D to finish.")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				result, err := app.agent.ProcessFeature(cmd.Context(), line, sessionID)
				if err != nil {
					fmt.Fprintln(os.Stderr, "!", err)
					continue
				}
				sessionID = result.SessionID

				fmt.Printf("\n%s\n", result.Response)
				for _, q := range result.Questions {
					if q.Status == "pending" {
						fmt.Printf("  ? %s\n", q.Text)
					}
				}
				fmt.Printf("\n[%s] %d/%d questions resolved\n\n",
					result.Title, result.AnsweredQuestions, result.TotalQuestions)
			}

			if sessionID != "" {
				fmt.Printf("Session saved as %s. Export it with: specdraft export %s\n", sessionID, sessionID)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue an existing session")
	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored drafting sessions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			metas, err := app.agent.ListSessions(cmd.Context(), session.ListOptions{})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPROGRESS\tUPDATED")
			for _, m := range metas {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n",
					m.ID, m.Title, m.ResolvedQuestions, m.TotalQuestions,
					m.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			existed, err := app.agent.DeleteSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !existed {
				fmt.Println("Session not found.")
				return nil
			}
			fmt.Println("Session deleted.")
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's specification document as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			exp, err := app.agent.ExportSession(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					return fmt.Errorf("session %s not found", args[0])
				}
				return err
			}

			if output == "" {
				output = exp.Filename
			}
			if output == "-" {
				_, err := os.Stdout.WriteString(exp.Content)
				return err
			}
			if err := os.WriteFile(output, []byte(exp.Content), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file ('-' for stdout, default derived from the title)")
	return cmd
}

// app bundles the wired components behind each subcommand.
type app struct {
	cfg       *config.Config
	agent     *specdraft.Agent
	store     session.StorageBackend
	providers *provider.Registry
	logger    *zap.Logger
}

func buildApp() (*app, error) {
	// A missing .env file is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := buildLogger(logLevel)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	p, err := registry.Get(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider %q not available: %w", cfg.Provider, err)
	}
	if cfg.RateLimit.RPS > 0 {
		p = provider.NewRateLimitedProvider(p, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	p = provider.NewInstrumentedProvider(p)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	agent, err := specdraft.New(cfg, p, store, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, agent: agent, store: store, providers: registry, logger: logger}, nil
}

func (a *app) close() {
	if err := a.agent.Close(); err != nil {
		a.logger.Warn("close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// buildRegistry registers every provider the configuration can support.
// Key-gated providers are registered only when their key is present, so a
// registry lookup doubles as an availability check.
func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	reg.Register("mock", provider.NewMockProvider("mock"))
	reg.Register("ollama", provider.NewOllamaProvider(cfg.OllamaURL))
	if cfg.OpenAIKey != "" {
		reg.Register("openai", provider.NewOpenAIProvider(cfg.OpenAIKey, ""))
	}
	if cfg.GeminiKey != "" {
		g, err := provider.NewGeminiProvider(context.Background(), cfg.GeminiKey)
		if err != nil {
			return nil, err
		}
		reg.Register("gemini", g)
	}
	return reg, nil
}

func buildStore(cfg *config.Config) (session.StorageBackend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return session.NewMemoryBackend(), nil
	case "file":
		return session.NewFileBackend(cfg.Storage.Dir)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return session.NewRedisBackend(ctx, session.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
