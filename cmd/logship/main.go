package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/rzbill/logship"
	cfgpkg "github.com/rzbill/logship/internal/config"
	"github.com/rzbill/logship/internal/queue"
	logpkg "github.com/rzbill/logship/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logship",
		Short: "Durable log buffer and batch uploader",
		Long:  "logship buffers log lines durably on local disk and forwards them to an HTTP ingestion endpoint in batches.",
	}

	rootCmd.AddCommand(newShipCommand())
	rootCmd.AddCommand(newQueueCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges defaults, an optional config file, env overlays, and
// explicit flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfgpkg.FromEnv(&cfg)

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("name") {
		cfg.QueueName, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.EndpointURL, _ = cmd.Flags().GetString("endpoint")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if cmd.Flags().Changed("proxy-host") {
		cfg.ProxyHost, _ = cmd.Flags().GetString("proxy-host")
	}
	if cmd.Flags().Changed("proxy-port") {
		cfg.ProxyPort, _ = cmd.Flags().GetInt("proxy-port")
	}
	if cmd.Flags().Changed("fsync") {
		cfg.Fsync, _ = cmd.Flags().GetString("fsync")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to JSON config file")
	cmd.Flags().String("data-dir", "", "Data directory (default: OS-specific application data directory)")
	cmd.Flags().String("name", "", "Logical queue name")
}

func buildLogger(cfg cfgpkg.Config) logpkg.Logger {
	level, err := logpkg.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logpkg.InfoLevel
	}
	var formatter logpkg.Formatter = &logpkg.TextFormatter{}
	if cfg.LogFormat == "json" {
		formatter = &logpkg.JSONFormatter{}
	}
	return logpkg.NewLogger(
		logpkg.WithLevel(level),
		logpkg.WithFormatter(formatter),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
}

func durabilityFromFsync(mode string) (logship.Durability, error) {
	switch mode {
	case "", "always":
		return logship.DurabilityStrict, nil
	case "interval":
		return logship.DurabilityInterval, nil
	case "never":
		return logship.DurabilityRelaxed, nil
	default:
		return 0, fmt.Errorf("invalid --fsync; use always|interval|never")
	}
}

func newShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Follow a file (or stdin) and forward lines to the endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.EndpointURL == "" {
				return fmt.Errorf("an ingestion endpoint is required; set --endpoint or LOGSHIP_ENDPOINT_URL")
			}
			durability, err := durabilityFromFsync(cfg.Fsync)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg)

			a, err := logship.Open(logship.Options{
				DataDir:     cfg.DataDir,
				Name:        cfg.QueueName,
				EndpointURL: cfg.EndpointURL,
				BatchSize:   cfg.BatchSize,
				ProxyHost:   cfg.ProxyHost,
				ProxyPort:   cfg.ProxyPort,
				Durability:  durability,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("shipping",
				logpkg.Str("endpoint", cfg.EndpointURL),
				logpkg.Str("queue", cfg.QueueName),
				logpkg.Int("batch_size", cfg.BatchSize),
			)

			file, _ := cmd.Flags().GetString("file")
			if file != "" {
				err = shipFile(ctx, a, file)
			} else {
				err = shipStdin(ctx, a)
			}

			// Close drains everything still queued before returning.
			if cerr := a.Close(); cerr != nil {
				logger.Error("close", logpkg.Err(cerr))
			}
			return err
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("endpoint", "", "Ingestion endpoint URL")
	cmd.Flags().Int("batch-size", 50, "Entries per upload batch")
	cmd.Flags().String("proxy-host", "", "HTTP proxy host (optional)")
	cmd.Flags().Int("proxy-port", 0, "HTTP proxy port")
	cmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	cmd.Flags().String("log-level", os.Getenv("LOGSHIP_LOG_LEVEL"), "Log level: debug|info|warn|error")
	cmd.Flags().String("file", "", "File to follow; stdin when omitted")
	return cmd
}

func shipFile(ctx context.Context, a *logship.Appender, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				continue
			}
			a.Append(line.Text + "\n")
		}
	}
}

func shipStdin(ctx context.Context, a *logship.Appender) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			a.Append(line + "\n")
		}
	}
}

func newQueueCommand() *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Inspect a buffered queue"}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pending entry counts and id bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close(context.Background())
			st := q.Stats()
			fmt.Printf("pending: %d\n", st.Pending)
			if st.Pending > 0 {
				fmt.Printf("oldest id: %d\nnewest id: %d\n", st.OldestID, st.NewestID)
			}
			fmt.Printf("last assigned id: %d\n", st.LastID)
			return nil
		},
	}
	addCommonFlags(statsCmd)

	peekCmd := &cobra.Command{
		Use:   "peek",
		Short: "Print the oldest pending entries without removing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close(context.Background())
			limit, _ := cmd.Flags().GetInt("limit")
			for _, e := range q.DequeueBatch(limit) {
				fmt.Printf("%d\t%s\t%s", e.ID, time.Unix(0, e.EnqueuedAt).Format(time.RFC3339), e.Message)
			}
			return nil
		},
	}
	addCommonFlags(peekCmd)
	peekCmd.Flags().Int("limit", 10, "Maximum entries to print")

	queueCmd.AddCommand(statsCmd, peekCmd)
	return queueCmd
}

func openQueue(cmd *cobra.Command) (*queue.Queue, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	q := queue.Open(queue.Options{DataDir: cfg.DataDir, Name: cfg.QueueName})
	select {
	case <-q.ReadySignal():
		return q, nil
	case <-time.After(10 * time.Second):
		_ = q.Close(context.Background())
		return nil, fmt.Errorf("queue at %s did not become ready", cfg.DataDir)
	}
}
