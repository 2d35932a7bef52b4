package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/internal/log"
	"github.com/helixml/dokit/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to search ingested documents and fetch their
extracted text. Configuration is loaded from environment variables and
a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	// Load configuration
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Ensure directories exist
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Log to stderr: stdout carries the JSON-RPC stream.
	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	// Build dokit client options
	opts, err := clientOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		dokit.WithDataDir(cfg.DataDir()),
		dokit.WithLogger(slogger),
	)

	// Create dokit client
	client, err := dokit.New(opts...)
	if err != nil {
		return fmt.Errorf("create dokit client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close dokit client", slog.Any("error", err))
		}
	}()

	// Create MCP server
	mcpServer := mcp.NewServer(client.Search, client.Documents, version, slogger)

	// Run on stdio
	return mcpServer.ServeStdio()
}
