// Command semindex runs the semantic chunking and embedding index, either
// as an MCP server on stdio or through one-shot CLI subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devmind/semindex/internal/chunker"
	"github.com/devmind/semindex/internal/config"
	"github.com/devmind/semindex/internal/embedder"
	"github.com/devmind/semindex/internal/enricher"
	"github.com/devmind/semindex/internal/index"
	"github.com/devmind/semindex/internal/mcp"
	"github.com/devmind/semindex/internal/memory"
	"github.com/devmind/semindex/internal/pipeline"
	"github.com/devmind/semindex/pkg/types"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "semindex",
		Short:         "Semantic chunking and embedding index for code and documentation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(statsCmd())
	return root
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	service *pipeline.Service
	idx     *index.Coordinator
}

func (a *app) close() {
	if err := a.idx.Close(); err != nil {
		a.log.Error("failed to close index", "error", err)
	}
}

// newApp loads configuration and assembles the pipeline.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel)

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	idx, err := index.New(index.Config{
		DataDir:         cfg.DataDir,
		StatsSampleSize: cfg.Stats.SampleSize,
	}, embedder.AsEmbeddingFunc(emb), logger)
	if err != nil {
		return nil, fmt.Errorf("initializing index: %w", err)
	}

	service := pipeline.New(
		chunker.New(chunker.Config{
			MinChunkSize: cfg.Chunking.MinSize,
			MaxChunkSize: cfg.Chunking.MaxSize,
			Overlap:      cfg.Chunking.Overlap,
		}),
		enricher.New(enricher.Config{
			Workers:        cfg.Enrich.Workers,
			BufferCapacity: cfg.Enrich.BufferCapacity,
			MinSize:        cfg.Chunking.MinSize,
			MaxSize:        cfg.Chunking.MaxSize,
			Weights:        scoreWeights(cfg.Scoring),
		}, logger),
		idx,
		logger,
	)

	return &app{cfg: cfg, log: logger, service: service, idx: idx}, nil
}

func scoreWeights(s config.ScoringConfig) enricher.ScoreWeights {
	return enricher.ScoreWeights{
		TypeBase: map[types.ChunkType]float64{
			types.ChunkClass:     s.ClassBase,
			types.ChunkInterface: s.InterfaceBase,
			types.ChunkFunction:  s.FunctionBase,
			types.ChunkMethod:    s.MethodBase,
			types.ChunkTypeDecl:  s.TypeBase,
			types.ChunkBlock:     s.BlockBase,
		},
		DefaultBase:       s.DefaultBase,
		SizeFit:           s.SizeFit,
		ComplexityDivisor: s.ComplexityDivisor,
		ComplexityCap:     s.ComplexityCap,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// stdout carries the MCP protocol; logs go to stderr
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			governor := memory.New(memory.Config{
				Interval:  a.cfg.Memory.CheckInterval,
				CeilingMB: a.cfg.Memory.CeilingMB,
			}, a.log)
			go governor.Run(ctx)

			return mcp.NewServer(a.service, a.log).Serve(ctx)
		},
	}
}

func indexCmd() *cobra.Command {
	var repository string
	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a repository directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			repo := repository
			if repo == "" {
				repo = filepath.Base(path)
			}

			summary, err := a.service.ProcessRepository(cmd.Context(), path, repo)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().StringVarP(&repository, "repository", "r", "", "repository tag (defaults to directory name)")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		limit           int
		repository      string
		language        string
		documentation   bool
		includeMetadata bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			where := map[string]string{}
			if repository != "" {
				where["repository"] = repository
			}
			if language != "" {
				where["language"] = language
			}
			if len(where) == 0 {
				where = nil
			}

			matches := a.service.Search(cmd.Context(), args[0], limit, index.SearchOptions{
				Documentation:   documentation,
				Where:           where,
				IncludeMetadata: includeMetadata,
			})
			return printJSON(cmd, matches)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	cmd.Flags().StringVarP(&repository, "repository", "r", "", "filter by repository tag")
	cmd.Flags().StringVarP(&language, "language", "l", "", "filter by language")
	cmd.Flags().BoolVar(&documentation, "docs", false, "search documentation instead of code")
	cmd.Flags().BoolVar(&includeMetadata, "include-metadata", false, "join imports and dependencies into each result")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <repository>",
		Short: "Delete everything indexed under a repository tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.service.DeleteRepository(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"repository":     args[0],
				"deleted_chunks": n,
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
