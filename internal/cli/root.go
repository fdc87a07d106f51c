package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

// Options wires a root command to its environment. Zero values read the
// process environment and write to stdout.
type Options struct {
	Out       io.Writer
	Config    *setup.Config
	Overrides setup.Overrides
	// SkipLogger leaves the global logger as it is.
	SkipLogger bool
}

type rootFlags struct {
	debug        bool
	cacheBackend string
	dataDir      string
	roles        string
	selector     string
	graphStore   string
}

// NewRootCommand builds the lexgraph command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "lexgraph",
		Short:         "Build lexical graphs of French sentences from the JeuxDeMots network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.SkipLogger {
				return
			}
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  flags.debug || util.GetEnvBool("DEBUG", false),
				Format: util.GetEnv("LOG_FORMAT"),
				Output: cmd.ErrOrStderr(),
			}))
		},
	}
	root.SetOut(opts.Out)

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.debug, "debug", false, "log at debug level")
	pf.StringVar(&flags.cacheBackend, "cache", "", "cache backend: file, memory, redis or s3 (env CACHE_BACKEND)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory of file cache records (env DATA_DIR)")
	pf.StringVar(&flags.roles, "roles", "", "article/pronoun classifier: fixed or pos (env ROLE_CLASSIFIER)")
	pf.StringVar(&flags.selector, "selector", "", "sense selection: sense or weight (env SENSE_SELECTOR)")
	pf.StringVar(&flags.graphStore, "store", "", "graph store: memory, postgres or neo4j (env GRAPH_STORE)")

	open := func(ctx context.Context) (*setup.Services, error) {
		var cfg setup.Config
		if opts.Config != nil {
			cfg = *opts.Config
		} else {
			util.LoadEnv()
			cfg = setup.ConfigFromEnv()
		}
		if flags.cacheBackend != "" {
			cfg.CacheBackend = flags.cacheBackend
		}
		if flags.dataDir != "" {
			cfg.DataDir = flags.dataDir
		}
		if flags.roles != "" {
			cfg.RoleClassifier = flags.roles
		}
		if flags.selector != "" {
			cfg.SenseSelector = flags.selector
		}
		if flags.graphStore != "" {
			cfg.GraphStore = flags.graphStore
		}
		return setup.New(ctx, cfg, opts.Overrides)
	}

	root.AddCommand(
		newAnalyzeCommand(open),
		newRelationsCommand(open),
		newCacheCommand(open),
		newShowCommand(open),
	)
	return root
}

type opener func(ctx context.Context) (*setup.Services, error)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newAnalyzeCommand(open opener) *cobra.Command {
	var persist bool
	var id string

	cmd := &cobra.Command{
		Use:   "analyze <sentence>",
		Short: "Analyze a sentence and print its lexical graph as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(context.WithoutCancel(ctx))

			text := util.CollapseSpace(strings.Join(args, " "))
			var a common.Analysis
			if id != "" {
				a, err = s.Graph.AnalyzeWithID(ctx, id, text)
			} else {
				a, err = s.Graph.Analyze(ctx, text)
			}
			s.Metrics.Analysis("cli", err)
			if err != nil {
				return err
			}
			if persist {
				if err := s.Storage.SaveAnalysis(ctx, a); err != nil {
					return err
				}
				logger.Info("[CLI] Analysis stored", "id", a.ID)
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "store the analysis in the graph store")
	cmd.Flags().StringVar(&id, "id", "", "id to store the analysis under (default: generated)")
	return cmd
}

func newShowCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(context.WithoutCancel(ctx))

			a, err := s.Storage.GetAnalysis(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
}

func newRelationsCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "relations <word>",
		Short: "Print the relation dump of a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(context.WithoutCancel(ctx))

			dump, err := s.Relations.Lookup(ctx, strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dump)
		},
	}
}

func newCacheCommand(open opener) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cached lexical stores",
	}
	refresh := &cobra.Command{
		Use:   "refresh [store]",
		Short: "Refetch one store, or all of them, from the lexical network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(context.WithoutCancel(ctx))

			stores := s.Stores()
			if len(args) == 1 {
				st, err := s.Store(args[0])
				if err != nil {
					return err
				}
				stores = []lexicon.Refresher{st}
			}
			for _, st := range stores {
				if err := st.Refresh(ctx); err != nil {
					return fmt.Errorf("refresh %s: %w", st.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", st.Name())
			}
			return nil
		},
	}
	cacheCmd.AddCommand(refresh)
	return cacheCmd
}
