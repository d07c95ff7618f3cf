package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gandaldf/sqlbind"
)

var (
	// Persistent flags
	cfgFile     string
	dialectName string
	verbose     bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sqlbind",
	Short: "Rewrite and quote SQL statement text",
	Long: `sqlbind - SQL statement rewriting

Rewrites :name placeholders, inlining list values as quoted literals and
leaving scalars for the driver, and exposes the identifier and value
quoting helpers used by the library.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); SQLBIND_* env vars override it")
	rootCmd.PersistentFlags().StringVarP(&dialectName, "dialect", "d", "postgres", "dialect: postgres, mysql, sqlite or sqlserver")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(bindCmd)
	rootCmd.AddCommand(quoteNameCmd)
	rootCmd.AddCommand(quoteNamesCmd)
	rootCmd.AddCommand(quoteValuesCmd)
	rootCmd.AddCommand(queryCmd)
}

func dialect() (sqlbind.Dialect, error) {
	return sqlbind.ParseDialect(dialectName)
}

// readText joins args into statement text; "-" or no args reads stdin.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	}
	return strings.Join(args, " "), nil
}

// parseBind turns name=value pairs plus an optional JSON object into a bind
// map. Repeating a name collects its values into a list.
func parseBind(pairs []string, jsonObj string) (map[string]any, error) {
	bind := make(map[string]any)
	if jsonObj != "" {
		if err := json.Unmarshal([]byte(jsonObj), &bind); err != nil {
			return nil, fmt.Errorf("parsing --bind-json: %w", err)
		}
	}
	seen := make(map[string]bool)
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid binding %q, want name=value", p)
		}
		if seen[name] {
			if list, ok := bind[name].([]any); ok {
				bind[name] = append(list, value)
			} else {
				bind[name] = []any{bind[name], value}
			}
			continue
		}
		seen[name] = true
		bind[name] = value
	}
	return bind, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
