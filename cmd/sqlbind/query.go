package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gandaldf/sqlbind"
)

var (
	queryPairs   []string
	queryJSON    string
	queryWrite   bool
	queryName    string
	queryProfile bool
)

var queryCmd = &cobra.Command{
	Use:   "query [sql...]",
	Short: "Run a statement through the configured connections",
	Long: `Run a statement through the configured connections and print the rows
as JSON. Read connections are used unless --write is set.`,
	Example: `  SQLBIND_DEFAULT__ADAPTER=sqlite SQLBIND_DEFAULT__PARAMS__PATH=app.db \
    sqlbind query "SELECT * FROM users WHERE id IN (:ids)" -b ids=1 -b ids=2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		bind, err := parseBind(queryPairs, queryJSON)
		if err != nil {
			return err
		}
		return runQuery(cmd.Context(), cmd, text, bind)
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVarP(&queryPairs, "bind", "b", nil, "binding as name=value; repeat a name to build a list")
	f.StringVar(&queryJSON, "bind-json", "", "bindings as a JSON object")
	f.BoolVar(&queryWrite, "write", false, "use a write connection")
	f.StringVar(&queryName, "connection", "", "named read/write connection (default: random)")
	f.BoolVar(&queryProfile, "profile", false, "log query timings")
}

func runQuery(ctx context.Context, cmd *cobra.Command, text string, bind map[string]any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := sqlbind.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Default.Adapter == "" {
		cfg.Default.Adapter = dialectName
	}
	cfg.Profile = cfg.Profile || queryProfile

	factory := sqlbind.NewFactory(nil, logger, nil)
	locator, err := factory.NewLocator(cfg)
	if err != nil {
		return err
	}

	var conn *sqlbind.Connection
	if queryWrite {
		conn, err = locator.Write(queryName)
	} else {
		conn, err = locator.Read(queryName)
	}
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.FetchAll(ctx, text, bind)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	if p := factory.Profiler(); p != nil {
		for _, e := range p.Entries() {
			logger.Info("profile", "call", e.Call, "sql", e.Text, "duration", e.Duration)
		}
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return writeJSON(cmd.OutOrStdout(), rows)
}
