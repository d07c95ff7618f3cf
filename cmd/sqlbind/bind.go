package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gandaldf/sqlbind"
)

var (
	bindPairs   []string
	bindJSON    string
	bindCompile bool
)

var bindCmd = &cobra.Command{
	Use:   "bind [sql...]",
	Short: "Rewrite :name placeholders against bindings",
	Long: `Rewrite :name placeholders against bindings.

List values are inlined as comma-separated quoted literals; scalar values are
left as placeholders and reported as the deferred bindings. With --compile the
driver-ready query and positional arguments are printed instead.`,
	Example: `  # Inline a list
  sqlbind bind "SELECT * FROM t WHERE id IN (:ids) AND name = :name" \
    --bind ids=1 --bind ids=2 --bind name=zim

  # Compile for MySQL
  sqlbind bind -d mysql --compile --bind-json '{"id": 7}' "SELECT * FROM t WHERE id = :id"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect()
		if err != nil {
			return err
		}
		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		bind, err := parseBind(bindPairs, bindJSON)
		if err != nil {
			return err
		}

		conn := sqlbind.NewConnection(d, sqlbind.ConnectionConfig{}, sqlbind.WithLogger(logger))
		st, err := conn.Prepare(text, bind)
		if err != nil {
			return err
		}
		logger.Debug("bound statement", "dialect", d.String(), "deferred", len(st.Scalars))

		if bindCompile {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"query": st.Query, "args": st.Args})
		}
		fmt.Fprintln(cmd.OutOrStdout(), st.Text)
		if len(st.Scalars) > 0 {
			return writeJSON(cmd.OutOrStdout(), st.Scalars)
		}
		return nil
	},
}

func init() {
	f := bindCmd.Flags()
	f.StringArrayVarP(&bindPairs, "bind", "b", nil, "binding as name=value; repeat a name to build a list")
	f.StringVar(&bindJSON, "bind-json", "", "bindings as a JSON object")
	f.BoolVar(&bindCompile, "compile", false, "print the driver query and positional args")
}
