package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var quoteNameCmd = &cobra.Command{
	Use:   "quote-name <spec>...",
	Short: "Quote identifier specs such as \"foo.bar AS baz\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect()
		if err != nil {
			return err
		}
		q := d.Quoter()
		for _, spec := range args {
			fmt.Fprintln(cmd.OutOrStdout(), q.QuoteName(spec))
		}
		return nil
	},
}

var quoteNamesCmd = &cobra.Command{
	Use:   "quote-names [sql...]",
	Short: "Quote table.column pairs in a SQL fragment",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect()
		if err != nil {
			return err
		}
		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Quoter().QuoteNamesIn(text))
		return nil
	},
}

var quoteValues []string

var quoteValuesCmd = &cobra.Command{
	Use:   "quote-values <sql> --value v...",
	Short: "Replace ? placeholders with quoted values",
	Long: `Replace ? placeholders with quoted values, left to right.

Values are parsed as JSON when possible (so 1, true and [1,2] keep their
types) and used as plain strings otherwise.`,
	Example: `  sqlbind quote-values "a = ? AND b IN (?)" --value zim --value '[1,2,3]'`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect()
		if err != nil {
			return err
		}
		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		values := make([]any, len(quoteValues))
		for i, raw := range quoteValues {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				v = raw
			}
			values[i] = v
		}
		out, err := d.Quoter().QuoteValuesIn(text, values...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	quoteValuesCmd.Flags().StringArrayVar(&quoteValues, "value", nil, "value for the next ? placeholder")
}
