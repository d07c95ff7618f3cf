// Package main provides a CLI around the sqlbind rewriting engine.
//
// The CLI supports:
//   - bind: rewrite :name placeholders, inlining lists as quoted values
//   - quote-name / quote-names / quote-values: the quoting helpers
//   - query: run a statement through a configured connection locator
//
// Usage:
//
//	sqlbind [flags] <command>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
