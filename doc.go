// Package sqlbind rewrites SQL text before it reaches the driver. It keeps :named scalars as
// bound parameters, inlines quoted IN (:list) sequences, quotes table.column identifiers in
// free-form fragments, and never touches anything inside a string literal. On top of that
// sits a thin connection layer (lazy connect, lifecycle hooks, a profiler, a read/write
// locator, schema introspection) and a small Select/Insert/Update/Delete façade.

package sqlbind
