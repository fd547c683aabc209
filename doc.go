// Package adaptive builds filter widgets for the columns of an Arrow table
// and combines their states into the set of rows that pass all of them.
//
// A Filter profiles every column (categorical, numeric, datetime or
// geometry), picks a widget kind for it, and keeps one state per widget.
// The filtered row index is memoized: any number of state changes cause
// one recomputation, on the next read.
//
// # Quick Start
//
//	tbl, err := table.ReadCSV(ctx, file, memory.DefaultAllocator)
//	if err != nil {
//	    return err
//	}
//	defer tbl.Release()
//
//	f, err := adaptive.New(tbl, adaptive.Overrides{
//	    "total_bill": widget.Disable(),
//	    "size":       widget.Replace(widget.CategoricalCheckbox{}).WithLabel("Party Size"),
//	}, adaptive.Config{})
//	if err != nil {
//	    return err
//	}
//
//	f.Set("day", widget.Selection{"Sun"})
//	f.Set("tip", widget.Between(2, 4))
//	fmt.Println(f.Index().RowIDs())
//
// # Architecture
//
// The package is composed of:
//   - table: read-only Arrow table wrapper with typed cell access
//   - profile: column kind inference
//   - widget: widget kinds, states, overrides and the kind registry
//   - state: the per-column state store
//   - reactive: lazy memoized computations with change notification
//   - combine: intersection of widget states into a ResultIndex
//   - filter: DuckDB SQL rendering of widget states
//   - duckdbtable: loading tables from DuckDB queries
//
// duckdbtable reads query results through duckdb-go's Arrow interface,
// which is compiled only with the duckdb_arrow build tag:
//
//	go build -tags duckdb_arrow ./...
//	go test -tags duckdb_arrow ./...
//
// Without the tag DuckDB sources fail with duckdbtable.ErrArrowUnavailable.
//
// # Overrides
//
// Overrides change the widget of individual columns. They can be given as a
// map, built with NewOverrides, or read from YAML with LoadOverrides.
// Problems with single columns (an incompatible kind, an unknown column
// name) never fail New; they are reported by Filter.Problems and the column
// is left out.
//
// # Changes
//
// Set, ResetAll, SetTable and Restore are events. Each event is applied
// atomically; observers registered with OnChange run after it, at most once
// per stale period of the index.
//
// # Logging
//
// The package uses log/slog. Set Config.Logger or Config.LogLevel; every
// record of a filter carries its filter_id.
package adaptive
