// Package filter builds SQL predicates equivalent to active filter widgets.
//
// Widgets that can express their state as SQL return an Expression tree built
// with the constructors in this package. An Encoder turns the trees into the
// body of a WHERE clause so a host can push the same filter down to a database:
//
//	enc := filter.NewDuckDBEncoder(nil)
//	where := enc.EncodeFilters([]filter.Expression{
//	    filter.In(filter.Column("day"), filter.String("Sun")),
//	    filter.Between(filter.Column("tip"), filter.Double(1), filter.Double(3)),
//	})
//	// (day IN ('Sun')) AND (tip BETWEEN 1 AND 3)
//
// # Column Mapping
//
// Map engine column names to backend storage names, or replace them with SQL
// expressions for computed columns:
//
//	enc := filter.NewDuckDBEncoder(&filter.EncoderOptions{
//	    ColumnMapping:     map[string]string{"day": "weekday"},
//	    ColumnExpressions: map[string]string{"total": "(bill + tip)"},
//	})
//
// # Unsupported Expression Handling
//
// The encoder never produces a narrower filter than requested:
//   - For AND: Skips unsupported children, keeps others
//   - For OR: If any child is unsupported, skips entire OR expression
//   - Returns empty string if all expressions are unsupported
package filter
