package filter

import "strings"

// Encoder converts filter expressions to SQL strings.
// Implementations handle dialect-specific syntax (DuckDB, PostgreSQL, etc.).
type Encoder interface {
	// Encode converts a single expression to SQL.
	// Returns empty string if expression is unsupported.
	Encode(expr Expression) string

	// EncodeFilters converts all filters to a WHERE clause body.
	// Filters are implicitly AND'ed together.
	// Returns the condition portion without "WHERE" keyword.
	// Returns empty string if no filters can be encoded.
	EncodeFilters(filters []Expression) string
}

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// ColumnMapping maps original column names to target names.
	// Columns not in the map use their original names.
	ColumnMapping map[string]string

	// ColumnExpressions maps column names to SQL expressions.
	// Takes precedence over ColumnMapping.
	// Use for computed columns or complex transformations.
	ColumnExpressions map[string]string
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// needsQuoting returns true if the identifier needs quoting.
func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	_, reserved := reservedWords[strings.ToUpper(name)]
	return reserved
}

// reservedWords holds the DuckDB keywords that cannot appear as a bare
// column reference: the reserved and type_function categories of
// duckdb_keywords(), plus column_name keywords with expression syntax.
var reservedWords = func() map[string]struct{} {
	words := strings.Fields(`
		ALL ANALYSE ANALYZE AND ANY ARRAY AS ASC ASYMMETRIC BOTH CASE CAST CHECK
		COLLATE COLUMN CONSTRAINT CREATE DEFAULT DEFERRABLE DESC DESCRIBE DISTINCT
		DO ELSE END EXCEPT FALSE FETCH FOR FOREIGN FROM GRANT GROUP HAVING IN
		INITIALLY INTERSECT INTO LATERAL LEADING LIMIT NOT NULL OFFSET ON ONLY OR
		ORDER PIVOT PIVOT_LONGER PIVOT_WIDER PLACING PRIMARY QUALIFY REFERENCES
		RETURNING SELECT SHOW SOME SUMMARIZE SYMMETRIC TABLE THEN TO TRAILING TRUE
		UNION UNIQUE UNPIVOT USING VARIADIC WHEN WHERE WINDOW WITH

		ANTI ASOF AUTHORIZATION BINARY COLLATION CONCURRENTLY CROSS FREEZE FULL
		GENERATED GLOB ILIKE INNER IS ISNULL JOIN LEFT LIKE MAP NATURAL NOTNULL
		OUTER OVERLAPS POSITIONAL RIGHT SEMI SIMILAR STRUCT TABLESAMPLE TRY_CAST
		VERBOSE

		BETWEEN COALESCE COLUMNS EXISTS EXTRACT GROUPING GROUPING_ID INTERVAL
		NULLIF OVERLAY POSITION ROW SUBSTRING TREAT TRIM VALUES
		DATE TIME TIMESTAMP

		INSERT UPDATE DELETE DROP ALTER INDEX BY SET KEY NULLS FIRST LAST`)

	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
