package filter

import (
	"strconv"
	"strings"
	"time"
)

// DuckDBEncoder encodes filter expressions to DuckDB SQL syntax.
type DuckDBEncoder struct {
	opts *EncoderOptions
}

// NewDuckDBEncoder creates a new DuckDB SQL encoder.
// If opts is nil, default options are used.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{opts: opts}
}

// EncodeFilters converts all filters to a WHERE clause body.
// Returns the condition portion without "WHERE" keyword.
// Returns empty string if no filters can be encoded.
func (e *DuckDBEncoder) EncodeFilters(filters []Expression) string {
	var parts []string
	for _, filter := range filters {
		encoded := e.Encode(filter)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ") AND (") + ")"
}

// Encode converts a single expression to SQL.
// Returns empty string if expression is unsupported.
func (e *DuckDBEncoder) Encode(expr Expression) string {
	if expr == nil {
		return ""
	}

	switch ex := expr.(type) {
	case *ComparisonExpression:
		return e.encodeComparison(ex)
	case *InExpression:
		return e.encodeIn(ex)
	case *BetweenExpression:
		return e.encodeBetween(ex)
	case *ConjunctionExpression:
		return e.encodeConjunction(ex)
	case *OperatorExpression:
		return e.encodeOperator(ex)
	case *ConstantExpression:
		return e.encodeConstant(ex)
	case *ColumnRefExpression:
		return e.encodeColumnRef(ex)
	case *FunctionExpression:
		return e.encodeFunction(ex)
	default:
		return ""
	}
}

// encodeComparison encodes a comparison expression.
func (e *DuckDBEncoder) encodeComparison(c *ComparisonExpression) string {
	left := e.Encode(c.Left)
	right := e.Encode(c.Right)

	if left == "" || right == "" {
		return ""
	}

	switch c.Type() {
	case TypeCompareEqual:
		return left + " = " + right
	case TypeCompareNotEqual:
		return left + " <> " + right
	case TypeCompareLessThan:
		return left + " < " + right
	case TypeCompareGreaterThan:
		return left + " > " + right
	case TypeCompareLessThanOrEqual:
		return left + " <= " + right
	case TypeCompareGreaterThanOrEqual:
		return left + " >= " + right
	default:
		return ""
	}
}

// encodeIn encodes IN/NOT IN expressions.
func (e *DuckDBEncoder) encodeIn(c *InExpression) string {
	left := e.Encode(c.Input)
	if left == "" || len(c.Values) == 0 {
		return ""
	}

	values := make([]string, 0, len(c.Values))
	for _, child := range c.Values {
		encoded := e.Encode(child)
		if encoded == "" {
			return ""
		}
		values = append(values, encoded)
	}

	op := " IN "
	if c.Type() == TypeCompareNotIn {
		op = " NOT IN "
	}
	return left + op + "(" + strings.Join(values, ", ") + ")"
}

// encodeBetween encodes an inclusive BETWEEN expression.
func (e *DuckDBEncoder) encodeBetween(b *BetweenExpression) string {
	input := e.Encode(b.Input)
	lower := e.Encode(b.Lower)
	upper := e.Encode(b.Upper)

	if input == "" || lower == "" || upper == "" {
		return ""
	}
	return input + " BETWEEN " + lower + " AND " + upper
}

// encodeConjunction encodes AND/OR conjunctions.
func (e *DuckDBEncoder) encodeConjunction(c *ConjunctionExpression) string {
	var parts []string
	for _, child := range c.Children {
		encoded := e.Encode(child)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	// An OR with an unsupported child would narrow the result; drop it entirely.
	// An AND may drop unsupported children and stay a superset.
	if c.Type() == TypeConjunctionOr && len(parts) != len(c.Children) {
		return ""
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	op := " AND "
	if c.Type() == TypeConjunctionOr {
		op = " OR "
	}
	return "(" + strings.Join(parts, op) + ")"
}

// encodeOperator encodes unary operators.
func (e *DuckDBEncoder) encodeOperator(o *OperatorExpression) string {
	child := e.Encode(o.Child)
	if child == "" {
		return ""
	}

	switch o.Type() {
	case TypeOperatorIsNull:
		return child + " IS NULL"
	case TypeOperatorIsNotNull:
		return child + " IS NOT NULL"
	case TypeOperatorNot:
		return "NOT (" + child + ")"
	default:
		return ""
	}
}

// encodeColumnRef encodes a column reference.
func (e *DuckDBEncoder) encodeColumnRef(c *ColumnRefExpression) string {
	colName := c.Name

	// Check for expression mapping first (takes precedence)
	if e.opts.ColumnExpressions != nil {
		if expr, ok := e.opts.ColumnExpressions[colName]; ok {
			return expr
		}
	}

	if e.opts.ColumnMapping != nil {
		if mapped, ok := e.opts.ColumnMapping[colName]; ok {
			colName = mapped
		}
	}

	return quoteIdentifier(colName)
}

// encodeFunction encodes a function expression.
func (e *DuckDBEncoder) encodeFunction(f *FunctionExpression) string {
	args := make([]string, 0, len(f.Children))
	for _, child := range f.Children {
		encoded := e.Encode(child)
		if encoded == "" {
			return ""
		}
		args = append(args, encoded)
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// encodeConstant encodes a constant value.
func (e *DuckDBEncoder) encodeConstant(c *ConstantExpression) string {
	if c.Value == nil || c.TypeID == TypeIDNull {
		return "NULL"
	}

	switch c.TypeID {
	case TypeIDBoolean:
		if v, ok := c.Value.(bool); ok {
			if v {
				return "TRUE"
			}
			return "FALSE"
		}
	case TypeIDBigInt:
		if v, ok := c.Value.(int64); ok {
			return strconv.FormatInt(v, 10)
		}
	case TypeIDDouble:
		if v, ok := c.Value.(float64); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case TypeIDVarchar:
		if v, ok := c.Value.(string); ok {
			return quoteLiteral(v)
		}
	case TypeIDDate:
		if v, ok := c.Value.(time.Time); ok {
			return "DATE '" + v.UTC().Format("2006-01-02") + "'"
		}
	case TypeIDTimestamp:
		if v, ok := c.Value.(time.Time); ok {
			return e.formatTimestamp(v.UTC())
		}
	}
	return ""
}

// formatTimestamp formats with microsecond precision when needed.
func (e *DuckDBEncoder) formatTimestamp(t time.Time) string {
	formatted := t.Format("2006-01-02 15:04:05")
	if micros := t.Nanosecond() / 1000; micros != 0 {
		formatted += "." + leftPad(strconv.Itoa(micros), 6)
	}
	return "TIMESTAMP '" + formatted + "'"
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
