package filter

import "time"

// ExpressionType identifies the specific operation type.
type ExpressionType string

const (
	// Comparison operators
	TypeCompareEqual              ExpressionType = "COMPARE_EQUAL"
	TypeCompareNotEqual           ExpressionType = "COMPARE_NOTEQUAL"
	TypeCompareLessThan           ExpressionType = "COMPARE_LESSTHAN"
	TypeCompareGreaterThan        ExpressionType = "COMPARE_GREATERTHAN"
	TypeCompareLessThanOrEqual    ExpressionType = "COMPARE_LESSTHANOREQUALTO"
	TypeCompareGreaterThanOrEqual ExpressionType = "COMPARE_GREATERTHANOREQUALTO"
	TypeCompareIn                 ExpressionType = "COMPARE_IN"
	TypeCompareNotIn              ExpressionType = "COMPARE_NOT_IN"
	TypeCompareBetween            ExpressionType = "COMPARE_BETWEEN"

	// Conjunction operators
	TypeConjunctionAnd ExpressionType = "CONJUNCTION_AND"
	TypeConjunctionOr  ExpressionType = "CONJUNCTION_OR"

	// Unary operators
	TypeOperatorNot       ExpressionType = "OPERATOR_NOT"
	TypeOperatorIsNull    ExpressionType = "OPERATOR_IS_NULL"
	TypeOperatorIsNotNull ExpressionType = "OPERATOR_IS_NOT_NULL"

	TypeValueConstant  ExpressionType = "VALUE_CONSTANT"
	TypeBoundColumnRef ExpressionType = "BOUND_COLUMN_REF"
	TypeFunction       ExpressionType = "FUNCTION"
)

// LogicalTypeID is the SQL type of a constant.
type LogicalTypeID string

const (
	TypeIDNull      LogicalTypeID = "NULL"
	TypeIDBoolean   LogicalTypeID = "BOOLEAN"
	TypeIDBigInt    LogicalTypeID = "BIGINT"
	TypeIDDouble    LogicalTypeID = "DOUBLE"
	TypeIDVarchar   LogicalTypeID = "VARCHAR"
	TypeIDDate      LogicalTypeID = "DATE"
	TypeIDTimestamp LogicalTypeID = "TIMESTAMP"
)

// Expression is the interface implemented by all filter expression types.
// Use type assertions or type switches to access specific expression data.
type Expression interface {
	// Type returns the specific expression type (e.g., COMPARE_EQUAL, CONJUNCTION_AND).
	Type() ExpressionType

	// expressionMarker is a marker method to prevent external implementation.
	expressionMarker()
}

// BaseExpression contains common fields for all expression types.
type BaseExpression struct {
	ExprType ExpressionType
}

// Type returns the expression type.
func (b *BaseExpression) Type() ExpressionType { return b.ExprType }

func (b *BaseExpression) expressionMarker() {}

// ComparisonExpression represents binary comparisons (=, <>, <, >, <=, >=).
type ComparisonExpression struct {
	BaseExpression
	Left  Expression
	Right Expression
}

// InExpression represents IN / NOT IN over a list of constants.
type InExpression struct {
	BaseExpression
	Input  Expression
	Values []Expression
}

// BetweenExpression represents an inclusive BETWEEN lower AND upper.
type BetweenExpression struct {
	BaseExpression
	Input Expression
	Lower Expression
	Upper Expression
}

// ConjunctionExpression represents AND/OR with multiple children.
type ConjunctionExpression struct {
	BaseExpression
	Children []Expression
}

// OperatorExpression represents unary operators (NOT, IS NULL, IS NOT NULL).
type OperatorExpression struct {
	BaseExpression
	Child Expression
}

// ConstantExpression represents a literal value with its SQL type.
type ConstantExpression struct {
	BaseExpression
	TypeID LogicalTypeID
	Value  any
}

// ColumnRefExpression references a table column by name.
type ColumnRefExpression struct {
	BaseExpression
	Name string
}

// FunctionExpression represents a function call such as ST_Intersects.
type FunctionExpression struct {
	BaseExpression
	Name     string
	Children []Expression
}

// Column returns a reference to the named column.
func Column(name string) *ColumnRefExpression {
	return &ColumnRefExpression{BaseExpression: BaseExpression{ExprType: TypeBoundColumnRef}, Name: name}
}

// String returns a VARCHAR constant.
func String(s string) *ConstantExpression {
	return constant(TypeIDVarchar, s)
}

// Double returns a DOUBLE constant.
func Double(f float64) *ConstantExpression {
	return constant(TypeIDDouble, f)
}

// BigInt returns a BIGINT constant.
func BigInt(i int64) *ConstantExpression {
	return constant(TypeIDBigInt, i)
}

// Bool returns a BOOLEAN constant.
func Bool(b bool) *ConstantExpression {
	return constant(TypeIDBoolean, b)
}

// Date returns a DATE constant; the time of day is ignored.
func Date(t time.Time) *ConstantExpression {
	return constant(TypeIDDate, t)
}

// Timestamp returns a TIMESTAMP constant.
func Timestamp(t time.Time) *ConstantExpression {
	return constant(TypeIDTimestamp, t)
}

func constant(id LogicalTypeID, v any) *ConstantExpression {
	return &ConstantExpression{BaseExpression: BaseExpression{ExprType: TypeValueConstant}, TypeID: id, Value: v}
}

// Compare builds a binary comparison.
func Compare(op ExpressionType, left, right Expression) *ComparisonExpression {
	return &ComparisonExpression{BaseExpression: BaseExpression{ExprType: op}, Left: left, Right: right}
}

// In builds input IN (values...).
func In(input Expression, values ...Expression) *InExpression {
	return &InExpression{BaseExpression: BaseExpression{ExprType: TypeCompareIn}, Input: input, Values: values}
}

// Between builds input BETWEEN lower AND upper.
func Between(input, lower, upper Expression) *BetweenExpression {
	return &BetweenExpression{BaseExpression: BaseExpression{ExprType: TypeCompareBetween}, Input: input, Lower: lower, Upper: upper}
}

// And joins children with AND.
func And(children ...Expression) *ConjunctionExpression {
	return &ConjunctionExpression{BaseExpression: BaseExpression{ExprType: TypeConjunctionAnd}, Children: children}
}

// Not negates child.
func Not(child Expression) *OperatorExpression {
	return &OperatorExpression{BaseExpression: BaseExpression{ExprType: TypeOperatorNot}, Child: child}
}

// Function builds a function call.
func Function(name string, args ...Expression) *FunctionExpression {
	return &FunctionExpression{BaseExpression: BaseExpression{ExprType: TypeFunction}, Name: name, Children: args}
}
