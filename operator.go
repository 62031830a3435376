package gopaginate

import "fmt"

// Operator defines a comparison operator used in filter conditions.
type Operator string

const (
	OperatorEq  Operator = "$eq"
	OperatorNe  Operator = "$ne"
	OperatorGT  Operator = "$gt"
	OperatorGTE Operator = "$gte"
	OperatorLT  Operator = "$lt"
	OperatorLTE Operator = "$lte"
	OperatorIn  Operator = "$in"
	OperatorNin Operator = "$nin"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEq, OperatorNe, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE, OperatorIn, OperatorNin:
		return true
	default:
		return false
	}
}

// IsSet reports whether the operator expects a list operand.
func (o Operator) IsSet() bool {
	return o == OperatorIn || o == OperatorNin
}

// SQL returns the SQL form of the operator.
func (o Operator) SQL() string {
	switch o {
	case OperatorEq:
		return "="
	case OperatorNe:
		return "<>"
	case OperatorGT:
		return ">"
	case OperatorGTE:
		return ">="
	case OperatorLT:
		return "<"
	case OperatorLTE:
		return "<="
	case OperatorIn:
		return "IN"
	case OperatorNin:
		return "NOT IN"
	default:
		panic(fmt.Errorf("cannot map operator '%s' to sql", o))
	}
}
