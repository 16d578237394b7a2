package arith

import (
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned when an operation name is not recognised.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation names a Calculator method for dispatch by name.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
	OpModulus  Operation = "modulus"
)

var operations = []Operation{OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulus}

// Operations returns every supported operation in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

func (op Operation) String() string {
	return string(op)
}

// ParseOperation maps a name such as "add" to its Operation.
func ParseOperation(name string) (Operation, error) {
	for _, op := range operations {
		if string(op) == name {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Apply runs op on c. Modulus results are widened back to float64.
func Apply(c Calculator, op Operation, x, y float64) (float64, error) {
	switch op {
	case OpAdd:
		return c.Add(x, y)
	case OpSubtract:
		return c.Subtract(x, y)
	case OpMultiply:
		return c.Multiply(x, y)
	case OpDivide:
		return c.Divide(x, y)
	case OpModulus:
		r, err := c.Modulus(x, y)
		return float64(r), err
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, string(op))
	}
}
