// Package arith implements the bounds-checked arithmetic operations behind
// every calculator surface (HTTP, RPC and CLI).
package arith

import (
	"errors"
	"fmt"
	"math"
)

// Operands must lie in [MinOperand, MaxOperand], inclusive.
const (
	MinOperand = 1
	MaxOperand = 1000
)

// ErrOutOfRange is returned when an operand falls outside [MinOperand, MaxOperand].
var ErrOutOfRange = errors.New("operand out of range")

// Calculator is the set of validated arithmetic operations.
type Calculator interface {
	Add(x, y float64) (float64, error)
	Subtract(x, y float64) (float64, error)
	Multiply(x, y float64) (float64, error)
	Divide(x, y float64) (float64, error)
	Modulus(x, y float64) (int, error)
}

// Service is the stateless Calculator implementation. The zero value is ready to use.
type Service struct{}

var _ Calculator = (*Service)(nil)

func New() *Service {
	return &Service{}
}

func (s *Service) Add(x, y float64) (float64, error) {
	if err := Validate(x, y); err != nil {
		return 0, err
	}
	return x + y, nil
}

func (s *Service) Subtract(x, y float64) (float64, error) {
	if err := Validate(x, y); err != nil {
		return 0, err
	}
	return x - y, nil
}

func (s *Service) Multiply(x, y float64) (float64, error) {
	if err := Validate(x, y); err != nil {
		return 0, err
	}
	return x * y, nil
}

// Divide never sees a zero divisor: the operand range excludes it.
func (s *Service) Divide(x, y float64) (float64, error) {
	if err := Validate(x, y); err != nil {
		return 0, err
	}
	return x / y, nil
}

// Modulus returns the floating-point remainder of x/y truncated toward zero.
func (s *Service) Modulus(x, y float64) (int, error) {
	if err := Validate(x, y); err != nil {
		return 0, err
	}
	return int(math.Mod(x, y)), nil
}

// Validate reports ErrOutOfRange, wrapped with the offending operands, when
// either x or y lies outside [MinOperand, MaxOperand]. NaN is never in range.
func Validate(x, y float64) error {
	xOK, yOK := inRange(x), inRange(y)
	switch {
	case xOK && yOK:
		return nil
	case !xOK && !yOK:
		return fmt.Errorf("%w: x=%g y=%g not in [%d, %d]", ErrOutOfRange, x, y, MinOperand, MaxOperand)
	case !xOK:
		return fmt.Errorf("%w: x=%g not in [%d, %d]", ErrOutOfRange, x, MinOperand, MaxOperand)
	default:
		return fmt.Errorf("%w: y=%g not in [%d, %d]", ErrOutOfRange, y, MinOperand, MaxOperand)
	}
}

func inRange(v float64) bool {
	return v >= MinOperand && v <= MaxOperand
}
