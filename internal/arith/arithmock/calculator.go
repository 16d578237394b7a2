// Package arithmock provides a testify mock of arith.Calculator.
package arithmock

import (
	"github.com/stretchr/testify/mock"

	"calculator-service/internal/arith"
)

type Calculator struct {
	mock.Mock
}

var _ arith.Calculator = (*Calculator)(nil)

func (m *Calculator) Add(x, y float64) (float64, error) {
	args := m.Called(x, y)
	return args.Get(0).(float64), args.Error(1)
}

func (m *Calculator) Subtract(x, y float64) (float64, error) {
	args := m.Called(x, y)
	return args.Get(0).(float64), args.Error(1)
}

func (m *Calculator) Multiply(x, y float64) (float64, error) {
	args := m.Called(x, y)
	return args.Get(0).(float64), args.Error(1)
}

func (m *Calculator) Divide(x, y float64) (float64, error) {
	args := m.Called(x, y)
	return args.Get(0).(float64), args.Error(1)
}

func (m *Calculator) Modulus(x, y float64) (int, error) {
	args := m.Called(x, y)
	return args.Int(0), args.Error(1)
}

// InRange matches any operand the real service would accept.
func InRange() any {
	return mock.MatchedBy(func(v float64) bool {
		return v >= arith.MinOperand && v <= arith.MaxOperand
	})
}
