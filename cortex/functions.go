package cortex

import (
	"fmt"
	"math"
)

// Func identifies a transfer function. Each variant is a pure function
// of the aggregated node input (or, for the aggregating variants, of the
// individual input signals).
type Func int

const (
	// Sum passes the aggregated input through unchanged.
	Sum Func = iota
	Tanh
	Logistic
	// ReLU is a smooth rectifier, 0.5*(sqrt(x^2+4) + x) - 1:
	// differentiable everywhere and passing through the origin.
	ReLU
	Gaussian
	Sin
	Cos
	Abs
	// Min, Max and Avg aggregate over the individual weighted inputs
	// instead of their sum.
	Min
	Max
	Avg
	// Const emits 1 regardless of input (bias nodes).
	Const
	// Golden emits the golden ratio (1+sqrt(5))/2.
	Golden
)

var funcNames = map[string]Func{
	"sum":      Sum,
	"tanh":     Tanh,
	"logistic": Logistic,
	"relu":     ReLU,
	"gaussian": Gaussian,
	"sin":      Sin,
	"cos":      Cos,
	"abs":      Abs,
	"min":      Min,
	"max":      Max,
	"avg":      Avg,
	"const":    Const,
	"golden":   Golden,
}

func (f Func) String() string { return enumName(funcNames, f) }

func (f Func) MarshalJSON() ([]byte, error) { return marshalEnum(funcNames, f) }

func (f *Func) UnmarshalJSON(data []byte) (err error) {
	*f, err = unmarshalEnum(funcNames, data, "transfer function")
	return err
}

// golden is the golden ratio.
const golden = (1.0 + math.Sqrt5) / 2.0

// Transfer applies transfer function f to the aggregated input x.
// The aggregating variants (Min, Max, Avg) must go through TransferAll.
func Transfer(f Func, x float64) float64 {
	switch f {
	case Tanh:
		return math.Tanh(x)
	case Logistic:
		return 0.5 * (math.Tanh(0.5*x) + 1.0)
	case ReLU:
		return 0.5*(math.Sqrt(x*x+4.0)+x) - 1.0
	case Gaussian:
		return math.Exp(-0.5 * x * x)
	case Sin:
		return math.Sin(x)
	case Cos:
		return math.Cos(x)
	case Abs:
		return math.Abs(x)
	case Const:
		return 1.0
	case Golden:
		return golden
	default:
		return x
	}
}

// TransferAll applies transfer function f to a node's individual
// weighted inputs. For the point functions this reduces to
// Transfer(f, sum(inputs)).
func TransferAll(f Func, inputs []float64) float64 {
	switch f {
	case Min:
		if len(inputs) == 0 {
			return 0.0
		}
		minVal := inputs[0]
		for _, v := range inputs[1:] {
			if v < minVal {
				minVal = v
			}
		}
		return minVal
	case Max:
		if len(inputs) == 0 {
			return 0.0
		}
		maxVal := inputs[0]
		for _, v := range inputs[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		return maxVal
	case Avg:
		return Mean(inputs)
	default:
		sum := 0.0
		for _, v := range inputs {
			sum += v
		}
		return Transfer(f, sum)
	}
}

// permittedFuncs maps a node role to the transfer functions that
// mutation may choose for it. Input nodes pass their value through
// unchanged and bias nodes are constant emitters, so neither is subject
// to transfer-function mutation.
var permittedFuncs = map[NodeRole][]Func{
	BiasNode:   {Const},
	InputNode:  {Sum},
	OutputNode: {Tanh, Logistic, Sum},
	HiddenNode: {Sum, Tanh, Logistic, ReLU, Gaussian, Sin, Cos, Abs, Min, Max, Avg, Golden},
}

// PermittedFuncs returns the transfer functions allowed for a role.
func PermittedFuncs(role NodeRole) []Func {
	return permittedFuncs[role]
}

// GetFunc retrieves a transfer function value by name.
func GetFunc(name string) (Func, error) {
	if f, ok := funcNames[name]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown transfer function: %s", name)
}
