package invocation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// ChannelID names an invocation endpoint.
type ChannelID string

// Kind is the primitive type of an argument.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ResultKind is the declared result shape of an operation.
type ResultKind int

const (
	ResultBool ResultKind = iota + 1
	ResultNull
)

func (k ResultKind) String() string {
	switch k {
	case ResultBool:
		return "bool"
	case ResultNull:
		return "null"
	default:
		return fmt.Sprintf("result(%d)", int(k))
	}
}

// ArgSpec declares one argument of an operation.
type ArgSpec struct {
	Name     string
	Kind     Kind
	Required bool
	// AllowBlank accepts required strings that are empty after trimming.
	AllowBlank bool
}

// RunFunc executes an operation with validated arguments.
type RunFunc func(ctx context.Context, args Arguments) (any, error)

// Operation is one entry of a channel's operation table.
type Operation struct {
	Name       string
	Args       []ArgSpec
	Result     ResultKind
	Capability string
	Run        RunFunc
}

// ChannelSpec is the complete operation table of a channel.
type ChannelSpec struct {
	ID         ChannelID
	Operations []Operation
}

// Arguments maps argument names to primitive values (string, number, bool, or nil).
type Arguments map[string]any

// String returns the named string argument or "".
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Number returns the named numeric argument or 0.
func (a Arguments) Number(name string) float64 {
	f, _ := toNumber(a[name])
	return f
}

// Bool returns the named bool argument or false.
func (a Arguments) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Arguments) clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Invocation is one request to run an operation. It is consumed exactly once.
type Invocation struct {
	Operation     string
	Args          Arguments
	CorrelationID string
}

// NewInvocation builds an invocation with a fresh correlation id. The
// argument map is copied.
func NewInvocation(operation string, args map[string]any) Invocation {
	return Invocation{
		Operation:     strings.TrimSpace(operation),
		Args:          Arguments(args).clone(),
		CorrelationID: uuid.NewString(),
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
