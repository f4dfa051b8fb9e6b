package model

import "github.com/google/or-tools/ortools/sat/go/cpmodel"

// Binding is a total value assignment for the model's variables, as
// reported by the solver. Explain functions and the solution decoder are
// pure functions of a Binding: decoding never mutates solver state and
// re-decoding the same binding yields identical results.
type Binding interface {
	BoolValue(cpmodel.BoolVar) bool
	IntValue(cpmodel.IntVar) int64
}
