// Package solver runs a built timetabling model through CP-SAT and
// decodes responses into schedules and penalty ledgers.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"google.golang.org/protobuf/proto"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"

	"github.com/swinghop/scheduler/internal/model"
)

// Status classifies the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusFeasible
	StatusInfeasible
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrInfeasible means the hard constraints admit no timetable at all.
	ErrInfeasible = errors.New("no timetable satisfies the hard constraints")
	// ErrUnknown means the solver ran out of time before finding anything.
	ErrUnknown = errors.New("solver stopped without a conclusion")
)

// Backend is the boundary to an actual CP-SAT solve. The production
// backend hands the proto to the native solver; test backends replay
// canned responses and may stream intermediate ones through incumbent.
type Backend interface {
	Solve(m *cmpb.CpModelProto, params *sppb.SatParameters, interrupt <-chan struct{}, incumbent func(*cmpb.CpSolverResponse)) (*cmpb.CpSolverResponse, error)
}

type cpsatBackend struct{}

func (cpsatBackend) Solve(m *cmpb.CpModelProto, params *sppb.SatParameters, interrupt <-chan struct{}, _ func(*cmpb.CpSolverResponse)) (*cmpb.CpSolverResponse, error) {
	return cpmodel.SolveCpModelInterruptibleWithParameters(m, params, interrupt)
}

// Options control a solve.
type Options struct {
	// TimeLimit bounds the search; zero means run until optimal or until
	// the context expires.
	TimeLimit time.Duration
	// Workers is the parallel worker count; zero leaves the solver default.
	Workers int
	// OnIncumbent, if set, is invoked with each strictly improving
	// intermediate solution the backend reports, in improvement order.
	OnIncumbent func(*Solution)
	// Backend overrides the native solver; nil selects it.
	Backend Backend
}

// Result is the outcome of a completed solve.
type Result struct {
	Status    Status
	Solution  *Solution
	Objective int64
	WallTime  time.Duration
}

// Solve runs the model to completion or until the context or time limit
// stops it. A feasible or optimal outcome carries a decoded Solution;
// infeasibility and exhaustion are reported as errors alongside the
// status-bearing result.
func Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	backend := opts.Backend
	if backend == nil {
		backend = cpsatBackend{}
	}

	params := &sppb.SatParameters{}
	if opts.TimeLimit > 0 {
		params.MaxTimeInSeconds = proto.Float64(opts.TimeLimit.Seconds())
	}
	if opts.Workers > 0 {
		params.NumWorkers = proto.Int32(int32(opts.Workers))
	}

	interrupt := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(interrupt)
		case <-done:
		}
	}()
	defer close(done)

	// Incumbents are decoded one at a time; the lock is released before
	// handing the solution to the caller so a slow callback never blocks
	// the next decode from starting.
	var mu sync.Mutex
	best := int64(-1)
	seen := false
	incumbent := func(resp *cmpb.CpSolverResponse) {
		if opts.OnIncumbent == nil {
			return
		}
		mu.Lock()
		obj := int64(resp.GetObjectiveValue())
		if seen && obj >= best {
			mu.Unlock()
			return
		}
		best, seen = obj, true
		sol := Decode(m, NewResponseBinding(resp))
		mu.Unlock()
		opts.OnIncumbent(sol)
	}

	start := time.Now()
	resp, err := backend.Solve(m.Proto(), params, interrupt, incumbent)
	if err != nil {
		return nil, fmt.Errorf("solving: %w", err)
	}
	result := &Result{WallTime: time.Since(start)}

	switch resp.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL:
		result.Status = StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		result.Status = StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		result.Status = StatusInfeasible
		return result, ErrInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return nil, fmt.Errorf("solver rejected the model as invalid")
	default:
		result.Status = StatusUnknown
		return result, ErrUnknown
	}

	result.Objective = int64(resp.GetObjectiveValue())
	result.Solution = Decode(m, NewResponseBinding(resp))
	if opts.OnIncumbent != nil && (!seen || result.Objective < best) {
		opts.OnIncumbent(result.Solution)
	}
	log.Infof("solve finished: %s, objective %d, %s", result.Status, result.Objective, result.WallTime)
	return result, nil
}
