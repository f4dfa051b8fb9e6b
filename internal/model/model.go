package model

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/swinghop/scheduler/internal/schedule"
)

// Model is a fully built timetabling model: the variable network, the
// penalty terms, and the underlying proto ready to hand to a solver.
type Model struct {
	Inst  *schedule.Instance
	Net   *Network
	Terms []Term

	proto *cmpb.CpModelProto
}

// Option tweaks model construction.
type Option func(*composer)

// CustomTerm injects an extra penalty term built against the variable
// network, priced at the given weight per unit.
func CustomTerm(name string, weight int, build func(b *cpmodel.Builder, n *Network) (cpmodel.LinearArgument, int64), explain func(Binding) []string) Option {
	return func(pc *composer) {
		expr, max := build(pc.b, pc.net)
		count := pc.b.NewIntVar(0, max)
		pc.b.AddEquality(count, expr)
		pc.terms = append(pc.terms, Term{
			Kind:    TermCustom,
			Name:    name,
			Weight:  weight,
			Count:   count,
			Boosted: count,
			Explain: explain,
		})
	}
}

// Build validates the instance and synthesizes the complete constraint
// model: variables, hard constraints, penalty terms and the minimization
// objective over the weighted boosted tallies.
func Build(inst *schedule.Instance, opts ...Option) (*Model, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instance: %w", err)
	}

	b := cpmodel.NewCpModelBuilder()
	net := buildNetwork(b, inst)
	if err := postConstraints(b, inst, net); err != nil {
		return nil, err
	}

	pc := &composer{b: b, inst: inst, net: net}
	pc.compose()
	for _, opt := range opts {
		opt(pc)
	}

	objective := cpmodel.NewLinearExpr()
	for _, term := range pc.terms {
		objective.AddTerm(term.Boosted, int64(term.Weight))
	}
	b.Minimize(objective)

	proto, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("building model proto: %w", err)
	}
	log.Infof("model: %d courses, %d teachers, %d penalty terms, %d variables",
		len(inst.Courses), len(inst.Teachers), len(pc.terms), len(proto.GetVariables()))

	return &Model{Inst: inst, Net: net, Terms: pc.terms, proto: proto}, nil
}

// Proto exposes the built model for solving.
func (m *Model) Proto() *cmpb.CpModelProto { return m.proto }
