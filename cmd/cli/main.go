package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"

	"github.com/swinghop/scheduler/internal/ingest"
	"github.com/swinghop/scheduler/internal/model"
	"github.com/swinghop/scheduler/internal/solver"
)

func main() {
	instancePtr := flag.String("instance", "", "Path to the instance file")
	surveyPtr := flag.String("survey", "", "Path to the survey CSV export; fills teacher preferences on top of the roster")
	timeoutPtr := flag.Duration("timeout", 5*time.Minute, "Solve time limit; 0 runs until proven optimal")
	workersPtr := flag.Int("workers", 0, "Parallel solver workers; 0 keeps the solver default")
	outPtr := flag.String("out", "", "Path to the output file; if empty, the timetable is written to the standard output")
	quietPtr := flag.Bool("quiet", false, "Suppress intermediate solutions")
	flag.Parse()
	defer log.Flush()

	if *instancePtr == "" {
		log.Exitf("an instance file must be specified")
	}
	inst, err := ingest.LoadInstance(*instancePtr)
	if err != nil {
		log.Exitf("cannot load instance: %v", err)
	}
	if *surveyPtr != "" {
		f, err := os.Open(*surveyPtr)
		if err != nil {
			log.Exitf("cannot open survey: %v", err)
		}
		err = ingest.ParseSurvey(f, inst)
		f.Close()
		if err != nil {
			log.Exitf("cannot parse survey: %v", err)
		}
	}

	m, err := model.Build(inst)
	if err != nil {
		log.Exitf("cannot build model: %v", err)
	}

	opts := solver.Options{
		TimeLimit: *timeoutPtr,
		Workers:   *workersPtr,
	}
	if !*quietPtr {
		opts.OnIncumbent = func(sol *solver.Solution) {
			fmt.Printf("--- incumbent, penalty %d ---\n%s\n", sol.Penalty, sol)
		}
	}

	result, err := solver.Solve(context.Background(), m, opts)
	switch {
	case errors.Is(err, solver.ErrInfeasible):
		log.Exitf("the hard constraints admit no timetable")
	case errors.Is(err, solver.ErrUnknown):
		log.Exitf("no timetable found within the time limit")
	case err != nil:
		log.Exitf("solve failed: %v", err)
	}

	report := fmt.Sprintf("status: %s, penalty %d, wall time %s\n%s",
		result.Status, result.Solution.Penalty, result.WallTime.Round(time.Millisecond), result.Solution)
	if *outPtr == "" {
		fmt.Print(report)
		return
	}
	if err := os.WriteFile(*outPtr, []byte(report), 0o644); err != nil {
		log.Exitf("cannot write output: %v", err)
	}
}
