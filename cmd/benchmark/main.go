// Benchmark solves every instance in a directory under several solver
// configurations and writes one CSV row per run.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/golang/glog"

	"github.com/swinghop/scheduler/internal/ingest"
	"github.com/swinghop/scheduler/internal/model"
	"github.com/swinghop/scheduler/internal/solver"
)

type runResult struct {
	Instance string
	Workers  int
	Timeout  time.Duration
	Status   string
	Penalty  int64
	WallTime time.Duration
}

var csvHeader = []string{"Instance", "Workers", "Timeout", "Status", "Penalty", "WallTime(ms)"}

func record(r runResult) []string {
	return []string{
		r.Instance,
		fmt.Sprintf("%d", r.Workers),
		r.Timeout.String(),
		r.Status,
		fmt.Sprintf("%d", r.Penalty),
		fmt.Sprintf("%d", r.WallTime.Milliseconds()),
	}
}

func main() {
	dirPtr := flag.String("dir", "", "Directory of instance files to benchmark")
	outPtr := flag.String("out", "benchmark_results.csv", "Path of the results CSV")
	timeoutPtr := flag.Duration("timeout", time.Minute, "Per-run solve time limit")
	flag.Parse()
	defer log.Flush()

	if *dirPtr == "" {
		log.Exitf("a directory of instances must be specified")
	}
	paths, err := filepath.Glob(filepath.Join(*dirPtr, "*.json"))
	if err != nil || len(paths) == 0 {
		log.Exitf("no instances under %q", *dirPtr)
	}

	var results []runResult
	for _, path := range paths {
		for _, workers := range []int{1, 4, 8} {
			fmt.Printf("benchmarking %q with %d workers\n", path, workers)
			results = append(results, run(path, workers, *timeoutPtr))
		}
	}

	file, err := os.Create(*outPtr)
	if err != nil {
		log.Exitf("cannot create results file: %v", err)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	defer writer.Flush()
	if err := writer.Write(csvHeader); err != nil {
		log.Exitf("cannot write results: %v", err)
	}
	for _, r := range results {
		if err := writer.Write(record(r)); err != nil {
			log.Exitf("cannot write results: %v", err)
		}
	}
}

func run(path string, workers int, timeout time.Duration) runResult {
	out := runResult{Instance: path, Workers: workers, Timeout: timeout}
	inst, err := ingest.LoadInstance(path)
	if err != nil {
		log.Exitf("cannot load %q: %v", path, err)
	}
	m, err := model.Build(inst)
	if err != nil {
		log.Exitf("cannot build model for %q: %v", path, err)
	}
	result, err := solver.Solve(context.Background(), m, solver.Options{
		TimeLimit: timeout,
		Workers:   workers,
	})
	switch {
	case errors.Is(err, solver.ErrInfeasible), errors.Is(err, solver.ErrUnknown):
		out.Status = result.Status.String()
		out.WallTime = result.WallTime
	case err != nil:
		log.Exitf("solving %q: %v", path, err)
	default:
		out.Status = result.Status.String()
		out.Penalty = result.Solution.Penalty
		out.WallTime = result.WallTime
	}
	return out
}
