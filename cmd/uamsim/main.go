// cmd/uamsim/main.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// loads a scenario, runs it for the requested number of ticks and then
// prints a summary of what happened.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uamsim/uamsim/das"
	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/nav"
	"github.com/uamsim/uamsim/record"
	"github.com/uamsim/uamsim/sim"
	"github.com/uamsim/uamsim/util"

	"github.com/goforj/godump"
)

var (
	scenarioFilename = flag.String("scenario", "", "filename of JSON file with a scenario definition")
	geojsonFilename  = flag.String("geojson", "", "filename of GeoJSON file with additional vertiports and obstacles")
	steps            = flag.Int("steps", 0, "number of ticks to run (default: the scenario's, or 3600)")
	seed             = flag.Int64("seed", 0, "random seed; overrides the scenario's if non-zero")
	controller       = flag.String("controller", "", "avoidance controller: rule or zero (default: the scenario's)")
	recordFilename   = flag.String("record", "", "write a zstd-compressed recording of every tick to this file")
	replayFilename   = flag.String("replay", "", "summarize a recording written with -record and exit")
	dump             = flag.Bool("dump", false, "dump the final aircraft state")
	lintScenario     = flag.Bool("lint", false, "check the validity of the scenario and exit")
	cpuprofile       = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile       = flag.String("memprofile", "", "write memory profile to this file")
	logLevel         = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir           = flag.String("logdir", "", "log file directory")
	navLog           = flag.Bool("navlog", false, "enable flight model logging (requires the navlog build tag)")
	navLogCategories = flag.String("navlog-categories", "all", "flight model log categories (comma-separated: position,speed,heading,avoid)")
	navLogCallsign   = flag.String("navlog-callsign", "", "filter flight model logs to only show this callsign (empty = show all)")
)

const defaultSteps = 3600

func main() {
	flag.Parse()

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	if *replayFilename != "" {
		if err := summarizeRecording(*replayFilename); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *replayFilename, err)
			os.Exit(1)
		}
		return
	}

	if *scenarioFilename == "" {
		fmt.Fprintln(os.Stderr, "uamsim: -scenario must be specified")
		flag.Usage()
		os.Exit(2)
	}

	sc := loadScenario(lg)
	if *lintScenario {
		fmt.Printf("%s: ok, %d vertiports, %d flights, %d obstacles\n", *scenarioFilename,
			sc.Locations().Len(), len(sc.Flights), len(sc.Obstacles()))
		return
	}

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	nav.InitNavLog(*navLog, *navLogCategories, *navLogCallsign)

	if *seed != 0 {
		sc.Seed = *seed
	}
	n := *steps
	if n == 0 {
		n = sc.Steps
	}
	if n == 0 {
		n = defaultSteps
	}

	var rec *record.Recorder
	if *recordFilename != "" {
		ctrl := *controller
		if ctrl == "" {
			ctrl = sc.Controller
		}
		if ctrl == "" {
			ctrl = das.DefaultController
		}
		rec, err = record.Create(*recordFilename, record.Header{Seed: sc.Seed, Controller: ctrl, DT: sc.DT}, lg)
		if err != nil {
			lg.Errorf("%v", err)
			os.Exit(1)
		}
	}

	s, err := sc.NewSim(*controller, rec, lg)
	if err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running %s: %d aircraft, %s avoidance, seed %d\n", *scenarioFilename, len(s.Aircraft),
		s.Controller.Name(), sc.Seed)

	var st Stats
	sub := s.Subscribe()
	startTime := time.Now()

	ticks, runErr := runSim(ctx, s, n, func() { st.Add(sub.Get()) })

	elapsed := time.Since(startTime)
	st.Add(sub.Get())

	if err := rec.Close(); err != nil {
		lg.Errorf("%s: %v", *recordFilename, err)
	}

	fmt.Printf("Simulation complete: %d ticks in %.2f seconds (%.1f ticks/s)\n", ticks, elapsed.Seconds(),
		float64(ticks)/elapsed.Seconds())
	st.Print(os.Stdout)

	if *dump {
		godump.Dump(s.Snapshot())
	}

	if runErr != nil {
		lg.Errorf("%v", runErr)
		profiler.Cleanup()
		os.Exit(1)
	}
}

func loadScenario(lg *log.Logger) *sim.Scenario {
	var e util.ErrorLogger

	data, err := os.ReadFile(*scenarioFilename)
	if err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}

	e.Push(*scenarioFilename)
	sc := sim.LoadScenario(data, &e)
	e.Pop()

	if sc != nil && *geojsonFilename != "" {
		if gj, err := os.ReadFile(*geojsonFilename); err != nil {
			e.Error(err)
		} else {
			e.Push(*geojsonFilename)
			sc.AddGeoJSON(gj, &e)
			e.Pop()
		}
	}

	if sc != nil {
		e.Push(*scenarioFilename)
		sc.Validate(&e)
		e.Pop()
	}

	if e.HaveErrors() {
		e.PrintErrors(nil)
		os.Exit(1)
	}
	return sc
}

// runSim runs the simulation for n ticks in chunks, calling drain after
// each so the event stream doesn't grow without bound.
func runSim(ctx context.Context, s *sim.Sim, n int, drain func()) (int, error) {
	const chunk = 100

	total := 0
	for total < n {
		want := min(chunk, n-total)
		k, err := s.Run(ctx, want)
		total += k
		drain()
		if err != nil {
			return total, err
		}
		if k < want {
			// Everyone arrived.
			break
		}
	}
	return total, nil
}

func summarizeRecording(path string) error {
	r, err := record.Load(path)
	if err != nil {
		return err
	}

	h := r.Header
	fmt.Printf("Run %s recorded %s: seed %d, %s avoidance, dt %g\n", h.RunID, h.Created.Format(time.RFC3339),
		h.Seed, h.Controller, h.DT)

	var st Stats
	st.AddRecording(r)
	st.Print(os.Stdout)
	return nil
}
