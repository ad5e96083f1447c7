package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/plus3/ignite/ecs"
	"github.com/plus3/ignite/ecs/inspect"
	"github.com/plus3/ignite/internal/logging"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	nodeCount := flag.Int("nodes", 10000, "The initial number of nodes to create.")
	systemCount := flag.Int("systems", 50, "The number of randomly filtered systems.")
	churn := flag.Float64("churn", 0.01, "Share of nodes mutated per update.")
	seed := flag.Uint64("seed", 1, "Seed for node, filter and churn generation.")
	settingsPath := flag.String("settings", "", "Optional .toml or .yaml settings file.")
	profileMode := flag.String("profile", "", "Profile the run: cpu, mem or trace.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	inspectInterval := flag.Duration("inspect", 0, "Write an inspector report to stderr at this interval of simulated time.")
	flag.Parse()

	settings := ecs.DefaultSettings()
	if *settingsPath != "" {
		loaded, err := ecs.LoadSettings(*settingsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		settings = *loaded
	}

	logger, err := logging.New(settings.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if p := startProfile(*profileMode); p != nil {
		defer p.Stop()
	}

	logger.Info("starting ecs stress test",
		zap.Int("nodes", *nodeCount),
		zap.Int("systems", *systemCount),
		zap.Duration("duration", *duration),
	)

	// 1. Setup registry and world
	rng := rand.New(rand.NewPCG(*seed, *seed))
	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)

	systems := make([]ecs.System, 0, *systemCount+2)
	for range *systemCount {
		systems = append(systems, &FilterSystem{filters: randomFilters(rng)})
	}
	churnSystem := &ChurnSystem{rng: rng, rate: *churn, components: stressComponents}
	systems = append(systems, &MovementSystem{}, churnSystem)
	if *inspectInterval > 0 {
		systems = append(systems, inspect.New(os.Stderr,
			inspect.WithInterval(*inspectInterval),
			inspect.WithCellWidth(cellWidth(os.Stderr)),
			inspect.WithNodeBrowser(inspect.NodeBrowser{SortBy: inspect.ColumnCount, Descending: true, PageSize: 20}),
		))
	}

	world := ecs.NewWorld(registry, systems, ecs.WithLogger(logger), ecs.WithSettings(&settings))
	if _, err := world.SpawnNodes(settings.Nodes...); err != nil {
		logger.Fatal("spawn configured nodes", zap.Error(err))
	}

	// 2. Populate the world
	for range *nodeCount {
		SpawnRandomNode(world, rng, rng.IntN(5)+1)
	}
	logger.Info("population complete", zap.Int("contexts", world.Contexts()))

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Nodes:          *nodeCount,
		Components:     len(stressComponents),
		Systems:        len(systems),
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	world.Start()
	startTime := time.Now()
	timer := inspect.NewFrameTimer()
	var accumulator time.Duration

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := timer.Delta()

			updateStart := time.Now()
			accumulator = world.Tick(deltaTime.Seconds(), accumulator)
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Scheduler = world.Stats()
	report.Spawned = churnSystem.Spawned
	report.Destroyed = churnSystem.Destroyed
	report.Mutations = churnSystem.Mutations
	report.FinalNodes = world.NodeCount()
	runtime.ReadMemStats(&report.MemStatsEnd)
	world.Exit()

	logger.Info("simulation finished", zap.Int64("updates", report.TotalUpdates))

	// 4. Generate report to console
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("generate report", zap.Error(err))
	}
}

// cellWidth sizes inspector table cells to a quarter of the terminal, or a
// fixed width when f is not a terminal.
func cellWidth(f *os.File) int {
	const fallback = 40
	if !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 80 {
		return fallback
	}
	return width / 4
}

func startProfile(mode string) interface{ Stop() } {
	switch mode {
	case "":
		return nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	case "trace":
		return profile.Start(profile.TraceProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", mode)
	os.Exit(2)
	return nil
}
