package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tkellan/vcgame/internal/auction"
	"github.com/tkellan/vcgame/internal/eventlog"
	"github.com/tkellan/vcgame/internal/graphgen"
	"github.com/tkellan/vcgame/internal/graphio"
	"github.com/tkellan/vcgame/internal/market"
	"github.com/tkellan/vcgame/internal/simconfig"
	"github.com/tkellan/vcgame/sdk/engine"
)

var cli struct {
	Debug  bool   `help:"enable debug logging"`
	Config string `short:"C" long:"config" help:"path to an HCL run configuration file"`

	N              int    `short:"n" help:"number of nodes" default:"10000"`
	K              int    `short:"k" help:"degree/param (regular: degree, erdos: avg degree, barabasi: m)" default:"4"`
	Generator      string `short:"t" long:"generator" help:"graph generator (regular|erdos|barabasi)" default:"regular"`
	MaxIterations  int    `short:"i" long:"iterations" help:"maximum number of dynamics iterations" default:"100000"`
	Algorithm      string `short:"a" help:"algorithm to use (brd|rm|fp|fp-async|shapley)" default:"fp"`
	ShapleyVersion int    `short:"v" long:"shapley-version" help:"characteristic function version for shapley (1, 2 or 3)" default:"1"`
	Capacity       string `short:"c" help:"matching market capacity mode (infinite|limited|both)" default:"both"`
	GraphFile      string `short:"f" long:"graph-file" help:"path to load/save the graph's binary encoding"`
	EventLogFile   string `short:"l" long:"event-log" help:"path to write the line-delimited JSON event log"`
	Seed           int64  `short:"s" help:"random seed" default:"1"`

	CheckpointPath  string        `help:"path to write periodic checkpoints"`
	CheckpointEvery time.Duration `help:"checkpoint interval (0 disables)" default:"0"`
	ResultPath      string        `long:"result" help:"path to write the final cover as a JSON result file"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("vcgame"),
		kong.Description("network security vertex-cover game simulator"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func run() error {
	cfg, err := resolveConfig()
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rng := engine.NewFastRand(cfg.Seed)

	g, err := loadOrGenerateGraph(cfg, rng)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	log.Info().Int("nodes", g.N()).Int("edges", g.M()).Str("generator", string(cfg.Generator)).Msg("graph ready")

	sink, closeSink, err := openEventLog(cfg.EventLogFile)
	if err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	defer closeSink()

	start := time.Now()
	strategy, iteration, gs, algorithm, err := solve(cfg, g, rng, sink)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	log.Info().Dur("duration", time.Since(start)).Msg("simulation finished")

	reportCover(g, strategy, iteration)

	if cli.ResultPath != "" {
		if gs != nil {
			if err := engine.NewResult(gs, algorithm, iteration, time.Now()).Save(cli.ResultPath); err != nil {
				log.Warn().Err(err).Msg("failed to save result file")
			}
		} else {
			log.Warn().Msg("result file not written: shapley runs have no game-state snapshot to save")
		}
	}

	if cfg.Capacity == simconfig.CapacityInfinite || cfg.Capacity == simconfig.CapacityBoth {
		runMatching(strategy, market.Infinite, rng, sink)
	}
	if cfg.Capacity == simconfig.CapacityLimited || cfg.Capacity == simconfig.CapacityBoth {
		runMatching(strategy, market.Limited, rng, sink)
	}

	runAuction(g, strategy, rng, sink)

	return nil
}

// resolveConfig builds the run configuration, preferring an HCL file when
// --config names one and falling back to the CLI flags laid over the
// reference defaults otherwise.
func resolveConfig() (simconfig.RunConfig, error) {
	if cli.Config != "" {
		return simconfig.Load(cli.Config)
	}
	return simconfig.RunConfig{
		N:              cli.N,
		K:              cli.K,
		Generator:      simconfig.GeneratorKind(cli.Generator),
		Algorithm:      cli.Algorithm,
		ShapleyVersion: cli.ShapleyVersion,
		MaxIterations:  cli.MaxIterations,
		Capacity:       simconfig.CapacityMode(cli.Capacity),
		GraphFile:      cli.GraphFile,
		EventLogFile:   cli.EventLogFile,
		Seed:           cli.Seed,
	}, nil
}

func loadOrGenerateGraph(cfg simconfig.RunConfig, rng *rand.Rand) (*engine.Graph, error) {
	if cfg.GraphFile != "" {
		if g, err := graphio.LoadBinary(cfg.GraphFile); err == nil {
			log.Info().Str("path", cfg.GraphFile).Msg("loaded graph from file")
			return g, nil
		}
	}

	var g *engine.Graph
	var err error
	switch cfg.Generator {
	case simconfig.GeneratorErdos:
		p := float64(cfg.K) / float64(cfg.N-1)
		log.Info().Float64("p", p).Msg("erdos-renyi parameter derived from average degree")
		g, err = graphgen.ErdosRenyi(cfg.N, p, rng)
	case simconfig.GeneratorBarabasi:
		g, err = graphgen.BarabasiAlbert(cfg.N, cfg.K, rng)
	default:
		g, err = graphgen.RandomRegular(cfg.N, cfg.K, rng)
	}
	if err != nil {
		return nil, err
	}

	if cfg.GraphFile != "" {
		if err := graphio.SaveBinary(cfg.GraphFile, g); err != nil {
			log.Warn().Err(err).Str("path", cfg.GraphFile).Msg("failed to persist generated graph")
		}
	}
	return g, nil
}

func openEventLog(path string) (eventlog.Sink, func(), error) {
	if path == "" {
		return eventlog.Nop{}, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := eventlog.NewWriter(f)
	return w, func() {
		if err := w.Flush(); err != nil {
			log.Warn().Err(err).Msg("failed to flush event log")
		}
		f.Close()
	}, nil
}

// solve dispatches to the coalitional (Shapley) or strategic-game iterator
// named by cfg.Algorithm and returns the resulting strategy vector along
// with the iteration the strategic iterators converged at (-1 for Shapley,
// which has no convergence notion of its own).
func solve(cfg simconfig.RunConfig, g *engine.Graph, rng *rand.Rand, sink eventlog.Sink) ([]int, int, *engine.GameState, engine.Algorithm, error) {
	if cfg.Algorithm == "shapley" {
		values, err := engine.ApproximateShapley(context.Background(), g, cfg.MaxIterations, engine.CharacteristicVersion(cfg.ShapleyVersion), cfg.Seed)
		if err != nil {
			return nil, 0, nil, 0, err
		}
		cover := engine.BuildCoverFromShapley(g, values)
		reportTopShapley(values)
		return engine.StrategyFromCover(g.N(), cover), -1, nil, engine.Shapley, nil
	}

	algorithm, err := parseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, 0, nil, 0, err
	}

	gs := engine.NewGameState(g, rng, cfg.Seed)
	switch algorithm {
	case engine.RM:
		gs.InitRegretMatching()
	case engine.FP, engine.FPAsync:
		gs.InitFictitiousPlay()
	}

	var startIteration, startStreak, startLastRestart int
	if cli.CheckpointPath != "" {
		if resumed, resumedAlgo, resumedIteration, resumedStreak, resumedLastRestart, err := engine.LoadCheckpoint(cli.CheckpointPath, g); err == nil {
			log.Info().Int("iteration", resumedIteration).Str("algorithm", resumedAlgo.String()).Msg("resuming from checkpoint")
			gs = resumed
			algorithm = resumedAlgo
			startIteration, startStreak, startLastRestart = resumedIteration, resumedStreak, resumedLastRestart
		} else if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", cli.CheckpointPath).Msg("ignoring unreadable checkpoint; starting fresh")
		}
	}

	iteration, err := engine.Run(gs, algorithm, cfg.MaxIterations, engine.RunOptions{
		Sink:             sink,
		CheckpointPath:   cli.CheckpointPath,
		CheckpointEvery:  cli.CheckpointEvery,
		StartIteration:   startIteration,
		StartStreak:      startStreak,
		StartLastRestart: startLastRestart,
	})
	if err != nil {
		return nil, 0, nil, 0, err
	}
	return gs.Strategy(), iteration, gs, algorithm, nil
}

func parseAlgorithm(name string) (engine.Algorithm, error) {
	switch name {
	case "brd":
		return engine.BRD, nil
	case "rm":
		return engine.RM, nil
	case "fp":
		return engine.FP, nil
	case "fp-async":
		return engine.FPAsync, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", name)
	}
}

func reportCover(g *engine.Graph, strategy []int, iteration int) {
	active := 0
	for _, s := range strategy {
		if s == 1 {
			active++
		}
	}
	valid := engine.IsValidCover(g, strategy)
	minimal := engine.IsMinimal(g, strategy)

	ev := log.Info().
		Int("cover_size", active).
		Int("nodes", g.N()).
		Float64("cover_pct", float64(active)/float64(g.N())*100).
		Bool("valid_cover", valid).
		Bool("minimal", minimal)
	if iteration >= 0 {
		ev.Int("converged_at", iteration).Msg("simulation converged")
	} else {
		ev.Msg("simulation result")
	}
}

func reportTopShapley(values []float64) {
	type ranked struct {
		id    int
		value float64
	}
	rs := make([]ranked, len(values))
	for i, v := range values {
		rs[i] = ranked{i, v}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].value > rs[j].value })

	n := 10
	if len(rs) < n {
		n = len(rs)
	}
	for i := 0; i < n; i++ {
		log.Debug().Int("rank", i+1).Int("node", rs[i].id).Float64("shapley_value", rs[i].value).Msg("top shapley node")
	}
}

func runMatching(strategy []int, mode market.Mode, rng *rand.Rand, sink eventlog.Sink) {
	cover := coverFromStrategy(strategy)
	result := market.Run(cover, mode, rng, sink)
	log.Info().
		Str("mode", string(mode)).
		Int("buyers", len(result.Buyers)).
		Int("vendors", len(result.Vendors)).
		Int("matches", len(result.Matches)).
		Float64("welfare", result.Welfare).
		Bool("constraints_satisfied", market.VerifyConstraints(result)).
		Msg("matching market settled")
}

func runAuction(g *engine.Graph, strategy []int, rng *rand.Rand, sink eventlog.Sink) {
	result, ok := auction.Run(g, strategy, rng, sink)
	if !ok {
		log.Info().Msg("auction skipped: no eligible source/target pair")
		return
	}
	log.Info().
		Int("source", result.Source).
		Int("target", result.Target).
		Float64("cost", result.Cost).
		Int("hops", len(result.Path)).
		Msg("vcg auction settled")

	for _, trial := range auction.VerifyTruthfulness(g, strategy, result) {
		if trial.Profitable {
			log.Warn().Int("fake_bid", trial.FakeBid).Float64("new_utility", trial.NewUtility).Msg("truthfulness check found a profitable lie")
		}
	}
}

func coverFromStrategy(strategy []int) []int {
	var cover []int
	for i, s := range strategy {
		if s == 1 {
			cover = append(cover, i)
		}
	}
	return cover
}
