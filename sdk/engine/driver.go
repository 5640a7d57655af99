package engine

import (
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/tkellan/vcgame/internal/eventlog"
)

// ErrUnknownAlgorithm is returned by Run when the algorithm id matches
// neither a known iterator nor Shapley. Unknown ids never default to BRD.
var ErrUnknownAlgorithm = fmt.Errorf("engine: unknown algorithm")

// RunOptions configures an otherwise-optional observer and checkpoint
// schedule for Run. The zero value disables both: no event log, no
// checkpointing.
type RunOptions struct {
	Sink eventlog.Sink

	// Clock drives checkpoint-interval timing. Defaults to the real clock;
	// tests inject a quartz.Mock so elapsed time is controlled by the test
	// rather than by wall-clock time.
	Clock quartz.Clock

	CheckpointPath  string
	CheckpointEvery time.Duration

	// StartIteration, StartStreak and StartLastRestart seed the driver's
	// bookkeeping from a loaded checkpoint. The zero values are the correct
	// starting point for a fresh run.
	StartIteration   int
	StartStreak      int
	StartLastRestart int
}

// Run is the simulation driver of §4.8: it repeatedly invokes the iterator
// selected by algorithm, tracking a no-change streak and — for the FP
// variants only — triggering a periodic restart every RestartInterval
// iterations without progress. Convergence is declared once the streak
// reaches StreakThreshold; Run then returns the converging iteration. If
// maxIterations is exhausted first, Run returns -1 — not an error, callers
// may inspect gs.Strategy() regardless.
func Run(gs *GameState, algorithm Algorithm, maxIterations int, opts RunOptions) (int, error) {
	sink := opts.Sink
	if sink == nil {
		sink = eventlog.Nop{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	switch algorithm {
	case BRD:
	case RM:
		if gs.aux != auxRegretMatching {
			return 0, fmt.Errorf("engine: RM requires InitRegretMatching state")
		}
	case FP, FPAsync:
		if gs.aux != auxFictitiousPlay {
			return 0, fmt.Errorf("engine: FP requires InitFictitiousPlay state")
		}
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, algorithm)
	}
	if maxIterations < 0 {
		return 0, fmt.Errorf("engine: max iterations must be >= 0, got %d", maxIterations)
	}

	streak := opts.StartStreak
	lastRestart := opts.StartLastRestart
	iteration := opts.StartIteration
	lastCheckpoint := clock.Now()

	for iteration < maxIterations {
		if (algorithm == FP || algorithm == FPAsync) && iteration-lastRestart >= RestartInterval {
			gs.ResetFictitiousPlay()
			lastRestart = iteration
			streak = 0
		}

		var changed bool
		switch algorithm {
		case BRD:
			changed = gs.StepBRD(sink, iteration)
		case RM:
			changed = gs.StepRegretMatching(sink, iteration)
		case FP:
			changed = gs.StepFictitiousPlay(sink, iteration)
		case FPAsync:
			changed = gs.StepFictitiousPlayAsync(sink, iteration)
		}

		if changed {
			streak = 0
		} else {
			streak++
		}

		if opts.CheckpointPath != "" && opts.CheckpointEvery > 0 && clock.Since(lastCheckpoint) >= opts.CheckpointEvery {
			// iteration has already been run, so a resume starts at the next one.
			if err := SaveCheckpoint(opts.CheckpointPath, gs, algorithm, iteration+1, streak, lastRestart); err != nil {
				return 0, err
			}
			lastCheckpoint = clock.Now()
		}

		if streak >= StreakThreshold {
			return iteration, nil
		}
		iteration++
	}

	return -1, nil
}
