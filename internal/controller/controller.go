// Package controller implements the Controller (§4.5): the top-level
// loop that consumes MinerMessage from the stratum client, drives a
// back-end Miner, reads stats on a timer, and emits ClientMessage.
//
// Grounded directly on the original's Controller::run (src/bin/mining.rs):
// the non-blocking inbound drain, the 2-second stat timer, the
// solution-drain-and-forward step, and the 100ms loop sleep, plus its
// output_cuckoo_job_stats / output_hashs_job_stats split.
package controller

import (
	"log"
	"time"

	"corepow/internal/config"
	"corepow/internal/errs"
	"corepow/internal/jobstate"
	"corepow/internal/miner"
)

// defaultStatOutputInterval is how often the Controller logs aggregate
// stats (§4.5 step 2) when the config does not set an interval.
const defaultStatOutputInterval = 2 * time.Second

// loopSleep is the Controller's per-iteration sleep (§4.5 step 4, §5
// suspension points).
const loopSleep = 100 * time.Millisecond

// MinerMessage is the Controller's inbound message type (§6.1).
type MinerMessage struct {
	Kind MinerMessageKind

	// ReceivedJob fields
	Height   uint64
	JobID    uint64
	Diff     uint64
	PrePow   string // hex

	// ReceivedSeed fields
	Epochs []SeedEntry
}

// SeedEntry is one (start, end, seed) triple delivered by ReceivedSeed.
type SeedEntry struct {
	StartHeight uint64
	EndHeight   uint64
	Seed        [32]byte
}

// MinerMessageKind tags a MinerMessage's variant.
type MinerMessageKind int

const (
	ReceivedJob MinerMessageKind = iota
	ReceivedSeed
	StopJob
	Shutdown
)

// ClientMessage is the Controller's outbound message type (§6.2).
type ClientMessage struct {
	Kind     ClientMessageKind
	Height   uint64
	Solution jobstate.Solution
}

type ClientMessageKind int

const (
	FoundSolution ClientMessageKind = iota
)

// Stats is the external stats record the Controller publishes into on
// every stat-output tick.
type Stats struct {
	CombinedRate     float64 // hashes/sec or graphs/sec, by algorithm family
	TargetDifficulty uint64
	BlockHeight      uint64
	NumSolutionsFound uint32
	DeviceStats      []jobstate.SolverStats
}

// Controller owns the inbound MinerMessage channel, the outbound
// ClientMessage channel (set once via SetClientTx), and the loop's
// own snapshot of the current job and aggregate stats.
type Controller struct {
	cfg     config.Config
	inbound chan MinerMessage
	clientTx chan<- ClientMessage

	statOutputInterval time.Duration

	currentHeight     uint64
	currentJobID      uint64
	currentTargetDiff uint64
	currentSeed       [32]byte

	stats Stats
}

// New constructs a Controller for the given configuration. The
// returned Controller's Run method drives miner, which the caller must
// have already started via StartSolvers.
func New(cfg config.Config) *Controller {
	interval := defaultStatOutputInterval
	if cfg.StatOutputIntervalSec > 0 {
		interval = time.Duration(cfg.StatOutputIntervalSec) * time.Second
	}
	return &Controller{
		cfg:                cfg,
		inbound:            make(chan MinerMessage, 64),
		statOutputInterval: interval,
	}
}

// Inbound returns the channel a stratum client sends MinerMessage on.
func (c *Controller) Inbound() chan<- MinerMessage { return c.inbound }

// SetClientTx installs the outbound channel FoundSolution messages are
// published on (§4.5: "set once via set_client_tx").
func (c *Controller) SetClientTx(tx chan<- ClientMessage) { c.clientTx = tx }

// Stats returns a copy of the last-published aggregate stats record.
// The read is not synchronized with Run, which writes the record from
// its own goroutine.
func (c *Controller) Stats() Stats { return c.stats }

// Run drives m until a Shutdown message is received, per §4.5's four
// numbered steps. It blocks the calling goroutine; callers typically
// run it in its own goroutine alongside a stratum client feeding
// Inbound().
func (c *Controller) Run(m miner.Miner) error {
	nextStatOutput := time.Now().Add(c.statOutputInterval)

	for {
		_, shuttingDown := c.drainInbound(m)
		if shuttingDown {
			return nil
		}

		if time.Now().After(nextStatOutput) {
			c.outputJobStats(m.GetStats())
			nextStatOutput = time.Now().Add(c.statOutputInterval)
		}

		if solutions := m.GetSolutions(); len(solutions) > 0 {
			for _, s := range solutions {
				if c.clientTx != nil {
					c.clientTx <- ClientMessage{Kind: FoundSolution, Height: c.currentHeight, Solution: s}
				}
			}
			c.stats.NumSolutionsFound += uint32(len(solutions))
		}

		time.Sleep(loopSleep)
	}
}

// drainInbound implements §4.5 step 1: a non-blocking drain of every
// pending inbound message, dispatching each to the Miner.
func (c *Controller) drainInbound(m miner.Miner) (count int, shuttingDown bool) {
	for {
		select {
		case msg := <-c.inbound:
			count++
			switch msg.Kind {
			case ReceivedJob:
				c.currentHeight = msg.Height
				c.currentJobID = msg.JobID
				c.currentTargetDiff = msg.Diff
				pre, post, err := jobstate.DecodeHeaderHex(msg.PrePow, "")
				if err != nil {
					log.Printf("controller: bad ReceivedJob hex, skipping: %v", err)
					continue
				}
				if err := m.Notify(uint32(msg.JobID), msg.Height, pre, post, msg.Diff, c.currentSeed); err != nil {
					if errs.IsFatal(err) {
						log.Printf("controller: fatal error from notify, shutting down: %v", err)
						m.StopSolvers()
						m.WaitForSolverShutdown()
						return count, true
					}
					log.Printf("controller: notify error: %v", err)
				}
			case ReceivedSeed:
				for _, e := range msg.Epochs {
					m.AddEpoch(e.StartHeight, e.EndHeight, e.Seed)
				}
			case StopJob:
				m.PauseSolvers()
			case Shutdown:
				m.StopSolvers()
				m.WaitForSolverShutdown()
				return count, true
			}
		default:
			return count, false
		}
	}
}
