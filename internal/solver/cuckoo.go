package solver

import (
	"time"

	"corepow/internal/compute/cuckoo"
	"corepow/internal/jobstate"
)

// RunCuckoo drives one Cuckoo solver worker until Stop. One call to
// SolverContext.Search is the work quantum (§4.2 step 7: "one graph
// search round, delegated to the native plugin"); every cycle the
// plugin returns is emitted, unlike RandomX's first-match-only rule
// (§4.2 tie-break: "Cuckoo emits each cycle returned by the plugin").
func RunCuckoo(w *Worker, shared *jobstate.JobSharedData, ctx *cuckoo.SolverContext, pluginName string) {
	var l lifecycle
	l.paused = true

	var iterations uint32
	var lastSolutionTime int64
	nextNonce := uint64(jobstate.NowMillis())

	for !l.stopped {
		w.pollControl(&l)
		if l.stopped {
			break
		}
		if l.paused {
			time.Sleep(pauseSleep)
			continue
		}

		job := shared.Job()
		nonce, header := jobstate.GetNextHeaderData(job.PreNonce, job.PostNonce, nextNonce)

		start := jobstate.NowMillis()
		found := ctx.Search(header, nonce)
		end := jobstate.NowMillis()
		nextNonce++
		iterations++

		// Validation window (§4.2 step 8): discard stale results.
		if shared.Height() == job.Height {
			edgeBits := ctx.EdgeBits()
			for _, sol := range found {
				lastSolutionTime = jobstate.NowMillis()
				shared.AppendSolution(jobstate.Solution{
					ID:    uint64(job.JobID),
					Nonce: nonce,
					Params: jobstate.AlgorithmParams{
						Kind:     jobstate.AlgorithmCuckoo,
						EdgeBits: edgeBits,
						Nonces:   sol.Nonces[:],
					},
				})
			}
			var stats jobstate.SolverStats
			stats.SetPluginName(pluginName)
			stats.EdgeBits = edgeBits
			stats.Iterations = iterations
			stats.LastStartTime = start
			stats.LastEndTime = end
			stats.LastSolutionTime = lastSolutionTime
			stats.HashesPerSec = hashesPerSec(1, start, end)
			shared.WriteStats(w.Instance, stats)
		}
	}
	w.signalStopped()
}
