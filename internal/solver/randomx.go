package solver

import (
	"time"

	"corepow/internal/compute/randomx"
	"corepow/internal/epoch"
	"corepow/internal/jobstate"
)

// maxHashesPerQuantum is the RandomX work quantum size (§4.2 step 7).
const maxHashesPerQuantum = 100

// RunRandomX drives one RandomX solver worker until Stop, per §4.2's
// ten-step inner loop. It acquires a VM lazily the first time a
// dataset is ready, matching §4.4's "start_solvers does NOT eagerly
// initialize the dataset" contract.
func RunRandomX(w *Worker, shared *jobstate.JobSharedData, rx *randomx.State, epochs *epoch.Manager) {
	var l lifecycle
	l.paused = true

	var vm *randomx.VM
	var iterations uint32
	var lastSolutionTime int64

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

		if vm == nil {
			if !rx.IsInitialized() {
				time.Sleep(pauseSleep)
				continue
			}
			var err error
			vm, err = rx.CreateVM()
			if err != nil {
				time.Sleep(pauseSleep)
				continue
			}
		}
		if !epochs.RunningCovers(job.Height) {
			time.Sleep(pauseSleep)
			continue
		}

		nonce, header := jobstate.GetNextHeaderData(job.PreNonce, job.PostNonce, uint64(jobstate.NowMillis()))

		start := jobstate.NowMillis()
		var found *jobstate.Solution
		for i := uint64(0); i < maxHashesPerQuantum; i++ {
			trialNonce := nonce + i
			jobstate.SetNonce(header, len(job.PreNonce), trialNonce)
			hash := randomx.Calculate(vm, header, trialNonce)
			if found == nil && jobstate.MeetsBoundary(hash[:], job.Difficulty) {
				found = &jobstate.Solution{
					ID:    uint64(job.JobID),
					Nonce: trialNonce,
					Params: jobstate.AlgorithmParams{
						Kind: jobstate.AlgorithmRandomX,
						Hash: hash,
					},
				}
				break // only the first solution per batch is surfaced (§4.2 tie-break)
			}
		}
		end := jobstate.NowMillis()
		iterations += maxHashesPerQuantum

		// Validation window (§4.2 step 8): discard stale results.
		if shared.Height() == job.Height {
			if found != nil {
				lastSolutionTime = jobstate.NowMillis()
				shared.AppendSolution(*found)
			}
			var stats jobstate.SolverStats
			stats.SetPluginName("randomx")
			stats.SetDeviceName("cpu")
			stats.Iterations = iterations
			stats.LastStartTime = start
			stats.LastEndTime = end
			stats.LastSolutionTime = lastSolutionTime
			stats.HashesPerSec = hashesPerSec(maxHashesPerQuantum, start, end)
			shared.WriteStats(w.Instance, stats)
		}
	}
	w.signalStopped()
}
