package solver

import (
	"time"

	"corepow/internal/compute/progpow"
	"corepow/internal/jobstate"
)

// RunProgPow drives one ProgPow solver worker until Stop. One call to
// GPU.Compute covers progpow.WorkPerCall candidates; every result is
// CPU-reverified before it is ever appended to the shared solution
// buffer, matching §4.2 step 9's "ProgPow additionally CPU-verifies
// the GPU-reported nonce before emission."
func RunProgPow(w *Worker, shared *jobstate.JobSharedData, gpu *progpow.GPU, cpu *progpow.CPU) {
	var l lifecycle
	l.paused = true
	gpu.Init()

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
		header := progpow.Keccak256Prehash(append(append([]byte(nil), job.PreNonce...), job.PostNonce...))
		epochIndex := int32(job.Height / 30000)
		targetU64 := jobstate.TargetU64(job.Difficulty)

		start := jobstate.NowMillis()
		gpu.Compute(header, job.Height, epochIndex, targetU64, nextNonce)
		end := jobstate.NowMillis()
		nextNonce += progpow.WorkPerCall
		iterations += progpow.WorkPerCall

		// Validation window (§4.2 step 8): discard stale results.
		if shared.Height() == job.Height {
			if nonce, mix, ok := gpu.GetSolutions(); ok {
				digest, verifyOK := cpu.Verify(header, job.Height, epochIndex, nonce)
				if verifyOK && digest == mix && jobstate.MeetsBoundary(digest[:], job.Difficulty) {
					lastSolutionTime = jobstate.NowMillis()
					shared.AppendSolution(jobstate.Solution{
						ID:    uint64(job.JobID),
						Nonce: nonce,
						Params: jobstate.AlgorithmParams{
							Kind: jobstate.AlgorithmProgPow,
							Mix:  mix,
						},
					})
				}
			}
			var stats jobstate.SolverStats
			stats.SetPluginName("progpow")
			stats.DeviceID = uint32(gpu.DeviceID())
			stats.SetDeviceName(gpu.Driver())
			stats.Iterations = iterations
			stats.LastStartTime = start
			stats.LastEndTime = end
			stats.LastSolutionTime = lastSolutionTime
			stats.HashesPerSec = hashesPerSec(progpow.WorkPerCall, start, end)
			shared.WriteStats(w.Instance, stats)
		}
	}
	w.signalStopped()
}
