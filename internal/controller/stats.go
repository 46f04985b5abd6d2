package controller

import (
	"log"
	"math"

	"corepow/internal/config"
	"corepow/internal/jobstate"
)

// outputJobStats dispatches to the cuckoo or hashing-family stat
// formatter by configured algorithm (§4.5 step 2, original's
// output_job_stats dispatching on self._config.algorithm).
func (c *Controller) outputJobStats(stats []jobstate.SolverStats) {
	if c.cfg.Algorithm == config.AlgorithmCuckoo {
		c.outputCuckooJobStats(stats)
		return
	}
	c.outputHashJobStats(stats)
}

// outputCuckooJobStats aggregates graphs/sec as Σ(1/last_solution_time_sec)
// over non-errored devices, matching output_cuckoo_job_stats.
func (c *Controller) outputCuckooJobStats(stats []jobstate.SolverStats) {
	var gpsTotal float64
	for i, s := range stats {
		if s.HasErrored {
			log.Printf("mining: device %d (%s) errored: %s", i, s.DeviceName(), s.ErrorReason())
			continue
		}
		if s.LastSolutionTime <= 0 {
			continue
		}
		lastSolutionTimeSecs := float64(s.LastSolutionTime) / 1000.0
		gps := 1.0 / lastSolutionTimeSecs
		if math.IsNaN(gps) || math.IsInf(gps, 0) {
			continue
		}
		gpsTotal += gps
		log.Printf("mining: plugin %s device %d edge_bits %d: %.3f graphs/sec, %d attempts",
			s.PluginName(), s.DeviceID, s.EdgeBits, gps, s.Iterations)
	}
	log.Printf("mining: cuckoo at %.3f gps (graphs per second)", gpsTotal)

	c.stats.CombinedRate = gpsTotal
	c.stats.TargetDifficulty = c.currentTargetDiff
	c.stats.BlockHeight = c.currentHeight
	c.stats.DeviceStats = append([]jobstate.SolverStats(nil), stats...)
}

// outputHashJobStats aggregates hashes/sec as a straight sum,
// matching output_hashs_job_stats.
func (c *Controller) outputHashJobStats(stats []jobstate.SolverStats) {
	var hps uint64
	for _, s := range stats {
		hps += s.HashesPerSec
	}
	log.Printf("mining: %s at %d hps (hashes per second)", c.cfg.Algorithm, hps)

	c.stats.CombinedRate = float64(hps)
	c.stats.TargetDifficulty = c.currentTargetDiff
	c.stats.BlockHeight = c.currentHeight
	c.stats.DeviceStats = append([]jobstate.SolverStats(nil), stats...)
}
