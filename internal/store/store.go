// Package store persists local mining bookkeeping — submitted solution
// reports (for dedup across restarts) and the epoch seed history — in
// an embedded badger database, adapted from the teacher's
// core/badgerstore.go block store to this domain's key layout.
package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"corepow/internal/solution"
)

// seedKeyPrefix is the shared prefix every seed: key starts with, used
// by ListSeeds to iterate just that keyspace.
var seedKeyPrefix = []byte("seed:")

// Store wraps a badger.DB with the key layout this module needs:
// "solution:<job_id>" for dedup and "seed:<start_height>" for epoch
// history, mirroring the teacher's "block:<height>"/"chain:tip" scheme.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database rooted at
// dataDir/badger, matching OpenBadgerStore's path layout.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "badger")
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func solutionKey(jobID uint64) []byte {
	return []byte("solution:" + strconv.FormatUint(jobID, 10))
}

func seedKey(startHeight uint64) []byte {
	return []byte("seed:" + strconv.FormatUint(startHeight, 10))
}

// PutSolution records a signed solution report, keyed by job ID so a
// restarted miner can tell whether it already submitted for this job.
func (s *Store) PutSolution(r *solution.Report) error {
	val, err := r.Encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(solutionKey(r.JobID), val)
	})
}

// HasSolution reports whether a solution was already recorded for jobID.
func (s *Store) HasSolution(jobID uint64) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(solutionKey(jobID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// GetSolution retrieves a previously recorded solution report.
func (s *Store) GetSolution(jobID uint64) (*solution.Report, error) {
	var r *solution.Report
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(solutionKey(jobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := solution.Decode(val)
			if err != nil {
				return err
			}
			r = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SeedRecord is the on-disk shape of an epoch's seed-history entry.
type SeedRecord struct {
	StartHeight uint64   `json:"start_height"`
	EndHeight   uint64   `json:"end_height"`
	Seed        [32]byte `json:"seed"`
}

// PutSeed records an epoch's height range and seed for later audit —
// the persisted counterpart of epoch.Manager's in-memory epochs slice.
func (s *Store) PutSeed(startHeight, endHeight uint64, seed [32]byte) error {
	val, err := json.Marshal(SeedRecord{StartHeight: startHeight, EndHeight: endHeight, Seed: seed})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seedKey(startHeight), val)
	})
}

// GetSeed retrieves a previously recorded epoch seed by its start height.
func (s *Store) GetSeed(startHeight uint64) (endHeight uint64, seed [32]byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(seedKey(startHeight))
		if getErr != nil {
			return getErr
		}
		return item.Value(func(val []byte) error {
			var rec SeedRecord
			if unmarshalErr := json.Unmarshal(val, &rec); unmarshalErr != nil {
				return unmarshalErr
			}
			endHeight = rec.EndHeight
			seed = rec.Seed
			return nil
		})
	})
	return endHeight, seed, err
}

// ListSeeds returns every persisted epoch seed record, so a restarted
// process can rehydrate epoch.Manager's in-memory sequence at startup
// instead of waiting to be re-taught each epoch by a fresh ReceivedSeed
// message.
func (s *Store) ListSeeds() ([]SeedRecord, error) {
	var out []SeedRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = seedKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(seedKeyPrefix); it.ValidForPrefix(seedKeyPrefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec SeedRecord
				if unmarshalErr := json.Unmarshal(val, &rec); unmarshalErr != nil {
					return unmarshalErr
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// PruneSolutions deletes recorded solutions for jobs older than the
// given job ID watermark, the same keep-a-window idea as
// core.BadgerStore's PruneBlocks but keyed on job ID rather than height.
func (s *Store) PruneSolutions(keepN, latestJobID uint64) error {
	minKeep := uint64(0)
	if latestJobID >= keepN {
		minKeep = latestJobID - keepN + 1
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for id := uint64(0); id < minKeep; id++ {
			if err := txn.Delete(solutionKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
