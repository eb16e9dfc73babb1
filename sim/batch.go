// batch.go
//
// Runs a configured batch of chains, sequentially or across a bounded worker
// pool. Per-chain seeds derive from the master key before any chain runs, so
// a batch is reproducible for a given seed no matter how many workers it uses.

package sim

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chainsim/chainsim/sim/chain"
)

// Run simulates the configured batch and returns one result per chain,
// ordered by chain id. The context cancels outstanding work between chains;
// a failed chain aborts the whole batch rather than returning partial output.
func (s *Simulator) Run(ctx context.Context) (*chain.ResultSet, error) {
	prng := NewPartitionedRNG(NewSimulationKey(s.cfg.Seed))
	seeds := make([]int64, s.cfg.Chains)
	for i := range seeds {
		seeds[i] = prng.ChainSeed(i)
	}

	logrus.Debugf("simulating %d chains: offspring=%s stat=%s workers=%d",
		s.cfg.Chains, s.cfg.Offspring, s.cfg.Stat, s.cfg.Workers)

	results := make([]chain.Result, s.cfg.Chains)
	var err error
	if s.cfg.Workers > 1 {
		err = s.runParallel(ctx, seeds, results)
	} else {
		err = s.runSequential(ctx, seeds, results)
	}
	if err != nil {
		return nil, err
	}

	rs := &chain.ResultSet{Stat: s.cfg.Stat, Results: results}
	logrus.Debugf("batch complete: %d chains, %d truncated", rs.CountChains(), rs.CountTruncated())
	return rs, nil
}

func (s *Simulator) runSequential(ctx context.Context, seeds []int64, results []chain.Result) error {
	for i := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := s.simulateChain(i, rand.New(rand.NewSource(seeds[i])))
		if err != nil {
			return err
		}
		results[i] = r
	}
	return nil
}

func (s *Simulator) runParallel(ctx context.Context, seeds []int64, results []chain.Result) error {
	workers := s.cfg.Workers
	if workers > len(results) {
		workers = len(results)
	}

	idx := make(chan int)
	quit := make(chan struct{})
	var once sync.Once
	var firstErr error
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			close(quit)
		})
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				r, err := s.simulateChain(i, rand.New(rand.NewSource(seeds[i])))
				if err != nil {
					fail(err)
					return
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range results {
		select {
		case idx <- i:
		case <-quit:
			break feed
		case <-ctx.Done():
			fail(ctx.Err())
			break feed
		}
	}
	close(idx)
	wg.Wait()
	return firstErr
}
