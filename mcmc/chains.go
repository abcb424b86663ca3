package mcmc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/pthm-cable/pinning/density"
	"github.com/pthm-cable/pinning/random"
)

// cancelCheckInterval is how many samples a chain draws between context checks.
const cancelCheckInterval = 256

// ChainSpec describes a batch of independent chains over one field.
type ChainSpec struct {
	Field   density.Field
	Options Options

	Chains int    // number of chains
	Seed   uint64 // chain i uses random.New(Seed + i)
	BurnIn int
	Count  int // samples per chain
	Skip   int

	// Workers bounds concurrency; 0 means GOMAXPROCS.
	Workers int
}

// ChainResult is the output of one chain.
type ChainResult struct {
	Chain    int
	Seed     uint64
	Points   []Point
	Counters Counters
}

// RunChains runs spec.Chains samplers concurrently. Results are ordered by
// chain index and depend only on the ChainSpec, not on scheduling.
func RunChains(ctx context.Context, spec ChainSpec) ([]ChainResult, error) {
	if spec.Chains < 1 {
		return nil, fmt.Errorf("%w: chains %d must be at least 1", ErrInvalidParameter, spec.Chains)
	}
	if spec.BurnIn < 0 || spec.Count < 0 || spec.Skip < 0 {
		return nil, fmt.Errorf("%w: negative burn-in, count or skip", ErrInvalidParameter)
	}

	// Validate once up front so every chain either runs or none do.
	samplers := make([]*Sampler, spec.Chains)
	for i := range samplers {
		s, err := New(spec.Field, random.New(spec.Seed+uint64(i)), spec.Options)
		if err != nil {
			return nil, err
		}
		samplers[i] = s
	}

	numWorkers := spec.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	numWorkers = min(numWorkers, spec.Chains)

	results := make([]ChainResult, spec.Chains)
	work := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = runChain(ctx, i, spec, samplers[i])
			}
		}()
	}

feed:
	for i := range samplers {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func runChain(ctx context.Context, i int, spec ChainSpec, s *Sampler) ChainResult {
	res := ChainResult{
		Chain:  i,
		Seed:   spec.Seed + uint64(i),
		Points: make([]Point, 0, spec.Count),
	}
	for p := range s.Sequence(spec.BurnIn, spec.Count, spec.Skip) {
		if len(res.Points)%cancelCheckInterval == 0 && ctx.Err() != nil {
			break
		}
		res.Points = append(res.Points, p)
	}
	res.Counters = s.Counters()
	return res
}
