// Package collector implements functionality for driving policies
// through environments and recording the resulting transitions in
// replay buffers.
package collector

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/gorl/agent"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/replay"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// Stats summarizes a single collection run
type Stats struct {
	Steps    int // Transitions collected
	Episodes int // Episodes finished during collection

	// Statistics over the episodes finished during collection
	MeanReturn        float64
	StdReturn         float64
	MeanEpisodeLength float64
	StdEpisodeLength  float64
}

// transition is a single environmental transition tagged with the
// environment it came from
type transition struct {
	envID  int
	step   ts.TimeStep
	action *mat.VecDense
	next   ts.TimeStep
}

// Collector drives a policy through one or more environments in
// parallel, recording all transitions in a replay.VectorBuffer.
// Transitions of environment i are stored in sub-buffer i of the
// vector buffer.
//
// Each environment is stepped by its own goroutine. The policy is
// shared between the goroutines and guarded by a mutex, so policies
// need not be safe for concurrent use.
type Collector struct {
	policy agent.Policy
	envs   []env.Environment
	buffer *replay.VectorBuffer

	mu sync.Mutex // guards policy

	// Per-environment state between collection runs
	current       []ts.TimeStep
	episodeReturn []float64
	episodeLength []int
}

// New returns a new Collector which drives policy through the
// argument environments. The number of environments must match the
// number of sub-buffers of the argument vector buffer.
func New(policy agent.Policy, envs []env.Environment,
	buffer *replay.VectorBuffer) (*Collector, error) {
	if len(envs) == 0 {
		return nil, fmt.Errorf("newCollector: at least one environment " +
			"is required")
	}
	if buffer.NumEnvs() != len(envs) {
		return nil, fmt.Errorf("newCollector: buffer stores %v "+
			"environments but %v were given", buffer.NumEnvs(), len(envs))
	}

	c := &Collector{
		policy:        policy,
		envs:          envs,
		buffer:        buffer,
		current:       make([]ts.TimeStep, len(envs)),
		episodeReturn: make([]float64, len(envs)),
		episodeLength: make([]int, len(envs)),
	}
	for i, e := range envs {
		c.current[i] = e.Reset()
	}
	return c, nil
}

// Buffer returns the buffer that the Collector stores transitions in
func (c *Collector) Buffer() *replay.VectorBuffer {
	return c.buffer
}

// Reset resets all environments and clears the per-episode
// accumulators
func (c *Collector) Reset() {
	for i, e := range c.envs {
		c.current[i] = e.Reset()
		c.episodeReturn[i] = 0
		c.episodeLength[i] = 0
	}
}

// Collect steps every environment nStep times, storing all
// transitions in the Collector's buffer. Episodes ending during
// collection are restarted. The returned Stats summarize the
// collected data; episodic statistics cover only episodes which
// finished during this call.
func (c *Collector) Collect(nStep int) (Stats, error) {
	results := make(chan transition, len(c.envs))
	var wg sync.WaitGroup

	for id := range c.envs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e := c.envs[id]
			cur := c.current[id]

			for i := 0; i < nStep; i++ {
				cur = c.step(id, e, cur, results)
			}
			c.current[id] = cur
		}(id)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return c.gather(results)
}

// CollectEpisodes runs complete episodes until nEpisode episodes have
// finished across all environments, storing all transitions in the
// Collector's buffer. An environment left mid-episode by an earlier
// Collect call finishes that episode first.
func (c *Collector) CollectEpisodes(nEpisode int) (Stats, error) {
	results := make(chan transition, len(c.envs))
	var wg sync.WaitGroup
	var claimed int64

	for id := range c.envs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e := c.envs[id]
			cur := c.current[id]

			for atomic.AddInt64(&claimed, 1) <= int64(nEpisode) {
				for {
					var last bool
					cur, last = c.stepOnce(id, e, cur, results)
					if last {
						break
					}
				}
				cur = e.Reset()
			}
			c.current[id] = cur
		}(id)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return c.gather(results)
}

// step takes a single environmental step, sending the transition on
// results and restarting the episode if it ended. The timestep to
// continue stepping from is returned.
func (c *Collector) step(id int, e env.Environment, cur ts.TimeStep,
	results chan<- transition) ts.TimeStep {
	next, last := c.stepOnce(id, e, cur, results)
	if last {
		return e.Reset()
	}
	return next
}

// stepOnce takes a single environmental step, sending the transition
// on results. It returns the next timestep and whether it ended the
// episode.
func (c *Collector) stepOnce(id int, e env.Environment, cur ts.TimeStep,
	results chan<- transition) (ts.TimeStep, bool) {
	c.mu.Lock()
	action := c.policy.SelectAction(cur)
	c.mu.Unlock()

	next, last := e.Step(action)
	results <- transition{envID: id, step: cur, action: action, next: next}
	return next, last
}

// gather drains the results channel into the buffer, accumulating
// episodic statistics
func (c *Collector) gather(results <-chan transition) (Stats, error) {
	var steps int
	var err error
	var returns, lengths []float64

	for r := range results {
		// Keep draining after an error so that the producer
		// goroutines sending on results can finish
		if err != nil {
			continue
		}
		if addErr := c.buffer.Add(r.envID, r.step, r.action,
			r.next); addErr != nil {
			err = fmt.Errorf("collect: %v", addErr)
			continue
		}
		steps++

		c.episodeReturn[r.envID] += r.next.Reward
		c.episodeLength[r.envID]++

		// Count each episode exactly once, on its last step
		if r.next.Last() {
			returns = append(returns, c.episodeReturn[r.envID])
			lengths = append(lengths, float64(c.episodeLength[r.envID]))
			c.episodeReturn[r.envID] = 0
			c.episodeLength[r.envID] = 0
		}
	}
	if err != nil {
		return Stats{}, err
	}

	s := Stats{
		Steps:    steps,
		Episodes: len(returns),
	}
	if len(returns) > 0 {
		s.MeanReturn = stat.Mean(returns, nil)
		s.MeanEpisodeLength = stat.Mean(lengths, nil)
	}
	if len(returns) > 1 {
		s.StdReturn = stat.StdDev(returns, nil)
		s.StdEpisodeLength = stat.StdDev(lengths, nil)
	}
	return s, nil
}
