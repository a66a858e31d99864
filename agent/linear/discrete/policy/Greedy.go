package policy

import env "github.com/samuelfneumann/gorl/environment"

// NewGreedy creates a new Greedy policy
func NewGreedy(seed uint64, e env.Environment) (*EGreedy, error) {
	return NewEGreedy(0.0, seed, e)
}
