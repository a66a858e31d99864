package tracker

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// episode returns the sequence of timesteps for an episode with the
// argument rewards, ending with a timeout
func episode(rewards []float64) []ts.TimeStep {
	obs := mat.NewVecDense(1, []float64{0.0})

	steps := []ts.TimeStep{ts.New(ts.First, 0.0, 1.0, obs, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		step := ts.New(stepType, r, 1.0, obs, i+1)
		if stepType == ts.Last {
			step.SetEnd(ts.Timeout)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturnAccumulatesPerEpisode(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "return.bin"))

	for _, step := range episode([]float64{-0.25, -0.25, 1.0}) {
		tracker.Track(step)
	}
	for _, step := range episode([]float64{-0.25, -0.25}) {
		tracker.Track(step)
	}

	returns := tracker.EpisodeReturns()
	if len(returns) != 2 {
		t.Fatalf("wrong number of returns tracked: \n\twant(2)"+
			"\n\thave(%v)", len(returns))
	}
	if returns[0] != 0.5 {
		t.Errorf("wrong first episode return: \n\twant(0.5)\n\thave(%v)",
			returns[0])
	}
	if returns[1] != -0.5 {
		t.Errorf("wrong second episode return: \n\twant(-0.5)\n\thave(%v)",
			returns[1])
	}
}

func TestReturnDropsUnfinishedEpisode(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "return.bin"))

	steps := episode([]float64{-0.1, -0.1, -0.1})
	for _, step := range steps[:len(steps)-1] {
		tracker.Track(step)
	}

	if len(tracker.EpisodeReturns()) != 0 {
		t.Errorf("unfinished episode should not be tracked: "+
			"\n\twant(0)\n\thave(%v)", len(tracker.EpisodeReturns()))
	}
}

func TestEpisodeLengthTracksLastTimeStepNumber(t *testing.T) {
	tracker := NewEpisodeLength(filepath.Join(t.TempDir(), "length.bin"))

	for _, step := range episode([]float64{-0.1, -0.1, -0.1}) {
		tracker.Track(step)
	}

	lengths := tracker.EpisodeLengths()
	if len(lengths) != 1 {
		t.Fatalf("wrong number of episodes tracked: \n\twant(1)"+
			"\n\thave(%v)", len(lengths))
	}
	if lengths[0] != 3.0 {
		t.Errorf("wrong episode length: \n\twant(3)\n\thave(%v)", lengths[0])
	}
}

func TestSaveThenLoadData(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	tracker := NewReturn(filename)

	for _, step := range episode([]float64{1.0, 2.0, 3.0}) {
		tracker.Track(step)
	}
	if err := tracker.Save(); err != nil {
		t.Fatalf("could not save tracked data: %v", err)
	}

	data, err := LoadData(filename)
	if err != nil {
		t.Fatalf("could not load tracked data: %v", err)
	}
	if len(data) != 1 || data[0] != 6.0 {
		t.Errorf("wrong data loaded: \n\twant([6])\n\thave(%v)", data)
	}
}
