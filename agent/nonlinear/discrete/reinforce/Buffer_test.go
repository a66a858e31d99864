package reinforce

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestStoreRejectsIllegalSizes(t *testing.T) {
	b := newEpochBuffer(2, 1, 4, 0.95, 0.99)

	if err := b.store([]float64{1.0}, []float64{0.0}, 1.0, 0.0); err == nil {
		t.Error("expected error on observation of wrong length")
	}
	if err := b.store([]float64{1.0, 2.0}, []float64{}, 1.0, 0.0); err == nil {
		t.Error("expected error on action of wrong length")
	}

	for i := 0; i < 4; i++ {
		err := b.store([]float64{1.0, 2.0}, []float64{0.0}, 1.0, 0.0)
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := b.store([]float64{1.0, 2.0}, []float64{0.0}, 1.0, 0.0); err == nil {
		t.Error("expected error when storing into a full buffer")
	}
}

func TestFinishPathComputesRewardsToGo(t *testing.T) {
	gamma := 0.5
	b := newEpochBuffer(1, 1, 3, 1.0, gamma)

	rewards := []float64{1.0, 2.0, 4.0}
	for _, r := range rewards {
		if err := b.store([]float64{0.0}, []float64{0.0}, r, 0.0); err != nil {
			t.Fatal(err)
		}
	}
	b.finishPath(0.0)

	// With γ = 0.5 and a terminal trajectory:
	//	G_2 = 4
	//	G_1 = 2 + 0.5*4 = 4
	//	G_0 = 1 + 0.5*4 = 3
	want := []float64{3.0, 4.0, 4.0}
	for i := range want {
		if math.Abs(b.retBuffer[i]-want[i]) > 1e-12 {
			t.Errorf("incorrect reward-to-go at %d \n\twant(%v)\n\thave(%v)",
				i, want[i], b.retBuffer[i])
		}
	}
}

func TestFinishPathComputesAdvantages(t *testing.T) {
	gamma := 0.9
	lambda := 0.5
	b := newEpochBuffer(1, 1, 2, lambda, gamma)

	// States with value estimates 1 and 2, rewards 1 and 1, ending in
	// a terminal state with value 0
	if err := b.store([]float64{0.0}, []float64{0.0}, 1.0, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := b.store([]float64{0.0}, []float64{0.0}, 1.0, 2.0); err != nil {
		t.Fatal(err)
	}
	b.finishPath(0.0)

	// TD errors: δ_0 = 1 + 0.9*2 - 1 = 1.8, δ_1 = 1 + 0.9*0 - 2 = -1
	// Advantages: A_1 = δ_1, A_0 = δ_0 + γλ*δ_1
	delta0 := 1.0 + gamma*2.0 - 1.0
	delta1 := 1.0 - 2.0
	want := []float64{delta0 + gamma*lambda*delta1, delta1}
	for i := range want {
		if math.Abs(b.advBuffer[i]-want[i]) > 1e-12 {
			t.Errorf("incorrect advantage at %d \n\twant(%v)\n\thave(%v)",
				i, want[i], b.advBuffer[i])
		}
	}
}

func TestGetStandardizesAdvantages(t *testing.T) {
	b := newEpochBuffer(1, 1, 4, 0.95, 0.99)

	for i := 0; i < 4; i++ {
		err := b.store([]float64{float64(i)}, []float64{0.0},
			float64(i), 0.0)
		if err != nil {
			t.Fatal(err)
		}
		b.finishPath(0.0)
	}

	_, _, adv, _, err := b.get()
	if err != nil {
		t.Fatal(err)
	}

	mean := stat.Mean(adv, nil)
	if math.Abs(mean) > 1e-8 {
		t.Errorf("advantages not centred \n\twant(%v)\n\thave(%v)", 0.0, mean)
	}
	std := stat.StdDev(adv, nil)
	if math.Abs(std-1.0) > 1e-6 {
		t.Errorf("advantages not standardized \n\twant(%v)\n\thave(%v)",
			1.0, std)
	}

	// get requires a full buffer
	if _, _, _, _, err := b.get(); err == nil {
		t.Error("expected error when sampling a non-full buffer")
	}
}
