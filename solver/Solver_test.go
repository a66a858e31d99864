package solver

import (
	"encoding/json"
	"testing"
)

func TestSolverJSONRoundTrip(t *testing.T) {
	adam, err := NewAdam(0.001, 1e-8, 0.9, 0.999, 32)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Type != Adam {
		t.Errorf("expected type %v, got %v", Adam, decoded.Type)
	}
	if decoded.Solver == nil {
		t.Error("decoding did not create the wrapped solver")
	}

	config, ok := decoded.Config.(*AdamConfig)
	if !ok {
		t.Fatalf("expected *AdamConfig, got %T", decoded.Config)
	}
	if config.StepSize != 0.001 {
		t.Errorf("expected step size 0.001, got %v", config.StepSize)
	}
}

func TestNewSolverRejectsMismatchedType(t *testing.T) {
	if _, err := newSolver(Adam, VanillaConfig{StepSize: 0.1}); err == nil {
		t.Error("expected an error creating an Adam solver from a " +
			"vanilla configuration")
	}
}

func TestNewRMSPropRejectsUnsupportedEta(t *testing.T) {
	if _, err := NewRMSProp(0.001, 1e-8, 0.5, 0.999, 1, -1.0); err == nil {
		t.Error("expected an error for unsupported eta")
	}
}

func TestRMSPropCreatesSolverWithClipping(t *testing.T) {
	rmsprop, err := NewRMSProp(0.001, 1e-8, 0.001, 0.999, 1, 5.0)
	if err != nil {
		t.Fatal(err)
	}
	if rmsprop.Solver == nil {
		t.Error("expected a wrapped solver")
	}
}
