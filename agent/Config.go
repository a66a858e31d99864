package agent

import (
	"reflect"

	"github.com/samuelfneumann/gorl/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config describes
	Type() Type
}

// PolicyType represents a type of distribution that a policy could be
type PolicyType string

const (
	Categorical PolicyType = "Softmax"
	EGreedy     PolicyType = "EGreedy"
)

// ConfigList implements functionality for storing a list of Config's
// in a simple way. Instead of storing a slice of Config's, a
// ConfigList stores each hyperparameter field's possible values, and
// the list consists of every combination of field values. Concrete
// ConfigList types are structs whose fields are slices of the
// corresponding Config's fields.
type ConfigList interface {
	// Type returns the type of Config stored in the list
	Type() Type

	// Config returns an empty Config of the concrete type stored by
	// the list
	Config() Config

	// NumFields returns the number of settable fields per Config
	NumFields() int

	// Len returns the number of Config's stored in the list
	Len() int
}

// ConfigAt returns the Config at index i of a ConfigList.
//
// The index is treated as a mixed-radix number whose digits select one
// value from each slice field of the list, so that iterating i from 0
// to Len()-1 enumerates every combination of hyperparameter values.
// Fields of the concrete Config are filled by name using reflection.
func ConfigAt(i int, list ConfigList) Config {
	i = i % list.Len()

	listValue := reflect.ValueOf(list)
	configValue := reflect.New(reflect.TypeOf(list.Config())).Elem()

	for field := 0; field < listValue.NumField(); field++ {
		fieldValues := listValue.Field(field)
		if fieldValues.Kind() != reflect.Slice || fieldValues.Len() == 0 {
			continue
		}

		index := i % fieldValues.Len()
		i /= fieldValues.Len()

		name := listValue.Type().Field(field).Name
		target := configValue.FieldByName(name)
		if target.IsValid() && target.CanSet() {
			target.Set(fieldValues.Index(index))
		}
	}

	return configValue.Interface().(Config)
}
