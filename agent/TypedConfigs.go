package agent

import (
	"reflect"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
//
// For example, if a Config has Type CategoricalReinforceMLP, then the
// Config is used to construct REINFORCE agents using categorical MLP
// policies.
type Type string

const (
	// Linear methods
	EGreedyQLearningLinear Type = "EGreedyQLearning-Linear"
	EGreedyESarsaLinear    Type = "EGreedyESarsa-Linear"

	// Deep methods
	CategoricalReinforceMLP Type = "CategoricalReinforce-MLP"
	EGreedyDeepQMLP         Type = "EGreedyDeepQ-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a Config or ConfigList with that type can be created.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes map[Type]reflect.Type

func init() {
	registeredTypes = make(map[Type]reflect.Type)
}

// Register registers an agent's Type with a concrete ConfigList type
// so that upon deserialization of a TypedConfigList, ConfigLists of
// type agentType are deserialized into the concrete type of configs.
//
// Note that each package is required to register its own Config's
// with an agentType separately. This package registers no agentTypes
// with any Config's. This is to avoid circular imports.
func Register(agentType Type, configs ConfigList) {
	registeredTypes[agentType] = reflect.TypeOf(configs)
}
