// Package weights defines initializers for weight matrices
package weights

import "gonum.org/v1/gonum/mat"

// Initializer initializes weight matrices in place
type Initializer interface {
	Initialize(weights *mat.Dense)
}
