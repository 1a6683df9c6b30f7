// Package component defines the contract loom pipeline components share:
// declared input/output sockets, a generic run boundary, and plain
// configuration records for serialization.
package component

import "context"

// InputSocket declares a named input a component consumes at run time.
type InputSocket struct {
	Name     string
	Required bool
}

// OutputSocket declares a named output a component produces.
type OutputSocket struct {
	Name string
}

// Component is the interface all pipeline components implement. Run
// receives one value per declared input socket and returns one value per
// declared output socket. Values are type-checked at this boundary, not
// inside component cores.
type Component interface {
	Inputs() []InputSocket
	Outputs() []OutputSocket
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Warmer is implemented by components that load expensive resources.
// WarmUp is idempotent and must complete before the first Run.
type Warmer interface {
	WarmUp(ctx context.Context) error
}

// Serializable is implemented by components that round-trip through a
// configuration record. Reconstructing a component from its own record
// must reproduce identical behavior.
type Serializable interface {
	ToConfig() (Config, error)
}

// Config is the plain configuration record for a component: its
// registered type name plus its constructor parameters.
type Config struct {
	Type string         `yaml:"type" json:"type"`
	Init map[string]any `yaml:"init,omitempty" json:"init,omitempty"`
}
