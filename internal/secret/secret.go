// Package secret models credentials that are resolved only at the point
// of use: either a literal value or a deferred reference to an
// environment variable.
package secret

import (
	"errors"
	"fmt"
	"os"
)

// Kind discriminates the two secret variants.
type Kind string

const (
	// KindLiteral is a secret whose value was supplied directly.
	KindLiteral Kind = "literal"
	// KindEnv is a secret resolved from an environment variable.
	KindEnv Kind = "env"
)

// ErrUnset is returned when a strict environment reference points at an
// unset variable.
var ErrUnset = errors.New("secret: environment variable not set")

// ErrLiteralNotSerializable is returned when a literal secret is asked to
// serialize itself into a configuration record. Raw secret values never
// go into persisted config.
var ErrLiteralNotSerializable = errors.New("secret: refusing to serialize literal secret value")

// Secret is a credential handed to embedding backends. Resolution happens
// only when Resolve is called, never implicitly.
type Secret struct {
	kind   Kind
	value  string
	env    string
	strict bool
}

// FromLiteral wraps an explicit secret value.
func FromLiteral(value string) *Secret {
	return &Secret{kind: KindLiteral, value: value}
}

// FromEnv defers resolution to the named environment variable. When
// strict, Resolve fails if the variable is unset; otherwise an unset
// variable resolves to the empty string.
func FromEnv(name string, strict bool) *Secret {
	return &Secret{kind: KindEnv, env: name, strict: strict}
}

// Resolve produces the secret value. A nil Secret resolves to the empty
// string so callers can pass optional credentials without nil checks.
func (s *Secret) Resolve() (string, error) {
	if s == nil {
		return "", nil
	}
	switch s.kind {
	case KindLiteral:
		return s.value, nil
	case KindEnv:
		v, ok := os.LookupEnv(s.env)
		if !ok {
			if s.strict {
				return "", fmt.Errorf("%w: %s", ErrUnset, s.env)
			}
			return "", nil
		}
		return v, nil
	}
	return "", fmt.Errorf("secret: unknown kind %q", s.kind)
}

// Key returns a stable identifier usable for cache keying. For env
// references it is the variable name, never the resolved value.
func (s *Secret) Key() string {
	if s == nil {
		return ""
	}
	switch s.kind {
	case KindEnv:
		return "env:" + s.env
	default:
		return "literal:" + s.value
	}
}

// ToConfig returns the reference-or-literal representation used in
// component configuration records. Env references serialize as the
// variable name; literal secrets refuse serialization.
func (s *Secret) ToConfig() (map[string]any, error) {
	if s == nil {
		return nil, nil
	}
	switch s.kind {
	case KindEnv:
		return map[string]any{
			"type":   string(KindEnv),
			"env":    s.env,
			"strict": s.strict,
		}, nil
	case KindLiteral:
		return nil, ErrLiteralNotSerializable
	}
	return nil, fmt.Errorf("secret: unknown kind %q", s.kind)
}

// FromConfig reconstructs a Secret from its configuration form. A nil
// map reconstructs a nil Secret.
func FromConfig(m map[string]any) (*Secret, error) {
	if m == nil {
		return nil, nil
	}
	kind, _ := m["type"].(string)
	switch Kind(kind) {
	case KindEnv:
		name, ok := m["env"].(string)
		if !ok || name == "" {
			return nil, errors.New("secret: env reference missing variable name")
		}
		strict, _ := m["strict"].(bool)
		return FromEnv(name, strict), nil
	case KindLiteral:
		value, _ := m["value"].(string)
		return FromLiteral(value), nil
	}
	return nil, fmt.Errorf("secret: unknown kind %q", kind)
}
