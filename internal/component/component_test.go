package component

import (
	"context"
	"strings"
	"testing"
)

// echo is a minimal component used to exercise the registry.
type echo struct {
	greeting string
}

func (e *echo) Inputs() []InputSocket   { return []InputSocket{{Name: "name", Required: true}} }
func (e *echo) Outputs() []OutputSocket { return []OutputSocket{{Name: "text"}} }

func (e *echo) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	name, _ := inputs["name"].(string)
	return map[string]any{"text": e.greeting + " " + name}, nil
}

func (e *echo) ToConfig() (Config, error) {
	return Config{Type: "Echo", Init: map[string]any{"greeting": e.greeting}}, nil
}

func init() {
	Register("Echo", func(init map[string]any) (Component, error) {
		greeting, _ := init["greeting"].(string)
		return &echo{greeting: greeting}, nil
	})
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(Config{Type: "Echo", Init: map[string]any{"greeting": "hello"}})
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}

	out, err := c.Run(context.Background(), map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out["text"] != "hello world" {
		t.Errorf("Run() text = %v, want %q", out["text"], "hello world")
	}
}

func TestFromConfigUnknownType(t *testing.T) {
	_, err := FromConfig(Config{Type: "NoSuchComponent"})
	if err == nil {
		t.Fatal("FromConfig() with unknown type should fail")
	}
	if !strings.Contains(err.Error(), "NoSuchComponent") {
		t.Errorf("error should name the unknown type, got: %v", err)
	}
}

func TestRoundTripPreservesBehavior(t *testing.T) {
	original := &echo{greeting: "hey"}
	cfg, err := original.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error: %v", err)
	}

	restored, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}

	inputs := map[string]any{"name": "you"}
	want, _ := original.Run(context.Background(), inputs)
	got, _ := restored.Run(context.Background(), inputs)
	if got["text"] != want["text"] {
		t.Errorf("restored Run() = %v, want %v", got["text"], want["text"])
	}
}

func TestTypesSorted(t *testing.T) {
	names := Types()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Types() not sorted: %v", names)
			break
		}
	}

	found := false
	for _, name := range names {
		if name == "Echo" {
			found = true
		}
	}
	if !found {
		t.Error("Types() should include Echo")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() with duplicate name should panic")
		}
	}()
	Register("Echo", func(init map[string]any) (Component, error) { return nil, nil })
}
