// Package prompt renders prompt strings from Jinja-style templates. The
// variables referenced in a template become the required inputs of the
// component, so a template fully describes its own input contract.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/loomworks/loom/internal/component"
)

// TypeName is the registered component type for PromptBuilder.
const TypeName = "PromptBuilder"

// PromptBuilder renders a prompt from a template string using Jinja
// syntax, e.g. "Translate to {{ target_language }}. Context: {{ snippet }}".
// Each free variable in the template is a required input; rendering a
// variable that was not supplied produces an empty string, per the
// template engine's semantics.
type PromptBuilder struct {
	source   string
	template *pongo2.Template
	vars     []string
}

// New compiles the template string and derives its free variables. A
// syntactically invalid template is an error; it is not recovered here.
func New(template string) (*PromptBuilder, error) {
	tpl, err := pongo2.FromString(template)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse template: %w", err)
	}
	return &PromptBuilder{
		source:   template,
		template: tpl,
		vars:     Variables(template),
	}, nil
}

// Variables returns a copy of the template's free variable names, sorted.
func (b *PromptBuilder) Variables() []string {
	out := make([]string, len(b.vars))
	copy(out, b.vars)
	return out
}

// Inputs declares one required, untyped input per free template variable.
func (b *PromptBuilder) Inputs() []component.InputSocket {
	sockets := make([]component.InputSocket, len(b.vars))
	for i, name := range b.vars {
		sockets[i] = component.InputSocket{Name: name, Required: true}
	}
	return sockets
}

// Outputs declares the single rendered prompt output.
func (b *PromptBuilder) Outputs() []component.OutputSocket {
	return []component.OutputSocket{{Name: "prompt"}}
}

// Render renders the template against the supplied values. Rendering is
// pure: same template and values produce the same string.
func (b *PromptBuilder) Render(values map[string]any) (string, error) {
	out, err := b.template.Execute(pongo2.Context(values))
	if err != nil {
		return "", fmt.Errorf("prompt: render: %w", err)
	}
	return out, nil
}

// Run implements component.Component.
func (b *PromptBuilder) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	rendered, err := b.Render(inputs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"prompt": rendered}, nil
}

// ToConfig serializes the builder. The persisted form is exactly the
// original template string; reconstruction re-parses it and re-derives
// the input set.
func (b *PromptBuilder) ToConfig() (component.Config, error) {
	return component.Config{
		Type: TypeName,
		Init: map[string]any{"template": b.source},
	}, nil
}

func fromConfig(init map[string]any) (component.Component, error) {
	v, ok := init["template"]
	if !ok {
		return nil, errors.New("prompt: config missing template")
	}
	source, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("prompt: template must be a string, got %T", v)
	}
	return New(source)
}

func init() {
	component.Register(TypeName, fromConfig)
}
