package embedder

import (
	"fmt"

	"github.com/loomworks/loom/internal/component"
	"github.com/loomworks/loom/internal/secret"
)

// ToConfig serializes the embedder. Every constructor parameter is
// enumerated; the credential goes through its reference-or-literal
// representation, never as a raw value.
func (e *DocumentEmbedder) ToConfig() (component.Config, error) {
	init, err := e.settings.toInit()
	if err != nil {
		return component.Config{}, err
	}
	init["meta_fields_to_embed"] = append([]string(nil), e.metaFields...)
	init["separator"] = e.separator
	return component.Config{Type: TypeName, Init: init}, nil
}

// ToConfig serializes the embedder.
func (e *TextEmbedder) ToConfig() (component.Config, error) {
	init, err := e.settings.toInit()
	if err != nil {
		return component.Config{}, err
	}
	return component.Config{Type: TextTypeName, Init: init}, nil
}

func (s *settings) toInit() (map[string]any, error) {
	tok, err := s.token.ToConfig()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"model":      s.model,
		"device":     s.device,
		"token":      tok,
		"prefix":     s.prefix,
		"suffix":     s.suffix,
		"batch_size": s.batchSize,
		"progress":   s.progress,
		"normalize":  s.normalize,
	}, nil
}

// initOptions converts a configuration record's init map back into
// constructor options. Absent keys keep their defaults, so records
// written by older versions still load.
func initOptions(init map[string]any) ([]Option, error) {
	var opts []Option

	if v, ok := init["model"]; ok {
		opts = append(opts, WithModel(asString(v)))
	}
	if v, ok := init["device"]; ok {
		opts = append(opts, WithDevice(asString(v)))
	}
	if v, ok := init["token"]; ok {
		tok, err := secret.FromConfig(asMap(v))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithToken(tok))
	}
	if v, ok := init["prefix"]; ok {
		opts = append(opts, WithPrefix(asString(v)))
	}
	if v, ok := init["suffix"]; ok {
		opts = append(opts, WithSuffix(asString(v)))
	}
	if v, ok := init["batch_size"]; ok {
		n, err := asInt(v)
		if err != nil {
			return nil, fmt.Errorf("embedder: batch_size: %w", err)
		}
		opts = append(opts, WithBatchSize(n))
	}
	if v, ok := init["progress"]; ok {
		b, _ := v.(bool)
		opts = append(opts, WithProgress(b))
	}
	if v, ok := init["normalize"]; ok {
		b, _ := v.(bool)
		opts = append(opts, WithNormalize(b))
	}
	if v, ok := init["meta_fields_to_embed"]; ok {
		opts = append(opts, WithMetaFields(asStrings(v)...))
	}
	if v, ok := init["separator"]; ok {
		opts = append(opts, WithSeparator(asString(v)))
	}

	return opts, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt accepts the integer encodings the yaml and json decoders
// produce.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, asString(item))
		}
		return out
	}
	return nil
}

func init() {
	component.Register(TypeName, func(init map[string]any) (component.Component, error) {
		opts, err := initOptions(init)
		if err != nil {
			return nil, err
		}
		return New(opts...)
	})
	component.Register(TextTypeName, func(init map[string]any) (component.Component, error) {
		opts, err := initOptions(init)
		if err != nil {
			return nil, err
		}
		return NewText(opts...)
	})
}
