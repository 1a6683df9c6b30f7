package config

import (
	"github.com/loomworks/loom/internal/embedder"
	"github.com/loomworks/loom/internal/secret"
)

// DefaultConfig returns configuration with sensible defaults. These are
// used when no config file exists or when the file omits fields.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Model:     embedder.DefaultModel,
			Device:    embedder.DefaultDevice,
			TokenEnv:  embedder.TokenEnvVar,
			BatchSize: embedder.DefaultBatchSize,
			Progress:  true,
			Separator: embedder.DefaultSeparator,
		},
		Search: SearchConfig{
			Limit: 10,
		},
	}
}

// EmbedderOptions converts the embedding config into component options.
func (c EmbeddingConfig) EmbedderOptions() []embedder.Option {
	return []embedder.Option{
		embedder.WithModel(c.Model),
		embedder.WithDevice(c.Device),
		embedder.WithToken(tokenSecret(c.TokenEnv)),
		embedder.WithPrefix(c.Prefix),
		embedder.WithSuffix(c.Suffix),
		embedder.WithBatchSize(c.BatchSize),
		embedder.WithProgress(c.Progress),
		embedder.WithNormalize(c.Normalize),
		embedder.WithMetaFields(c.MetaFields...),
		embedder.WithSeparator(c.Separator),
	}
}

// tokenSecret builds the deferred credential for the configured
// environment variable. An empty name means no credential.
func tokenSecret(envName string) *secret.Secret {
	if envName == "" {
		return nil
	}
	return secret.FromEnv(envName, false)
}
