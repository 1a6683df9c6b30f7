package embedder

import "github.com/loomworks/loom/internal/secret"

// Defaults mirror the sentence-transformers conventions the components
// were designed around.
const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultDevice is the computation device used when none is configured.
	DefaultDevice = "cpu"
	// DefaultBatchSize is the number of texts encoded per model call.
	DefaultBatchSize = 32
	// DefaultSeparator joins spliced metadata values and document content.
	DefaultSeparator = "\n"
	// TokenEnvVar names the environment variable the default credential
	// reads the model-hub token from.
	TokenEnvVar = "HF_API_TOKEN"
)

// settings holds the configuration shared by the embedding components.
// Construction stores these verbatim; nothing here touches the network
// or the model.
type settings struct {
	model      string
	device     string
	token      *secret.Secret
	prefix     string
	suffix     string
	batchSize  int
	progress   bool
	normalize  bool
	metaFields []string
	separator  string
}

func defaultSettings() settings {
	return settings{
		model:     DefaultModel,
		device:    DefaultDevice,
		token:     secret.FromEnv(TokenEnvVar, false),
		batchSize: DefaultBatchSize,
		progress:  true,
		separator: DefaultSeparator,
	}
}

// Option configures an embedding component.
type Option func(*settings)

// WithModel sets the model identifier: a sentence-transformers model
// name, a local model path, or a prefixed remote model such as
// "openai/text-embedding-3-small" or "ollama/all-minilm".
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithDevice sets the computation device. Defaults to "cpu".
func WithDevice(device string) Option {
	return func(s *settings) { s.device = device }
}

// WithToken sets the credential handed to the backend. Defaults to a
// non-strict reference to the HF_API_TOKEN environment variable.
func WithToken(token *secret.Secret) Option {
	return func(s *settings) { s.token = token }
}

// WithPrefix prepends a string to each text before embedding, as
// instruction-tuned models such as E5 and bge require.
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithSuffix appends a string to each text before embedding.
func WithSuffix(suffix string) Option {
	return func(s *settings) { s.suffix = suffix }
}

// WithBatchSize sets the number of texts encoded per model call.
func WithBatchSize(n int) Option {
	return func(s *settings) { s.batchSize = n }
}

// WithProgress toggles the progress bar shown during embedding.
func WithProgress(on bool) Option {
	return func(s *settings) { s.progress = on }
}

// WithNormalize toggles scaling of returned vectors to unit length.
func WithNormalize(on bool) Option {
	return func(s *settings) { s.normalize = on }
}

// WithMetaFields names the document metadata fields spliced into the
// embedded text ahead of the content. Only the document embedder reads
// this.
func WithMetaFields(fields ...string) Option {
	return func(s *settings) { s.metaFields = fields }
}

// WithSeparator sets the string joining spliced metadata values and the
// document content. Only the document embedder reads this.
func WithSeparator(sep string) Option {
	return func(s *settings) { s.separator = sep }
}
