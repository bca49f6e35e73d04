package atg

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/KaiSD/att/pkg/atg/table"
	"github.com/KaiSD/att/pkg/atg/textenc"
)

// Engine provides the main API for working with templates.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	cache  *TemplateCache
}

// New creates a new engine with the global configuration.
func New() *Engine {
	return &Engine{
		config: GetGlobalConfig(),
		cache:  NewTemplateCache(),
	}
}

// NewWithConfig creates a new engine with custom configuration.
func NewWithConfig(config *Config) *Engine {
	return &Engine{
		config: config,
		cache: NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		}),
	}
}

// PrepareFile reads and parses a template file decoded from the configured
// input encoding. The template is cached if caching is enabled.
func (e *Engine) PrepareFile(path string) (*Template, error) {
	if e.config.CacheMaxSize > 0 && e.cache != nil {
		if tmpl, ok := e.cache.Get(path); ok {
			return tmpl, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	tmpl, err := e.Prepare(file)
	if err != nil {
		return nil, WithContext(err, "prepare template", map[string]interface{}{"path": path})
	}

	if e.config.CacheMaxSize > 0 && e.cache != nil {
		e.cache.Set(path, tmpl)
	}

	return tmpl, nil
}

// Prepare reads and parses a template from r.
func (e *Engine) Prepare(r io.Reader) (*Template, error) {
	decoded, err := textenc.NewReader(r, e.config.InputEncoding)
	if err != nil {
		return nil, err
	}
	text, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return e.Parse(string(text))
}

// Parse parses template file text.
func (e *Engine) Parse(text string) (*Template, error) {
	return parseTemplate(text, e.config.MaxNestingDepth)
}

// ParseBody parses a template body with caller-supplied metadata.
func (e *Engine) ParseBody(body string, meta Metadata) (*Template, error) {
	return parseBody(body, meta, e.config.MaxNestingDepth)
}

// LoadTable reads a table file with the engine's delimiter and input encoding.
func (e *Engine) LoadTable(path string, opts table.LoadOptions) (*table.Table, error) {
	if opts.CSV.Delimiter == 0 {
		opts.CSV.Delimiter = e.config.CSVDelimiter
	}
	if opts.CSV.Encoding == "" {
		opts.CSV.Encoding = e.config.InputEncoding
	}
	t, err := table.Load(path, opts)
	if err != nil {
		return nil, WithContext(err, "load table", map[string]interface{}{"path": path})
	}
	return t, nil
}

// Process runs tmpl over src with the engine's worker count and strictness.
// Options given here take precedence.
func (e *Engine) Process(ctx context.Context, tmpl *Template, src Source, opts ...ProcessOption) (*Result, error) {
	all := append([]ProcessOption{
		WithWorkers(e.config.Workers),
		WithStrict(e.config.StrictMode),
	}, opts...)
	return tmpl.Process(ctx, src, all...)
}

// Generate prepares the template at templatePath, loads the table at
// tablePath honouring the template's transpose flag and processes it.
func (e *Engine) Generate(ctx context.Context, templatePath, tablePath string, loadOpts table.LoadOptions, opts ...ProcessOption) (*Result, error) {
	tmpl, err := e.PrepareFile(templatePath)
	if err != nil {
		return nil, err
	}
	loadOpts.Transpose = loadOpts.Transpose || tmpl.Transpose
	src, err := e.LoadTable(tablePath, loadOpts)
	if err != nil {
		return nil, err
	}
	return e.Process(ctx, tmpl, src, opts...)
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// SetConfig updates the engine's configuration.
// Cache size and TTL keep their values until the cache is rebuilt.
func (e *Engine) SetConfig(config *Config) {
	e.config = config
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
		e.cache = NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		})
	}
}

// WithCache returns an option that sets the cache size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.cache = NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: maxSize,
			TTL:     e.config.CacheTTL,
		})
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DefaultEngine is the global default engine instance.
var DefaultEngine = New()

// PrepareFile reads and parses a template file using the default engine.
func PrepareFile(path string) (*Template, error) {
	return DefaultEngine.PrepareFile(path)
}

// Prepare reads and parses a template using the default engine.
func Prepare(r io.Reader) (*Template, error) {
	return DefaultEngine.Prepare(r)
}

// Generate runs a template file over a table file using the default engine.
func Generate(ctx context.Context, templatePath, tablePath string, loadOpts table.LoadOptions, opts ...ProcessOption) (*Result, error) {
	return DefaultEngine.Generate(ctx, templatePath, tablePath, loadOpts, opts...)
}

// ClearCache clears the default engine's template cache.
func ClearCache() {
	DefaultEngine.ClearCache()
}

// SetCacheConfig updates the global cache configuration and rebuilds the
// default engine's cache with it.
func SetCacheConfig(maxSize int, ttl time.Duration) {
	config := GetGlobalConfig()
	config.CacheMaxSize = maxSize
	config.CacheTTL = ttl
	SetGlobalConfig(config)
	DefaultEngine = New()
}
