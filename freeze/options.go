package freeze

import (
	"github.com/arloliu/forma/allowlist"
	"github.com/arloliu/forma/compress"
	"github.com/arloliu/forma/crypt"
	"github.com/arloliu/forma/internal/options"
	"github.com/arloliu/forma/kdf"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/value"
)

// Config holds the resolved settings for one Encode call.
type Config struct {
	Compressor      compress.Codec
	Encryptor       crypt.Encryptor
	Password        *kdf.Password
	IncludeHeader   bool
	IncludeMetadata bool
	AllowList       allowlist.Policy
	FinalFallback   func(any) (value.Value, error)
	Registry        *registry.FreezeRegistry
}

// defaultConfig holds the documented option defaults.
func defaultConfig() *Config {
	return &Config{
		Compressor:      nil,
		Encryptor:       nil,
		IncludeHeader:   true,
		IncludeMetadata: true,
		AllowList:       allowlist.AllowAny(),
		Registry:        registry.DefaultFreeze,
	}
}

// Option configures a Config.
type Option = options.Option[*Config]

// WithCompressor sets the compressor applied to the encoded payload.
// Default: none.
func WithCompressor(c compress.Codec) Option {
	return options.NoError(func(cfg *Config) { cfg.Compressor = c })
}

// WithEncryptor sets the encryptor applied after compression. Default:
// none. Requires WithPassword: Encode fails with errs.ErrInvalidConfig
// when an encryptor is set without a password.
func WithEncryptor(e crypt.Encryptor) Option {
	return options.NoError(func(cfg *Config) { cfg.Encryptor = e })
}

// WithPassword sets the password used to derive the encryption key.
// Required iff an encryptor is set.
func WithPassword(pw kdf.Password) Option {
	return options.NoError(func(cfg *Config) { cfg.Password = &pw })
}

// WithHeader controls whether the 4-byte envelope is prepended. Default
// true.
func WithHeader(include bool) Option {
	return options.NoError(func(cfg *Config) { cfg.IncludeHeader = include })
}

// WithMetadata controls whether a value's attached metadata is emitted.
// Default true.
func WithMetadata(include bool) Option {
	return options.NoError(func(cfg *Config) { cfg.IncludeMetadata = include })
}

// WithAllowList sets the freeze-side opaque-object allow-list. Default:
// allowlist.AllowAny().
func WithAllowList(p allowlist.Policy) Option {
	return options.NoError(func(cfg *Config) { cfg.AllowList = p })
}

// WithFinalFallback sets the last-resort hook invoked when a value has no
// native, opaque, or text-fallback representation.
func WithFinalFallback(fn func(any) (value.Value, error)) Option {
	return options.NoError(func(cfg *Config) { cfg.FinalFallback = fn })
}

// WithRegistry overrides the custom-type freeze registry. Default:
// registry.DefaultFreeze.
func WithRegistry(r *registry.FreezeRegistry) Option {
	return options.NoError(func(cfg *Config) { cfg.Registry = r })
}
