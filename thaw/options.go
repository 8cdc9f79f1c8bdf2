package thaw

import (
	"github.com/arloliu/forma/allowlist"
	"github.com/arloliu/forma/compress"
	"github.com/arloliu/forma/crypt"
	"github.com/arloliu/forma/internal/options"
	"github.com/arloliu/forma/kdf"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/value"
)

// ThawTransform lets a caller rewrite each decoded value against its
// parent before it's attached to the result tree. The default is the
// identity transform.
type ThawTransform func(parent, v value.Value) value.Value

// Config holds the resolved settings for one Decode call.
type Config struct {
	Compressor            compress.Codec
	Encryptor             crypt.Encryptor
	Password              *kdf.Password
	AllowList             allowlist.Policy
	IncludeMetadata       bool
	Transform             ThawTransform
	Registry              *registry.ThawRegistry
	HeaderlessAssumption  bool
}

func identityTransform(_, v value.Value) value.Value { return v }

func defaultConfig() *Config {
	return &Config{
		Compressor:      nil,
		Encryptor:       nil,
		AllowList:       allowlist.DenyAll(),
		IncludeMetadata: true,
		Transform:       identityTransform,
		Registry:        registry.DefaultThaw,
	}
}

// Option configures a Config.
type Option = options.Option[*Config]

// WithCompressor sets the decompressor used when the header indicates a
// compressed payload. Default: none.
func WithCompressor(c compress.Codec) Option {
	return options.NoError(func(cfg *Config) { cfg.Compressor = c })
}

// WithEncryptor sets the decryptor used when the header indicates an
// encrypted payload. Default: none. Decoding an encrypted payload needs
// both WithEncryptor and WithPassword; with either missing, Decode fails
// with errs.ErrInvalidConfig.
func WithEncryptor(e crypt.Encryptor) Option {
	return options.NoError(func(cfg *Config) { cfg.Encryptor = e })
}

// WithPassword sets the password used to derive the decryption key.
func WithPassword(pw kdf.Password) Option {
	return options.NoError(func(cfg *Config) { cfg.Password = &pw })
}

// WithAllowList sets the thaw-side opaque-object allow-list. Default:
// allowlist.DenyAll() — opaque objects are quarantined unless a caller
// explicitly opts a class in.
func WithAllowList(p allowlist.Policy) Option {
	return options.NoError(func(cfg *Config) { cfg.AllowList = p })
}

// WithMetadata controls whether a metadata sentinel is read back and
// attached to its base value. Default true.
func WithMetadata(include bool) Option {
	return options.NoError(func(cfg *Config) { cfg.IncludeMetadata = include })
}

// WithTransform sets a hook invoked on every decoded value (after its
// children) before it's attached to its parent. Default: identity.
func WithTransform(fn ThawTransform) Option {
	return options.NoError(func(cfg *Config) {
		if fn == nil {
			fn = identityTransform
		}

		cfg.Transform = fn
	})
}

// WithRegistry overrides the custom-type thaw registry. Default:
// registry.DefaultThaw.
func WithRegistry(r *registry.ThawRegistry) Option {
	return options.NoError(func(cfg *Config) { cfg.Registry = r })
}

// WithHeaderlessAssumption tells Decode to treat input lacking the 4-byte
// envelope signature as raw, uncompressed, unencrypted payload instead of
// failing with ErrCorruptStream.
func WithHeaderlessAssumption(assume bool) Option {
	return options.NoError(func(cfg *Config) { cfg.HeaderlessAssumption = assume })
}
