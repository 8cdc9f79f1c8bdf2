// Package freeze implements forma's encode side: turning a value.Value
// into the tagged binary wire format, with optional compression,
// encryption, and a 4-byte envelope header layered on top.
package freeze

import (
	"fmt"

	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/options"
	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/value"
	"github.com/arloliu/forma/wire"
)

// Encode serializes v under the given options, applying compression and
// encryption (if configured) and prepending the envelope header unless
// WithHeader(false) was passed.
func Encode(v value.Value, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.Encryptor != nil && cfg.Password == nil {
		return nil, fmt.Errorf("%w: encryptor set without a password", errs.ErrInvalidConfig)
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	if err := encodeValue(buf, v, cfg); err != nil {
		return nil, err
	}

	payload := append([]byte(nil), buf.Bytes()...)

	var err error

	compressed := false
	if cfg.Compressor != nil {
		payload, err = cfg.Compressor.Compress(payload)
		if err != nil {
			return nil, err
		}

		compressed = true
	}

	encrypted := false
	if cfg.Encryptor != nil {
		payload, err = cfg.Encryptor.Encrypt(*cfg.Password, payload)
		if err != nil {
			return nil, err
		}

		encrypted = true
	}

	if !cfg.IncludeHeader {
		return payload, nil
	}

	header := wire.Header{Flags: wire.FlagsFor(compressed, encrypted)}
	out := make([]byte, 0, wire.HeaderSize+len(payload))
	out = append(out, header.Bytes()...)
	out = append(out, payload...)

	return out, nil
}
