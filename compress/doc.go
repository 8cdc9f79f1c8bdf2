// Package compress provides compression and decompression codecs applied to
// a frozen payload as a whole, before the header/encryption envelope wraps
// it.
//
// # Overview
//
// forma applies compression as an optional second stage, after the tagged
// binary encoding produced by package freeze:
//
//  1. Encoding: freeze walks the value tree and emits self-describing tags
//  2. Compression: the resulting bytes are optionally run through one of
//     the algorithms below before the header is prepended
//
// Supported algorithms:
//   - None: no compression (fastest, largest)
//   - Zstd: best compression ratio, moderate speed
//   - S2: balanced compression and speed, a Snappy-compatible alternative
//   - LZ4: very fast decompression, moderate ratio
//   - LZMA: highest ratio at the cost of speed, for cold storage
//
// # Algorithm selection
//
// | Workload              | Recommended | Reason                         |
// |------------------------|------------|---------------------------------|
// | Storage-constrained    | Zstd/LZMA  | Best compression ratio          |
// | Real-time freeze/thaw  | S2 or LZ4  | Low latency                     |
// | CPU-constrained        | None       | No compression overhead         |
// | Cold storage archival  | LZMA       | Maximize space savings          |
//
// # Hostile-input safety
//
// Every Decompressor in this package must uphold one contract: given
// arbitrary bytes (not necessarily produced by the matching Compressor),
// Decompress returns either decoded bytes or an error. It never panics and
// never allocates memory proportional to an attacker-supplied size claim
// without bound. See zstd_pure.go's WithDecoderMaxMemory, lz4.go's
// adaptive-doubling loop, s2.go's decoded-length check and lzma.go's
// dictionary-size and output caps for the ways this package enforces that
// bound.
package compress
