// Package cipher implements the two block-cipher suites forma's crypt
// package builds encryption on top of: AES-128-GCM (authenticated, the
// default) and AES-128-CBC with PKCS5 padding (unauthenticated, kept only
// for compatibility with pre-migration data).
//
// The Seal/Open call shape mirrors a chunked-file AEAD codec's use of
// crypto/aes + crypto/cipher: build the block cipher once, build the AEAD
// (or CBC mode) around it, then encrypt/decrypt a single buffer.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/arloliu/forma/errs"
	formarand "github.com/arloliu/forma/internal/rand"
)

// GCMNonceSize is the required IV length for AES-GCM.
const GCMNonceSize = 12

// GCMTagSize is the length of the authentication tag GCM appends to the
// ciphertext.
const GCMTagSize = 16

// CBCIVSize is the required IV length for AES-CBC.
const CBCIVSize = aes.BlockSize

// SealGCM encrypts plaintext under key using a fresh random 12-byte nonce
// and returns nonce∥ciphertext-with-tag.
func SealGCM(key []byte, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := formarand.Bytes(GCMNonceSize)
	if err != nil {
		return nil, err
	}

	out := aead.Seal(nonce, nonce, plaintext, nil)

	return out, nil
}

// OpenGCM decrypts data (nonce∥ciphertext-with-tag) under key.
// Authentication failure (wrong key, tampered data) is reported as
// errs.ErrWrongPassword.
func OpenGCM(key []byte, data []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(data) < GCMNonceSize+GCMTagSize {
		return nil, fmt.Errorf("%w: ciphertext too short", errs.ErrWrongPassword)
	}

	nonce, ciphertext := data[:GCMNonceSize], data[GCMNonceSize:]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrWrongPassword, err)
	}

	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to create GCM: %w", err)
	}

	return aead, nil
}

// SealCBC encrypts plaintext under key using a fresh random 16-byte IV and
// PKCS5 padding, returning IV∥ciphertext.
//
// CBC provides no authentication: decrypting with the wrong key may
// silently succeed and return plausible-looking garbage. Callers needing
// tamper detection must use SealGCM instead.
func SealCBC(key []byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to create AES cipher: %w", err)
	}

	iv, err := formarand.Bytes(CBCIVSize)
	if err != nil {
		return nil, err
	}

	padded := pkcs5Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(iv)+len(padded))
	copy(out, iv)

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out[len(iv):], padded)

	return out, nil
}

// OpenCBC decrypts data (IV∥ciphertext) under key and strips PKCS5 padding.
//
// This function cannot detect a wrong key by itself: CBC has no integrity
// check, so a wrong key typically still produces a block stream of the
// right length. It only fails loudly when the decrypted padding is
// malformed, which a wrong key will often (not always) produce.
func OpenCBC(key []byte, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to create AES cipher: %w", err)
	}

	if len(data) < CBCIVSize || (len(data)-CBCIVSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: invalid CBC ciphertext length", errs.ErrCorruptStream)
	}

	iv, ciphertext := data[:CBCIVSize], data[CBCIVSize:]
	if len(ciphertext) == 0 {
		return nil, nil
	}

	plain := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plain, ciphertext)

	return pkcs5Unpad(plain)
}

func pkcs5Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	return padded
}

func pkcs5Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty CBC plaintext", errs.ErrCorruptStream)
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid PKCS5 padding", errs.ErrCorruptStream)
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: invalid PKCS5 padding", errs.ErrCorruptStream)
		}
	}

	return data[:len(data)-padLen], nil
}
