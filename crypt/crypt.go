// Package crypt implements forma's Encryptor abstraction: authenticated
// (GCM) or legacy unauthenticated (CBC) encryption, parameterized by a
// kdf.Password whose Mode selects salted-per-message or cached-shared-key
// derivation.
package crypt

import (
	"fmt"

	"github.com/arloliu/forma/cipher"
	"github.com/arloliu/forma/errs"
	formarand "github.com/arloliu/forma/internal/rand"
	"github.com/arloliu/forma/kdf"
)

// SaltSize is the fixed salt length used in Salted mode.
const SaltSize = 16

// Encryptor encrypts and decrypts byte payloads under a password.
//
// Layout produced by Encrypt (and expected by Decrypt):
//
//	IV ∥ optional_salt ∥ ciphertext(+tag)
//
// The salt is present iff pw.Mode is kdf.Salted.
type Encryptor interface {
	Encrypt(pw kdf.Password, plaintext []byte) ([]byte, error)
	Decrypt(pw kdf.Password, data []byte) ([]byte, error)
}

// deriveKey resolves the AES-128 key for pw, generating a fresh salt in
// Salted mode (returned salt is nil in Cached mode).
func deriveKey(pw kdf.Password) (key [kdf.KeySize]byte, salt []byte, err error) {
	if pw.Mode == kdf.Cached {
		return kdf.DeriveCached(pw.Secret), nil, nil
	}

	salt, err = formarand.Bytes(SaltSize)
	if err != nil {
		return key, nil, err
	}

	return kdf.Derive(salt, pw.Secret, kdf.SaltedRounds), salt, nil
}

// splitSalt extracts the salt (if pw.Mode is Salted) immediately following
// a fixed-size IV, returning the key and the remaining ciphertext-bearing
// bytes with the salt spliced back out (IV∥rest).
func splitSalt(pw kdf.Password, data []byte, ivSize int) (key [kdf.KeySize]byte, rejoined []byte, err error) {
	if pw.Mode == kdf.Cached {
		if len(data) < ivSize {
			return key, nil, fmt.Errorf("%w: ciphertext too short", errs.ErrWrongPassword)
		}

		return kdf.DeriveCached(pw.Secret), data, nil
	}

	if len(data) < ivSize+SaltSize {
		return key, nil, fmt.Errorf("%w: ciphertext too short", errs.ErrWrongPassword)
	}

	iv := data[:ivSize]
	salt := data[ivSize : ivSize+SaltSize]
	rest := data[ivSize+SaltSize:]

	key = kdf.Derive(salt, pw.Secret, kdf.SaltedRounds)

	rejoined = make([]byte, 0, len(iv)+len(rest))
	rejoined = append(rejoined, iv...)
	rejoined = append(rejoined, rest...)

	return key, rejoined, nil
}

// GCMEncryptor is the default, authenticated encryptor: AES-128 in GCM
// mode. Tampering or a wrong password/key is always detected and reported
// as errs.ErrWrongPassword.
type GCMEncryptor struct{}

var _ Encryptor = GCMEncryptor{}

// NewGCMEncryptor returns the default GCM-based Encryptor.
func NewGCMEncryptor() GCMEncryptor { return GCMEncryptor{} }

func (GCMEncryptor) Encrypt(pw kdf.Password, plaintext []byte) ([]byte, error) {
	key, salt, err := deriveKey(pw)
	if err != nil {
		return nil, err
	}

	sealed, err := cipher.SealGCM(key[:], plaintext)
	if err != nil {
		return nil, err
	}

	if salt == nil {
		return sealed, nil
	}

	return spliceSalt(sealed, salt, cipher.GCMNonceSize), nil
}

func (GCMEncryptor) Decrypt(pw kdf.Password, data []byte) ([]byte, error) {
	key, rejoined, err := splitSalt(pw, data, cipher.GCMNonceSize)
	if err != nil {
		return nil, err
	}

	return cipher.OpenGCM(key[:], rejoined)
}

// CBCEncryptor is the legacy, unauthenticated encryptor: AES-128-CBC with
// PKCS5 padding. Provided only for compatibility with pre-migration data.
//
// Decrypting with the wrong password does not reliably fail: CBC has no
// integrity check, so wrong-key decryption can silently produce plausible
// garbage instead of an error. Prefer GCMEncryptor unless you specifically
// need to read legacy CBC-encrypted data.
type CBCEncryptor struct{}

var _ Encryptor = CBCEncryptor{}

// NewCBCEncryptor returns the legacy CBC-based Encryptor.
func NewCBCEncryptor() CBCEncryptor { return CBCEncryptor{} }

func (CBCEncryptor) Encrypt(pw kdf.Password, plaintext []byte) ([]byte, error) {
	key, salt, err := deriveKey(pw)
	if err != nil {
		return nil, err
	}

	sealed, err := cipher.SealCBC(key[:], plaintext)
	if err != nil {
		return nil, err
	}

	if salt == nil {
		return sealed, nil
	}

	return spliceSalt(sealed, salt, cipher.CBCIVSize), nil
}

func (CBCEncryptor) Decrypt(pw kdf.Password, data []byte) ([]byte, error) {
	key, rejoined, err := splitSalt(pw, data, cipher.CBCIVSize)
	if err != nil {
		return nil, err
	}

	return cipher.OpenCBC(key[:], rejoined)
}

// spliceSalt inserts salt immediately after the first ivSize bytes of
// sealed, producing IV∥salt∥rest.
func spliceSalt(sealed, salt []byte, ivSize int) []byte {
	out := make([]byte, 0, len(sealed)+len(salt))
	out = append(out, sealed[:ivSize]...)
	out = append(out, salt...)
	out = append(out, sealed[ivSize:]...)

	return out
}
