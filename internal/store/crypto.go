package store

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Encryptor is the pluggable cryptography hook a Store uses to
// encrypt/decrypt the serialized entry before/after it touches disk. A
// Store constructed without one honors the Encrypted flag silently
// (EncryptionUnavailable) rather than failing.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const scryptN, scryptR, scryptP = 1 << 15, 8, 1
const keyLen = 32
const saltLen = 16
const nonceLen = 24

// PassphraseEncryptor is the default Encryptor: NaCl secretbox keyed by an
// scrypt-derived key, with a random salt and nonce stored alongside the
// ciphertext. It is used when a Store is configured with a passphrase
// instead of a caller-supplied Encryptor.
type PassphraseEncryptor struct {
	passphrase []byte
}

// NewPassphraseEncryptor derives the default Encryptor from passphrase.
func NewPassphraseEncryptor(passphrase string) *PassphraseEncryptor {
	return &PassphraseEncryptor{passphrase: []byte(passphrase)}
}

func (p *PassphraseEncryptor) deriveKey(salt []byte) (*[keyLen]byte, error) {
	derived, err := scrypt.Key(p.passphrase, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keyLen]byte
	copy(key[:], derived)
	return &key, nil
}

// Encrypt returns salt || nonce || box, base-nothing (raw bytes as a
// string; callers persisting to a JSON field should expect opaque bytes,
// not UTF-8 text).
func (p *PassphraseEncryptor) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := p.deriveKey(salt)
	if err != nil {
		return "", err
	}

	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nil, []byte(plaintext), &nonce, key)

	out := make([]byte, 0, saltLen+nonceLen+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)
	return string(out), nil
}

// Decrypt reverses Encrypt.
func (p *PassphraseEncryptor) Decrypt(ciphertext string) (string, error) {
	data := []byte(ciphertext)
	if len(data) < saltLen+nonceLen {
		return "", fmt.Errorf("ciphertext too short")
	}
	salt := data[:saltLen]
	var nonce [nonceLen]byte
	copy(nonce[:], data[saltLen:saltLen+nonceLen])
	box := data[saltLen+nonceLen:]

	key, err := p.deriveKey(salt)
	if err != nil {
		return "", err
	}

	plaintext, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return "", fmt.Errorf("decryption failed: wrong passphrase or corrupt data")
	}
	return string(plaintext), nil
}
