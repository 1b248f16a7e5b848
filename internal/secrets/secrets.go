// package secrets implements the symmetric codec that protects token
// material before it reaches storage.
//
// The wire format is an {iv, content} pair of hex strings produced by
// AES-256-CBC with PKCS#7 padding, with the key derived once from a
// process-wide passphrase via scrypt. Ciphertext is non-deterministic: every
// Encrypt call draws a fresh random IV.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/lmeynard/friendship/internal/shared"
	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt cost parameters, matching Node's scryptSync defaults so
	// envelopes written by the original deployment stay readable.
	scryptN = 16384
	scryptR = 8
	scryptP = 1

	keyLen  = 32 // AES-256
	keySalt = "salt"
)

// Envelope is an encrypted secret at rest: hex IV and hex ciphertext.
type Envelope struct {
	IV      string `json:"iv"`
	Content string `json:"content"`
}

// Codec encrypts and decrypts sensitive strings with a key derived once at
// construction time.
type Codec struct {
	key []byte
}

// NewCodec derives the AES key from the configured passphrase.
func NewCodec(password string) (*Codec, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: encryption password", shared.ErrMissingCredentials)
	}

	key, err := scrypt.Key([]byte(password), []byte(keySalt), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	return &Codec{key: key}, nil
}

// Encrypt encrypts plaintext under a fresh random IV. Encrypting the same
// string twice yields different envelopes; both decrypt to the original.
func (c *Codec) Encrypt(plaintext string) (Envelope, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Envelope{}, fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return Envelope{
		IV:      hex.EncodeToString(iv),
		Content: hex.EncodeToString(ciphertext),
	}, nil
}

// Decrypt is the exact inverse of Encrypt. A malformed or tampered envelope
// fails with [shared.ErrCrypto]; callers must treat that as fatal to the
// operation (token unusable, re-authentication required).
func (c *Codec) Decrypt(env Envelope) (string, error) {
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return "", fmt.Errorf("%w: bad IV encoding", shared.ErrCrypto)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: IV must be %d bytes", shared.ErrCrypto, aes.BlockSize)
	}

	ciphertext, err := hex.DecodeString(env.Content)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", shared.ErrCrypto)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block aligned", shared.ErrCrypto)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(unpadded), nil
}

// pad applies PKCS#7 padding up to the block size.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips PKCS#7 padding, rejecting anything inconsistent as tampering.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", shared.ErrCrypto)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", shared.ErrCrypto)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", shared.ErrCrypto)
		}
	}
	return data[:len(data)-n], nil
}
