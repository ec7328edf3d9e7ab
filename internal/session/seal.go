package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

var errSealedTooShort = errors.New("sealed token too short")

// DeriveKey derives a 32-byte AES-256 key from a secret and salt using Argon2id.
func DeriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMem, argonPar, keySize)
}

// Sealer encrypts backend tokens at rest.
// Output format: [16-byte salt][12-byte nonce][AES-256-GCM ciphertext]
//
// One salt is generated per process and its key derived once; keys for
// salts written by earlier processes are derived on first use and cached.
type Sealer struct {
	secret string
	salt   []byte
	keys   *xsync.MapOf[string, []byte]
}

func NewSealer(secret string) (*Sealer, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	s := &Sealer{
		secret: secret,
		salt:   salt,
		keys:   xsync.NewMapOf[string, []byte](),
	}
	s.keys.Store(string(salt), DeriveKey(secret, salt))
	return s, nil
}

func (s *Sealer) key(salt []byte) []byte {
	key, _ := s.keys.LoadOrCompute(string(salt), func() []byte {
		return DeriveKey(s.secret, salt)
	})
	return key
}

func (s *Sealer) Seal(plaintext string) ([]byte, error) {
	gcm, err := newGCM(s.key(s.salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, s.salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

func (s *Sealer) Open(sealed []byte) (string, error) {
	if len(sealed) < saltSize+nonceSize {
		return "", errSealedTooShort
	}

	salt := sealed[:saltSize]
	nonce := sealed[saltSize : saltSize+nonceSize]
	ciphertext := sealed[saltSize+nonceSize:]

	gcm, err := newGCM(s.key(salt))
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
