package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"

	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
)

// EncryptedValuePrefix marks a tenant gateway setting stored encrypted at rest
const EncryptedValuePrefix = "enc:"

// EncryptionService defines the interface for encryption and hashing operations
type EncryptionService interface {
	// Encrypt encrypts plaintext using AES-GCM
	Encrypt(plaintext string) (string, error)

	// Decrypt decrypts ciphertext using AES-GCM
	Decrypt(ciphertext string) (string, error)

	// Hash creates a one-way hash of the input value using SHA-256
	Hash(value string) string
}

type aesEncryptionService struct {
	key    []byte
	logger *logger.Logger
}

// NewEncryptionService creates a new encryption service using the master key from config
func NewEncryptionService(cfg *config.Configuration, logger *logger.Logger) (EncryptionService, error) {
	if cfg.Secrets.EncryptionKey == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "master encryption key not configured")
	}

	// AES-256 needs exactly 32 bytes, any other key length is stretched with sha256
	key := []byte(cfg.Secrets.EncryptionKey)
	if len(key) != 32 {
		sum := sha256.Sum256(key)
		key = sum[:]
	}

	return &aesEncryptionService{
		key:    key,
		logger: logger,
	}, nil
}

func (s *aesEncryptionService) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSystemError, "failed to create cipher block")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSystemError, "failed to create GCM")
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-GCM and returns base64-encoded nonce||ciphertext
func (s *aesEncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSystemError, "failed to generate nonce")
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts base64-encoded ciphertext using AES-GCM
func (s *aesEncryptionService) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSystemError, "failed to decode ciphertext")
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(decoded) < nonceSize {
		return "", errors.New(errors.ErrCodeSystemError, "ciphertext too short")
	}

	plain, err := gcm.Open(nil, decoded[:nonceSize], decoded[nonceSize:], nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSystemError, "failed to decrypt ciphertext")
	}
	return string(plain), nil
}

// Hash creates a one-way hash of the input value using SHA-256
func (s *aesEncryptionService) Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// DecryptConfigValue decrypts values carrying EncryptedValuePrefix and returns others unchanged
func DecryptConfigValue(svc EncryptionService, value string) (string, error) {
	if !strings.HasPrefix(value, EncryptedValuePrefix) {
		return value, nil
	}
	if svc == nil {
		return "", errors.New(errors.ErrCodeConfiguration, "encrypted gateway setting without encryption key")
	}
	return svc.Decrypt(strings.TrimPrefix(value, EncryptedValuePrefix))
}
