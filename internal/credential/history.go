package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is a salted one-way hash with its own verification primitive.
// Verify must compare against the stored hash's salt, so implementations
// cannot be replaced by hash-then-equality.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

var ErrHashingFailed = errors.New("password hashing failed")

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt Hasher. Out of range costs fall back to
// bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}
	return string(hash), nil
}

func (b *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcrypt rejects inputs longer than 72 bytes; those are digested first so
// long passphrases still hash and verify consistently.
func bcryptInput(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// IsPasswordReused reports whether candidate matches any hash in history.
// Every entry costs one full hash verification; history is bounded by the
// policy's HistoryCount so the cost is too.
func IsPasswordReused(hasher Hasher, candidate string, history []string) bool {
	for _, hash := range history {
		if hasher.Verify(hash, candidate) {
			return true
		}
	}
	return false
}

// RecordPasswordHistory hashes candidate and returns a new history with the
// hash first, truncated to maxCount entries. history itself is not modified.
func RecordPasswordHistory(hasher Hasher, candidate string, history []string, maxCount int) ([]string, error) {
	if maxCount <= 0 {
		return []string{}, nil
	}

	hash, err := hasher.Hash(candidate)
	if err != nil {
		return nil, err
	}

	size := len(history) + 1
	if size > maxCount {
		size = maxCount
	}
	next := make([]string, 0, size)
	next = append(next, hash)
	for _, h := range history {
		if len(next) == size {
			break
		}
		next = append(next, h)
	}
	return next, nil
}
