package credential

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	DefaultBackupCodeCount = 10
	MaxBackupCodeCount     = 100
	backupCodeDigits       = 8
)

var backupCodeSpace = big.NewInt(100_000_000)

// GenerateBackupCodes returns count distinct 8-digit codes drawn from r.
// A nil r uses crypto/rand.
func GenerateBackupCodes(r io.Reader, count int) ([]string, error) {
	if count < 1 || count > MaxBackupCodeCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBackupCodeCount, count)
	}
	if r == nil {
		r = rand.Reader
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		n, err := rand.Int(r, backupCodeSpace)
		if err != nil {
			return nil, fmt.Errorf("reading random source: %w", err)
		}
		code := fmt.Sprintf("%0*d", backupCodeDigits, n.Int64())
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func VerifyBackupCode(code string, codes []string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// ConsumeBackupCode returns a copy of codes without the first entry equal to
// the trimmed code. When nothing matches the copy equals codes; callers
// compare lengths to tell whether a code was consumed.
func ConsumeBackupCode(code string, codes []string) []string {
	code = strings.TrimSpace(code)
	out := make([]string, 0, len(codes))
	removed := false
	for _, c := range codes {
		if !removed && code != "" && c == code {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

func SerializeBackupCodes(codes []string) string {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseBackupCodes decodes stored codes. Empty input is an empty list;
// anything that is not a JSON array of strings is a *MalformedStorageError.
func ParseBackupCodes(stored string) ([]string, error) {
	if strings.TrimSpace(stored) == "" {
		return []string{}, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(stored), &codes); err != nil {
		return []string{}, &MalformedStorageError{Err: err}
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// DeserializeBackupCodes is ParseBackupCodes with corrupt storage degraded to
// an empty list.
func DeserializeBackupCodes(stored string) []string {
	codes, err := ParseBackupCodes(stored)
	if err != nil {
		return []string{}
	}
	return codes
}
