package utils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint возвращает hex blake2b-256 отпечаток JSON кодировки v.
// Одинаковая кодировка даёт одинаковый отпечаток, поэтому порядок в срезах важен.
func Fingerprint(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to encode value: %w", err)
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
