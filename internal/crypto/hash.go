package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint возвращает hex SHA256 от значения.
// Используется как ключ хранилища вместо сырого идентификатора сессии.
func Fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
