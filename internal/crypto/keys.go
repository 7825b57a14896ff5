package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// SaltSize - размер соли в байтах
	SaltSize = 32
	// SecretSize - размер случайного секрета устройства
	SecretSize = 32
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// DeriveKey выводит 32-байтный ключ шифрования из секрета и соли (Argon2id)
func DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	// context string отделяет ключ хранилища токенов от других производных ключей
	input := append(append([]byte{}, secret...), []byte("token-store")...)
	return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}

// deviceFile - файл рядом с локальной БД, хранит соль и случайный секрет устройства
type deviceFile struct {
	Salt   string `json:"salt"`
	Secret string `json:"secret"`
}

// DeviceKey возвращает ключ защищенного хранилища токенов.
// Соль (и случайный секрет, если passphrase пустая) хранятся в файле path с правами 0600;
// файл создается при первом вызове.
func DeviceKey(path, passphrase string) ([]byte, error) {
	df, err := loadDeviceFile(path)
	if errors.Is(err, os.ErrNotExist) {
		df, err = createDeviceFile(path)
	}
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(df.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	secret := []byte(passphrase)
	if len(secret) == 0 {
		if secret, err = base64.StdEncoding.DecodeString(df.Secret); err != nil {
			return nil, fmt.Errorf("failed to decode device secret: %w", err)
		}
	}
	return DeriveKey(secret, salt)
}

func loadDeviceFile(path string) (*deviceFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var df deviceFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("failed to parse device key file: %w", err)
	}
	return &df, nil
}

func createDeviceFile(path string) (*deviceFile, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	secret, err := randomBytes(SecretSize)
	if err != nil {
		return nil, err
	}
	df := &deviceFile{
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Secret: base64.StdEncoding.EncodeToString(secret),
	}
	raw, err := json.Marshal(df)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal device key file: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write device key file: %w", err)
	}
	return df, nil
}
