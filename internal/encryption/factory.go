package encryption

import (
	"fmt"

	"vv-go/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the encryption
// config type. An empty type returns (nil, nil): snapshot encryption is
// disabled and callers must check for nil.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (Encryptor, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %s", cfg.Type)
	}
}
