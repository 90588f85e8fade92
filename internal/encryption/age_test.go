package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"vv-go/internal/config"
)

func newAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "vv.pub"),
		PrivateKeyPath: filepath.Join(dir, "vv.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	e := newAgeEncryptor(t)

	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup")
	}

	if err := e.Setup("correct horse battery staple"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup")
	}

	// Public key is plaintext age format
	pub, err := os.ReadFile(e.publicKeyPath)
	if err != nil {
		t.Fatalf("reading public key: %v", err)
	}
	if !bytes.HasPrefix(pub, []byte("age1")) {
		t.Errorf("public key = %q, want age1 prefix", pub)
	}

	// Private key is passphrase-encrypted, never plaintext
	priv, err := os.ReadFile(e.privateKeyPath)
	if err != nil {
		t.Fatalf("reading private key: %v", err)
	}
	if bytes.Contains(priv, []byte("AGE-SECRET-KEY")) {
		t.Error("private key stored in plaintext")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	e := newAgeEncryptor(t)
	if err := e.Setup("passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	plaintext := []byte("catalog snapshot contents")

	var ciphertext bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Contains(ciphertext.Bytes(), plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	d, err := e.Unlock("passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	var decrypted bytes.Buffer
	if err := d.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted.Bytes(), plaintext)
	}
}

func TestAgeEncryptor_WrongPassphrase(t *testing.T) {
	e := newAgeEncryptor(t)
	if err := e.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if _, err := e.Unlock("wrong"); err == nil {
		t.Fatal("Unlock() with wrong passphrase succeeded")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Run("empty type disables encryption", func(t *testing.T) {
		e, err := NewEncryptorFromConfig(config.EncryptionConfig{})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if e != nil {
			t.Errorf("got %T, want nil", e)
		}
	})

	t.Run("age", func(t *testing.T) {
		e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "age"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := e.(*AgeEncryptor); !ok {
			t.Errorf("got %T, want *AgeEncryptor", e)
		}
	})

	t.Run("test", func(t *testing.T) {
		e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "test"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := e.(*TestEncryptor); !ok {
			t.Errorf("got %T, want *TestEncryptor", e)
		}
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "rot13"}); err == nil {
			t.Fatal("NewEncryptorFromConfig() succeeded for unknown type")
		}
	})
}
