package admin

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"

	"golang.org/x/crypto/argon2"
)

func encodeHash(t *testing.T, password string) string {
	t.Helper()

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("генерация соли: %v", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 3, 64*1024, 2, 32)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 64*1024, 3, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

func TestVerifyPassword(t *testing.T) {
	encoded := encodeHash(t, "секретный-пароль")

	ok, err := verifyPassword("секретный-пароль", encoded)
	if err != nil {
		t.Fatalf("verifyPassword: %v", err)
	}
	if !ok {
		t.Error("правильный пароль не прошёл проверку")
	}

	ok, err = verifyPassword("не тот пароль", encoded)
	if err != nil {
		t.Fatalf("verifyPassword: %v", err)
	}
	if ok {
		t.Error("неправильный пароль прошёл проверку")
	}
}

func TestVerifyPasswordBadFormat(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$something$else",
		"$argon2id$v=19$m=65536,t=3,p=2$не-base64$тоже",
	} {
		if _, err := verifyPassword("пароль", encoded); err == nil {
			t.Errorf("хэш %q должен отклоняться с ошибкой", encoded)
		}
	}
}
