package nekoai

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

const accessKeyDomain = "novelai_data_access_key"

// argon2 cost parameters fixed by the backend's login scheme. Changing
// any of them produces a key the backend will reject.
const (
	argonTime    = 2
	argonMemory  = 1953
	argonThreads = 1
	argonKeyLen  = 64
)

// accessKey derives the login access key from raw credentials. The salt
// is a 16-byte blake2b digest of the first six password characters, the
// email and a fixed domain string; the key itself is argon2id, encoded
// urlsafe and truncated to 64 characters.
func accessKey(email, password string) (string, error) {
	if len(password) < 6 {
		return "", invalidField("password", "must be at least 6 characters")
	}

	h, err := blake2b.New(16, nil)
	if err != nil {
		return "", fmt.Errorf("derive access key: %w", err)
	}
	h.Write([]byte(password[:6] + email + accessKeyDomain))
	salt := h.Sum(nil)

	raw := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.URLEncoding.EncodeToString(raw)[:64], nil
}
