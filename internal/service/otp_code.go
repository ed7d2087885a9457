package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const defaultCodeLength = 6

// generateOTP devuelve un codigo numerico de length digitos y su hash salado "salt:hash".
func generateOTP(length int) (string, string, error) {
	if length <= 0 || length > 18 {
		length = defaultCodeLength
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%0*d", length, n.Int64())

	hash, err := hashOTP(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}

func hashOTP(code string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	return saltStr + ":" + digestOTP(saltStr, code), nil
}

func digestOTP(salt, code string) string {
	sum := sha256.Sum256([]byte(salt + ":" + code))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func verifyOTP(code, stored string) bool {
	saltStr, expected, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(digestOTP(saltStr, code)), []byte(expected)) == 1
}

func isValidOTPCode(code string, length int) bool {
	if length <= 0 {
		length = defaultCodeLength
	}
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
