package site

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// signSession returns a draft session value valid until expires:
// "<expires>.<space>.<hmac>".
func signSession(secret, space string, expires time.Time) string {
	payload := strconv.FormatInt(expires.Unix(), 10) + "." + space

	return payload + "." + sessionMAC(secret, payload)
}

// verifySession reports whether value was signed with secret and has not
// expired.
func verifySession(secret, value string, now time.Time) bool {
	if secret == "" || value == "" {
		return false
	}

	i := strings.LastIndexByte(value, '.')
	if i < 0 {
		return false
	}

	payload, signature := value[:i], value[i+1:]

	expected, err := hex.DecodeString(sessionMAC(secret, payload))
	if err != nil {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(provided, expected) {
		return false
	}

	expiresRaw, _, ok := strings.Cut(payload, ".")
	if !ok {
		return false
	}

	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return false
	}

	return now.Before(time.Unix(expires, 0))
}

func sessionMAC(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
