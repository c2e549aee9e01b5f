package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Signature"

// VerifySignature validates the hex HMAC-SHA256 of payload.
func VerifySignature(payload []byte, signature string, secretKey string) bool {
	signature = strings.TrimSpace(signature)
	if secretKey == "" || signature == "" {
		return false
	}

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, sign(payload, secretKey))
}

// GenerateSignature creates the hex HMAC-SHA256 signature of payload.
func GenerateSignature(payload []byte, secretKey string) string {
	if secretKey == "" {
		return ""
	}
	return hex.EncodeToString(sign(payload, secretKey))
}

func sign(payload []byte, secretKey string) []byte {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return h.Sum(nil)
}
