package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// WebhookSignature computes the keyed MAC the gateway sends alongside each
// webhook delivery: hex(HMAC-SHA512(secret, raw body)).
func WebhookSignature(secret, body []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the claimed signature against the one
// computed over the raw body. Constant-time compare; an empty claim never
// matches.
func VerifyWebhookSignature(secret, body []byte, claimed string) bool {
	if claimed == "" {
		return false
	}
	want, err := hex.DecodeString(claimed)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
