package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex-encoded HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares received byte for byte against the expected lower-case hex
// signature in constant time.
func Verify(secret string, payload []byte, received string) bool {
	if secret == "" || received == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(received))
}

// CompletionPayload is the message a checkout client signs to prove a payment
// belongs to an order: orderID + "|" + paymentID.
func CompletionPayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}
