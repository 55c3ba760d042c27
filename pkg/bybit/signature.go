package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Sign returns the lowercase hex HMAC-SHA256 of
// timestamp + apiKey + recvWindow + query, keyed with secret.
// query must be byte-identical to the string sent on the wire.
func Sign(secret []byte, timestamp, apiKey, recvWindow, query string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(apiKey))
	mac.Write([]byte(recvWindow))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// Timestamp formats t as epoch milliseconds.
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
