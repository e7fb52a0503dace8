package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/secondbrain/internal/config"
)

// signatureFreshness is how far a request timestamp may drift from now
// before the request is rejected as a possible replay.
const signatureFreshness = 300 * time.Second

// VerifySignature checks a request against Slack's signing scheme: an
// HMAC-SHA256 of "v0:{timestamp}:{body}" keyed by the signing secret,
// compared in constant time, with a freshness window on the timestamp.
func VerifySignature(secret config.Secret, timestamp, signature string, body []byte, now time.Time) bool {
	if timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	drift := now.Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(signatureFreshness.Seconds()) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret.Value()))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
