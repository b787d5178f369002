// Package webhooksig implements the processor's webhook signature scheme:
// hex(HMAC-SHA256(secret, timestamp + "." + body)) carried in the
// X-Webhook-Signature / X-Webhook-Timestamp headers.
package webhooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
)

var (
	ErrMissingHeaders   = errors.New("missing signature headers")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrTimestampTooOld  = errors.New("signature timestamp outside accepted window")
)

// Headers is the parsed signature material of one delivery.
type Headers struct {
	Signature string
	Timestamp int64
}

// FromRequest extracts signature headers from an HTTP request.
func FromRequest(r *http.Request) (Headers, error) {
	sig := r.Header.Get(HeaderSignature)
	ts := r.Header.Get(HeaderTimestamp)
	if sig == "" || ts == "" {
		return Headers{}, ErrMissingHeaders
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Headers{}, fmt.Errorf("%w: bad timestamp", ErrMissingHeaders)
	}
	return Headers{Signature: sig, Timestamp: unix}, nil
}

// Sign computes signature headers for a payload at the given time. Used by
// clients and tests; the service itself only verifies.
func Sign(secret string, payload []byte, at time.Time) Headers {
	ts := at.Unix()
	return Headers{
		Signature: compute(secret, payload, ts),
		Timestamp: ts,
	}
}

// Verify checks payload authenticity and bounds the timestamp age when
// maxAge > 0. Comparison is constant-time.
func Verify(secret string, payload []byte, h Headers, maxAge time.Duration) error {
	if h.Signature == "" {
		return ErrMissingHeaders
	}
	if maxAge > 0 {
		age := time.Since(time.Unix(h.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: age=%s", ErrTimestampTooOld, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: timestamp in the future", ErrTimestampTooOld)
		}
	}
	expected := compute(secret, payload, h.Timestamp)
	if !hmac.Equal([]byte(expected), []byte(h.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func compute(secret string, payload []byte, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
