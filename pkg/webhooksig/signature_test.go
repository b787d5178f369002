package webhooksig

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify_RoundTrip(t *testing.T) {
	payload := []byte(`{"type":"checkout.completed"}`)
	h := Sign("whsec_test", payload, time.Now())
	require.NoError(t, Verify("whsec_test", payload, h, 5*time.Minute))
}

func TestVerify_RejectsTamperedBody(t *testing.T) {
	h := Sign("whsec_test", []byte("original"), time.Now())
	err := Verify("whsec_test", []byte("tampered"), h, 5*time.Minute)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	payload := []byte("body")
	h := Sign("whsec_a", payload, time.Now())
	require.ErrorIs(t, Verify("whsec_b", payload, h, 0), ErrInvalidSignature)
}

func TestVerify_RejectsStaleTimestamp(t *testing.T) {
	payload := []byte("body")
	h := Sign("whsec_test", payload, time.Now().Add(-time.Hour))
	require.ErrorIs(t, Verify("whsec_test", payload, h, 5*time.Minute), ErrTimestampTooOld)
}

func TestVerify_RejectsFutureTimestamp(t *testing.T) {
	payload := []byte("body")
	h := Sign("whsec_test", payload, time.Now().Add(10*time.Minute))
	require.ErrorIs(t, Verify("whsec_test", payload, h, 5*time.Minute), ErrTimestampTooOld)
}

func TestVerify_NoMaxAgeSkipsWindowCheck(t *testing.T) {
	payload := []byte("body")
	h := Sign("whsec_test", payload, time.Now().Add(-24*time.Hour))
	require.NoError(t, Verify("whsec_test", payload, h, 0))
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		ts      string
		wantErr bool
	}{
		{name: "both present", sig: "abc", ts: "1700000000"},
		{name: "missing signature", ts: "1700000000", wantErr: true},
		{name: "missing timestamp", sig: "abc", wantErr: true},
		{name: "garbage timestamp", sig: "abc", ts: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/webhook", nil)
			if tt.sig != "" {
				r.Header.Set(HeaderSignature, tt.sig)
			}
			if tt.ts != "" {
				r.Header.Set(HeaderTimestamp, tt.ts)
			}
			h, err := FromRequest(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.sig, h.Signature)
			ts, _ := strconv.ParseInt(tt.ts, 10, 64)
			require.Equal(t, ts, h.Timestamp)
		})
	}
}
