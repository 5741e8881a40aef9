package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signatures use the scheme `t=<unix>,v1=<hex hmac-sha256>` where the
// MAC covers `<unix>.<body>`. Signed timestamps older than the tolerance are
// rejected to blunt replay.
const signatureTolerance = 5 * time.Minute

func computeSignature(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

// signPayload produces a signature header for a body. Used by the mock
// gateway and by tests.
func signPayload(secret []byte, t time.Time, body []byte) string {
	unix := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", unix, computeSignature(secret, unix, body))
}

func verifySignature(secret []byte, sigHeader string, body []byte, now time.Time) error {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}
	if d := now.Sub(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
		return ErrInvalidSignature
	}

	want := computeSignature(secret, ts, body)
	for _, got := range sigs {
		if hmac.Equal([]byte(want), []byte(got)) {
			return nil
		}
	}
	return ErrInvalidSignature
}
