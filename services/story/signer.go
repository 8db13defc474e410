package story

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const signatureAlgorithm = "hmac-sha256"

// SigningString is the canonical text covered by the HMAC
func SigningString(host, date, path string) string {
	return fmt.Sprintf("host: %s\ndate: %s\nGET %s HTTP/1.1", host, date, path)
}

// Sign returns the base64 HMAC-SHA256 of the signing string
func Sign(apiSecret, signingString string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(signingString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignURL appends the authorization, date and host query parameters to the
// endpoint. The date is RFC 1123 in GMT.
func SignURL(endpoint, apiKey, apiSecret string, now time.Time) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	date := now.UTC().Format(http.TimeFormat)
	signature := Sign(apiSecret, SigningString(u.Host, date, u.Path))

	authorization := fmt.Sprintf(`api_key="%s", algorithm="%s", headers="host date request-line", signature="%s"`,
		apiKey, signatureAlgorithm, signature)

	params := url.Values{}
	params.Set("authorization", base64.StdEncoding.EncodeToString([]byte(authorization)))
	params.Set("date", date)
	params.Set("host", u.Host)

	return endpoint + "?" + params.Encode(), nil
}
