package linkplay

import (
	"crypto/tls"
	"net/http"
	"time"
)

// newInsecureClient builds the HTTPS fallback client. Certificate
// verification is disabled: Linkplay devices serve self-signed certificates
// and the traffic never leaves the local network.
func newInsecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // local devices lack CA chains
			},
		},
	}
}
