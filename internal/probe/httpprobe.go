package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps how much of a response body a probe reads back. The probe
// verifies reachability; it is not a download client.
const maxBodyBytes = 1 << 20

// HTTPProber performs a single HTTP request against address:port and passes
// the response through for diagnosis.
type HTTPProber struct {
	// Client serves every request. Per-check timeouts ride on the request
	// context, so the client itself carries none.
	Client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{Client: &http.Client{}}
}

// Probe builds scheme://address:port and performs one request. Port 443 or
// the ssl flag selects https. Reachability is the verdict: any well-formed
// response is a success no matter its status code.
func (p *HTTPProber) Probe(ctx context.Context, req HTTPRequest) Result {
	scheme := schemeFor(req.Port, req.SSL)
	url := fmt.Sprintf("%s://%s:%d", scheme, req.Address, req.Port)

	ctx, cancel := context.WithTimeout(ctx, duration(req.Timeout))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, nil)
	if err != nil {
		return fail(TypeHTTP, err)
	}
	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return fail(TypeHTTP, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(TypeHTTP, err)
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}

	return HTTPResult{
		Status:   StatusSuccess,
		Protocol: scheme,
		Type:     TypeHTTP,
		Code:     resp.StatusCode,
		Headers:  headers,
		Body:     string(body),
	}
}

// schemeFor picks https on the conventional TLS port or when the caller asks
// for it.
func schemeFor(port int, ssl bool) string {
	if port == 443 || ssl {
		return "https"
	}
	return "http"
}
