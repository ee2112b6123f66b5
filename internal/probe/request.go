package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout is the wire-level default for every probe, in seconds.
const defaultTimeout = 5.0

// HTTPRequest describes an HTTP reachability check. Field names and defaults
// are part of the wire contract; unknown fields in the incoming JSON are
// dropped silently.
type HTTPRequest struct {
	Type    string  `json:"type"`
	Address string  `json:"address"`
	Port    int     `json:"port"`
	Timeout float64 `json:"timeout"`
	Method  string  `json:"method"`
	SSL     bool    `json:"ssl"`
}

// IMAPRequest describes an IMAP connectivity check. TLS is on unless the
// caller switches it off.
type IMAPRequest struct {
	Type     string  `json:"type"`
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	SSL      bool    `json:"ssl"`
	Timeout  float64 `json:"timeout"`
	Username string  `json:"username"`
	Password string  `json:"password"`
}

// SMTPRequest describes an SMTP connectivity check. UseTLS selects implicit
// TLS from the first byte, StartTLS upgrades a plain session; they are
// mutually exclusive.
type SMTPRequest struct {
	Type          string  `json:"type"`
	Host          string  `json:"host"`
	Port          int     `json:"port"`
	Timeout       float64 `json:"timeout"`
	UseTLS        bool    `json:"use_tls"`
	StartTLS      bool    `json:"start_tls"`
	ValidateCerts bool    `json:"validate_certs"`
	Username      string  `json:"username"`
	Password      string  `json:"password"`
}

func parseHTTPRequest(raw []byte) (HTTPRequest, error) {
	req := HTTPRequest{Type: TypeHTTP, Timeout: defaultTimeout, Method: http.MethodGet}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Address == "" {
		return req, errors.New("address is required")
	}
	if err := checkPort(req.Port); err != nil {
		return req, err
	}
	return req, checkTimeout(req.Timeout)
}

func parseIMAPRequest(raw []byte) (IMAPRequest, error) {
	req := IMAPRequest{Type: TypeIMAP, SSL: true, Timeout: defaultTimeout}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	if req.Host == "" {
		return req, errors.New("host is required")
	}
	if err := checkPort(req.Port); err != nil {
		return req, err
	}
	return req, checkTimeout(req.Timeout)
}

func parseSMTPRequest(raw []byte) (SMTPRequest, error) {
	req := SMTPRequest{Type: TypeSMTP, Timeout: defaultTimeout, ValidateCerts: true}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	if req.Host == "" {
		return req, errors.New("host is required")
	}
	if err := checkPort(req.Port); err != nil {
		return req, err
	}
	return req, checkTimeout(req.Timeout)
}

// hasCredentials reports whether a login should be attempted. Both values
// must be present; a lone username or a lone password means the check stays
// unauthenticated rather than failing.
func (r IMAPRequest) hasCredentials() bool { return r.Username != "" && r.Password != "" }

func (r SMTPRequest) hasCredentials() bool { return r.Username != "" && r.Password != "" }

func checkPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", port)
	}
	return nil
}

func checkTimeout(seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", seconds)
	}
	return nil
}

// duration converts wire-level float seconds into a time.Duration.
func duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
