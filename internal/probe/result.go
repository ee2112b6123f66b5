package probe

import "fmt"

// Probe type names as they appear on the wire. The dispatcher upper-cases
// whatever the caller sent before matching against these.
const (
	TypeHTTP = "HTTP"
	TypeIMAP = "IMAP"
	TypeSMTP = "SMTP"
)

// Status tags every envelope as success or fail.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// Result is the envelope handed back to the caller. Every check produces
// exactly one of the concrete shapes below; all of them marshal to the flat
// JSON object the API returns with HTTP 200. Kind reports the probe type the
// envelope carries, "" when the fault predates type resolution.
type Result interface {
	Failed() bool
	Kind() string
}

// HTTPResult reports a completed HTTP exchange. The status code is
// diagnostic output, not a verdict: a 404 or a 500 still means the endpoint
// answered.
type HTTPResult struct {
	Status   Status            `json:"status"`
	Protocol string            `json:"protocol"`
	Type     string            `json:"type"`
	Code     int               `json:"code"`
	Headers  map[string]string `json:"headers"`
	Body     string            `json:"body"`
}

func (HTTPResult) Failed() bool { return false }

func (r HTTPResult) Kind() string { return r.Type }

// IMAPResult reports an IMAP server that produced its greeting and, when
// credentials were supplied, accepted a login.
type IMAPResult struct {
	Status   Status `json:"status"`
	Type     string `json:"type"`
	Protocol string `json:"protocol"`
	Message  string `json:"message"`
}

func (IMAPResult) Failed() bool { return false }

func (r IMAPResult) Kind() string { return r.Type }

// SMTPResult reports a completed SMTP session, echoing back the negotiated
// mode and whether certificates were verified.
type SMTPResult struct {
	Status          Status `json:"status"`
	Type            string `json:"type"`
	Protocol        string `json:"protocol"`
	GreetingCode    int    `json:"greeting_code"`
	GreetingMessage string `json:"greeting_message"`
	Mode            string `json:"mode"`
	ValidateCerts   bool   `json:"validate_certs"`
}

func (SMTPResult) Failed() bool { return false }

func (r SMTPResult) Kind() string { return r.Type }

// Failure is the uniform failure envelope. Type is empty only when the fault
// happened before the probe type could be resolved, for example on a body
// that is not JSON at all.
type Failure struct {
	Status Status `json:"status"`
	Type   string `json:"type,omitempty"`
	Error  string `json:"error"`
}

func (Failure) Failed() bool { return true }

func (f Failure) Kind() string { return f.Type }

func fail(typ string, err error) Failure {
	return Failure{Status: StatusFail, Type: typ, Error: err.Error()}
}

func failf(typ, format string, args ...any) Failure {
	return Failure{Status: StatusFail, Type: typ, Error: fmt.Sprintf(format, args...)}
}
