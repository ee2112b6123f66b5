package probe

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPProber checks that an IMAP server produces its greeting and, when
// credentials are supplied, accepts a LOGIN.
type IMAPProber struct{}

// Probe dials host:port (TLS with full verification unless ssl is off),
// waits for the untagged greeting, optionally logs in, and says goodbye.
// Each protocol step runs under its own deadline; a server that stalls
// mid-step fails that step instead of hanging the check.
func (p *IMAPProber) Probe(ctx context.Context, req IMAPRequest) Result {
	timeout := duration(req.Timeout)
	addr := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))

	conn, err := dialIMAP(ctx, addr, req.SSL, timeout)
	if err != nil {
		return fail(TypeIMAP, err)
	}
	defer conn.Close()

	client := imapclient.New(conn, nil)
	defer client.Close()

	// The server speaks first.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if err := client.WaitGreeting(); err != nil {
		return fail(TypeIMAP, err)
	}

	if req.hasCredentials() {
		_ = conn.SetDeadline(time.Now().Add(timeout))
		if err := client.Login(req.Username, req.Password).Wait(); err != nil {
			return fail(TypeIMAP, err)
		}
	}

	// Best-effort goodbye. The contract was proven by the greeting and the
	// login above; a server that fumbles LOGOUT does not undo that.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	_ = client.Logout().Wait()

	protocol := "imap"
	if req.SSL {
		protocol = "imaps"
	}
	return IMAPResult{
		Status:   StatusSuccess,
		Type:     TypeIMAP,
		Protocol: protocol,
		Message:  "IMAP connected!",
	}
}

func dialIMAP(ctx context.Context, addr string, ssl bool, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	if ssl {
		// DialWithDialer bounds the handshake by the dialer timeout and
		// derives ServerName from addr.
		return tls.DialWithDialer(dialer, "tcp", addr, nil)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}
