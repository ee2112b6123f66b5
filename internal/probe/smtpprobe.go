package probe

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Session modes reported in the result envelope.
const (
	modeSMTPS    = "SMTPS"
	modeStartTLS = "SMTP+STARTTLS"
	modePlain    = "PLAIN"
)

var errModeConflict = errors.New("cannot use both use_tls and start_tls, choose one mode")

// SMTPProber checks an SMTP server: banner, optional STARTTLS upgrade,
// optional AUTH, clean QUIT.
type SMTPProber struct{}

func (p *SMTPProber) Probe(ctx context.Context, req SMTPRequest) Result {
	// Implicit TLS and STARTTLS are two ways of reaching the same TLS
	// session; refuse the combination before touching the network.
	if req.UseTLS && req.StartTLS {
		return fail(TypeSMTP, errModeConflict)
	}

	timeout := duration(req.Timeout)
	addr := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: req.Host,
	}
	if !req.ValidateCerts {
		// Turns off chain and hostname verification both; the check then
		// only proves that a TLS stack answers on the other side.
		tlsConfig.InsecureSkipVerify = true
	}

	conn, err := dialSMTP(ctx, addr, req.UseTLS, tlsConfig, timeout)
	if err != nil {
		return fail(TypeSMTP, err)
	}
	defer conn.Close()

	greeting, wire, err := readGreeting(conn, timeout)
	if err != nil {
		return fail(TypeSMTP, err)
	}

	client, err := newSMTPClient(stepBound(wire, timeout), req.StartTLS, tlsConfig)
	if err != nil {
		return fail(TypeSMTP, err)
	}
	defer client.Close()
	client.CommandTimeout = timeout

	if req.hasCredentials() {
		if err := client.Auth(saslClient(client, req.Username, req.Password)); err != nil {
			return fail(TypeSMTP, err)
		}
	}
	if err := client.Quit(); err != nil {
		return fail(TypeSMTP, err)
	}

	mode := modePlain
	switch {
	case req.UseTLS:
		mode = modeSMTPS
	case req.StartTLS:
		mode = modeStartTLS
	}
	return SMTPResult{
		Status:          StatusSuccess,
		Type:            TypeSMTP,
		Protocol:        "smtp",
		GreetingCode:    greeting.code,
		GreetingMessage: greeting.message,
		Mode:            mode,
		ValidateCerts:   req.ValidateCerts,
	}
}

func dialSMTP(ctx context.Context, addr string, implicitTLS bool, cfg *tls.Config, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	if implicitTLS {
		return tls.DialWithDialer(dialer, "tcp", addr, cfg)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func newSMTPClient(conn net.Conn, startTLS bool, cfg *tls.Config) (*smtp.Client, error) {
	if startTLS {
		return smtp.NewClientStartTLS(conn, cfg)
	}
	return smtp.NewClient(conn), nil
}

// saslClient picks PLAIN when the server advertises it and falls back to
// LOGIN, which older servers hand out instead.
func saslClient(c *smtp.Client, username, password string) sasl.Client {
	if !c.SupportsAuth(sasl.Plain) && c.SupportsAuth(sasl.Login) {
		return sasl.NewLoginClient(username, password)
	}
	return sasl.NewPlainClient("", username, password)
}

type smtpGreeting struct {
	code    int
	message string
}

// readGreeting consumes the server banner under a read deadline, keeping a
// copy of the raw bytes so the SMTP client layered on top can parse the
// banner again itself. The returned conn replays those bytes before resuming
// from the wire. Anything but a 220 is an error.
func readGreeting(conn net.Conn, timeout time.Duration) (smtpGreeting, net.Conn, error) {
	var seen bytes.Buffer
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	tp := textproto.NewReader(bufio.NewReader(io.TeeReader(conn, &seen)))
	code, message, err := tp.ReadResponse(220)
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		return smtpGreeting{}, conn, fmt.Errorf("read greeting: %w", err)
	}
	replay := &replayConn{Conn: conn, reader: io.MultiReader(bytes.NewReader(seen.Bytes()), conn)}
	return smtpGreeting{code: code, message: message}, replay, nil
}

// replayConn is a net.Conn whose reads are served from already-captured
// bytes before falling through to the wire.
type replayConn struct {
	net.Conn
	reader io.Reader
}

func (c *replayConn) Read(p []byte) (int, error) { return c.reader.Read(p) }

// stepConn caps every deadline set on the conn at maxStep from the moment of
// the call. The SMTP client arms its own per-command deadlines, five minutes
// by default, and does so before CommandTimeout can even be configured when
// the STARTTLS exchange runs inside the constructor. The cap keeps every
// protocol step bounded by the caller's timeout.
type stepConn struct {
	net.Conn
	maxStep time.Duration
}

func stepBound(conn net.Conn, maxStep time.Duration) net.Conn {
	return &stepConn{Conn: conn, maxStep: maxStep}
}

func (c *stepConn) clamp(t time.Time) time.Time {
	limit := time.Now().Add(c.maxStep)
	if t.IsZero() || t.After(limit) {
		return limit
	}
	return t
}

func (c *stepConn) SetDeadline(t time.Time) error      { return c.Conn.SetDeadline(c.clamp(t)) }
func (c *stepConn) SetReadDeadline(t time.Time) error  { return c.Conn.SetReadDeadline(c.clamp(t)) }
func (c *stepConn) SetWriteDeadline(t time.Time) error { return c.Conn.SetWriteDeadline(c.clamp(t)) }
