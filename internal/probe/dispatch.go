package probe

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"netcheck/internal/metrics"
	"netcheck/internal/notify"
)

// Per-protocol prober seams. Split by protocol so tests can prove that a
// rejected request never reaches the network.
type httpProber interface {
	Probe(ctx context.Context, req HTTPRequest) Result
}

type imapProber interface {
	Probe(ctx context.Context, req IMAPRequest) Result
}

type smtpProber interface {
	Probe(ctx context.Context, req SMTPRequest) Result
}

// Dispatcher routes a raw check request to the probe named by its "type"
// field and folds every fault into the failure envelope.
type Dispatcher struct {
	log  *zap.Logger
	http httpProber
	imap imapProber
	smtp smtpProber

	// diagnose classifies the target's DNS state for the failure log.
	diagnose func(host string) DNSStatus

	// notify, when set, receives an event for every failed probe.
	notify notify.Notifier
}

// NewDispatcher wires the real probers. hook may be nil to disable failure
// notifications.
func NewDispatcher(log *zap.Logger, hook *notify.Webhook) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		http:     NewHTTPProber(),
		imap:     &IMAPProber{},
		smtp:     &SMTPProber{},
		diagnose: CheckDNS,
	}
	if hook != nil {
		d.notify = hook
	}
	return d
}

// Dispatch runs one check described by raw. It never returns an error: an
// unreadable body, an unknown type, a rejected field or a refused handshake
// all come back as the same failure envelope the caller already knows how to
// read. A missing or null type tag defaults to HTTP; matching is
// case-insensitive, and an explicit empty string is an unsupported type, not
// the default.
func (d *Dispatcher) Dispatch(ctx context.Context, raw json.RawMessage) Result {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		metrics.ProbesTotal.WithLabelValues("unknown", "invalid").Inc()
		d.log.Info("check_rejected", zap.String("reason", err.Error()))
		return Failure{Status: StatusFail, Error: "invalid request body: " + err.Error()}
	}
	kind := TypeHTTP
	if head.Type != nil {
		kind = strings.ToUpper(*head.Type)
	}

	var (
		out  Result
		host string
	)
	start := time.Now()
	switch kind {
	case TypeHTTP:
		req, err := parseHTTPRequest(raw)
		if err != nil {
			return d.rejected(kind, err)
		}
		host = req.Address
		out = d.http.Probe(ctx, req)
	case TypeIMAP:
		req, err := parseIMAPRequest(raw)
		if err != nil {
			return d.rejected(kind, err)
		}
		host = req.Host
		out = d.imap.Probe(ctx, req)
	case TypeSMTP:
		req, err := parseSMTPRequest(raw)
		if err != nil {
			return d.rejected(kind, err)
		}
		host = req.Host
		out = d.smtp.Probe(ctx, req)
	default:
		// kind is caller-chosen here; the label vocabulary stays fixed.
		metrics.ProbesTotal.WithLabelValues("OTHER", "unsupported").Inc()
		d.log.Info("check_unsupported", zap.String("type", kind))
		return failf("", "Unsupported type %s", kind)
	}
	elapsed := time.Since(start)
	metrics.ProbeDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	if out.Failed() {
		metrics.ProbesTotal.WithLabelValues(kind, "fail").Inc()
		d.logFailure(kind, host, elapsed, out)
	} else {
		metrics.ProbesTotal.WithLabelValues(kind, "success").Inc()
		d.log.Info("check_ok",
			zap.String("type", kind),
			zap.String("host", host),
			zap.Duration("elapsed", elapsed),
		)
	}
	return out
}

func (d *Dispatcher) rejected(kind string, err error) Failure {
	metrics.ProbesTotal.WithLabelValues(kind, "invalid").Inc()
	d.log.Info("check_rejected",
		zap.String("type", kind),
		zap.String("reason", err.Error()),
	)
	return fail(kind, err)
}

// logFailure records why a probe failed and attaches a DNS classification of
// the target, so operators can tell a dead name from a dead service. The same
// event goes to the webhook when one is configured.
func (d *Dispatcher) logFailure(kind, host string, elapsed time.Duration, out Result) {
	f, ok := out.(Failure)
	if !ok {
		return
	}
	dns := d.diagnose(host)
	d.log.Info("check_failed",
		zap.String("type", kind),
		zap.String("host", host),
		zap.Duration("elapsed", elapsed),
		zap.String("error", f.Error),
		zap.String("dns_class", dns.Class),
		zap.String("dns_error", dns.ResolverError),
	)
	if d.notify == nil {
		return
	}
	ev := notify.Event{Event: "probe_failed", Type: kind, Host: host, Error: f.Error, DNS: dns.Class}
	go func() {
		// The caller's context dies with the response, so the push gets its own.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.notify.Send(ctx, ev); err != nil {
			d.log.Warn("notify_error", zap.Error(err))
		}
	}()
}
