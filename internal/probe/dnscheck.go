package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSStatus classifies how a probe target's hostname resolves. It feeds the
// failure logs only; the caller-facing envelope never carries it.
type DNSStatus struct {
	Host          string
	IPs           []net.IP
	Class         string // "RESOLVES" | "NXDOMAIN" | "NO_A_RECORD" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// CheckDNS resolves host with the OS resolver and classifies the outcome.
// IP literals count as RESOLVES without a lookup.
func CheckDNS(host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.ContainsAny(s.Host, "/ ") {
		s.Class = "INVALID_NAME"
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.IPs = []net.IP{ip}
		s.Class = "RESOLVES"
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", s.Host)
	if err == nil && len(ips) > 0 {
		s.IPs = ips
		s.Class = "RESOLVES"
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
		s.Class = classifyResolverError(err)
	} else {
		// Answered but empty: no address records for the name.
		s.Class = "NXDOMAIN"
	}

	// Only NXDOMAIN gets second-guessed: a zone that exists with no address
	// records looks identical on the address lookup, and an NS answer tells
	// the two apart. Transient resolver failures keep their class.
	if s.Class == "NXDOMAIN" {
		if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
			s.Class = "NO_A_RECORD"
		}
	}
	return s
}

// classifyResolverError maps a failed address lookup to a DNS class.
func classifyResolverError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return "NXDOMAIN"
	}
	return "SERVFAIL_or_TIMEOUT"
}
