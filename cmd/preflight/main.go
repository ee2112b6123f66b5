// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Checks a deployment's environment before the API is started.
func main() {
	failed := false
	bad := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	logDir := strings.TrimSpace(os.Getenv("LOG_DIR"))
	rpm := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPM"))
	burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST"))

	if addr == "" {
		warn("ADDR is empty; the API will bind 127.0.0.1:8080.")
	} else {
		ok("ADDR=" + addr)
	}

	if logDir == "" {
		logDir = "logs"
		warn("LOG_DIR is empty; defaulting to ./logs.")
	}
	probe := filepath.Join(logDir, ".preflight")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		bad("LOG_DIR not creatable: " + err.Error())
	} else if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		bad("LOG_DIR not writable: " + err.Error())
	} else {
		_ = os.Remove(probe)
		ok("LOG_DIR writable: " + logDir)
	}

	for name, v := range map[string]string{"RATE_LIMIT_RPM": rpm, "RATE_LIMIT_BURST": burst} {
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			bad(name + " is not a non-negative integer: " + v)
		} else {
			ok(name + "=" + v)
		}
	}
	if rpm == "" {
		warn("RATE_LIMIT_RPM unset; throttling is off and any client can flood the probes.")
	}

	if hook := strings.TrimSpace(os.Getenv("WEBHOOK_URL")); hook != "" {
		if u, err := url.Parse(hook); err != nil || u.Scheme != "http" && u.Scheme != "https" {
			bad("WEBHOOK_URL is not an http(s) URL: " + hook)
		} else {
			ok("WEBHOOK_URL=" + hook)
		}
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
