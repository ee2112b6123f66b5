package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
)

// Small client for poking a running netcheck API by hand:
//
//	netcheck-cli -type smtp -host mail.example.org -port 587 -starttls
//	netcheck-cli -type http -address example.org -port 443
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	var (
		typ      = flag.String("type", "http", "probe type: http, imap or smtp")
		address  = flag.String("address", "", "target for http checks")
		host     = flag.String("host", "", "target for imap/smtp checks")
		port     = flag.Int("port", 0, "target port")
		timeout  = flag.Float64("timeout", 0, "per-step timeout in seconds (0 = server default)")
		method   = flag.String("method", "", "http method")
		ssl      = flag.Bool("ssl", false, "http: force https; imap: toggle TLS (on by default server-side)")
		sslSet   = false
		useTLS   = flag.Bool("use-tls", false, "smtp: implicit TLS")
		startTLS = flag.Bool("starttls", false, "smtp: upgrade via STARTTLS")
		insecure = flag.Bool("insecure", false, "smtp: skip certificate verification")
		username = flag.String("username", "", "login user")
		password = flag.String("password", "", "login password")
	)
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "ssl" {
			sslSet = true
		}
	})

	payload := map[string]any{"type": *typ}
	if *address != "" {
		payload["address"] = *address
	}
	if *host != "" {
		payload["host"] = *host
	}
	if *port != 0 {
		payload["port"] = *port
	}
	if *timeout != 0 {
		payload["timeout"] = *timeout
	}
	if *method != "" {
		payload["method"] = *method
	}
	if sslSet {
		payload["ssl"] = *ssl
	}
	if *useTLS {
		payload["use_tls"] = true
	}
	if *startTLS {
		payload["start_tls"] = true
	}
	if *insecure {
		payload["validate_certs"] = false
	}
	if *username != "" {
		payload["username"] = *username
	}
	if *password != "" {
		payload["password"] = *password
	}

	body, _ := json.Marshal(payload)
	resp, err := http.Post(api+"/check", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintln(os.Stderr, "bad response:", err)
		os.Exit(1)
	}
	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))

	if out["status"] != "success" {
		os.Exit(1)
	}
}
