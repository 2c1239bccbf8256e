package config

import (
	"strings"
	"testing"
)

func TestValidateAcceptsUnixAndTCPServers(t *testing.T) {
	unix := Default()
	unix.Server.Transport = "unix"
	if err := Validate(unix); err != nil {
		t.Fatalf("Validate(unix) = %v, want nil", err)
	}

	tcp := Default()
	tcp.Server.Transport = "tcp"
	tcp.Server.TCPAddr = "127.0.0.1:23456"
	if err := Validate(tcp); err != nil {
		t.Fatalf("Validate(tcp) = %v, want nil", err)
	}
}

func TestValidateRejectsBadTransportAndAddresses(t *testing.T) {
	cfg := Default()
	cfg.Server.Transport = "pipe"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "server.transport") {
		t.Fatalf("Validate() = %v, want transport error", err)
	}

	cfg = Default()
	cfg.Server.Transport = "unix"
	cfg.Server.SocketPath = "relative.sock"
	err = Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "must be absolute") {
		t.Fatalf("Validate() = %v, want absolute path error", err)
	}

	cfg = Default()
	cfg.Server.Transport = "tcp"
	cfg.Server.TCPAddr = "no-port"
	err = Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "server.tcp_addr") {
		t.Fatalf("Validate() = %v, want tcp_addr error", err)
	}
}

func TestValidateAggregatesDurationLogAndTracingErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.SubmitTimeout = "later"
	cfg.Selection.TTL = "0s"
	cfg.Log.Level = "chatty"
	cfg.Tracing.Exporter = "zipkin"
	cfg.Tracing.SampleRate = 2

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() error = nil, want aggregated errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"server.submit_timeout",
		"selection.ttl: must be > 0",
		"log.level",
		"tracing.exporter",
		"tracing.sample_rate",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Validate() error = %q, want it to mention %q", msg, want)
		}
	}
}

func TestValidateNilConfig(t *testing.T) {
	if err := Validate(nil); err != nil {
		t.Fatalf("Validate(nil) = %v, want nil", err)
	}
}
