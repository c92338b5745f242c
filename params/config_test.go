package params

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.P2P.PublishTimeout != 10*time.Second {
		t.Errorf("PublishTimeout = %v, want 10s", cfg.P2P.PublishTimeout)
	}
	if cfg.P2P.DialRetries != 5 || cfg.P2P.RetryDelay != 2*time.Second {
		t.Errorf("retry policy = %d/%v, want 5 retries at 2s", cfg.P2P.DialRetries, cfg.P2P.RetryDelay)
	}
	if cfg.API.Addr != ":8080" {
		t.Errorf("API.Addr = %q", cfg.API.Addr)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("P2P_LISTEN", "/ip4/127.0.0.1/tcp/9000")
	t.Setenv("P2P_BOOTSTRAP", "/ip4/10.0.0.1/tcp/4001/p2p/QmA, /ip4/10.0.0.2/tcp/4001/p2p/QmB")
	t.Setenv("P2P_PUBLISH_TIMEOUT_MS", "2500")
	t.Setenv("P2P_DIAL_RETRIES", "3")
	t.Setenv("API_ADDR", ":9090")

	cfg := LoadFromEnv("")

	if cfg.P2P.ListenAddr != "/ip4/127.0.0.1/tcp/9000" {
		t.Errorf("ListenAddr = %q", cfg.P2P.ListenAddr)
	}
	if len(cfg.P2P.Bootstrap) != 2 || cfg.P2P.Bootstrap[1] != "/ip4/10.0.0.2/tcp/4001/p2p/QmB" {
		t.Errorf("Bootstrap = %v", cfg.P2P.Bootstrap)
	}
	if cfg.P2P.PublishTimeout != 2500*time.Millisecond {
		t.Errorf("PublishTimeout = %v", cfg.P2P.PublishTimeout)
	}
	if cfg.P2P.DialRetries != 3 {
		t.Errorf("DialRetries = %d", cfg.P2P.DialRetries)
	}
	if cfg.API.Addr != ":9090" {
		t.Errorf("API.Addr = %q", cfg.API.Addr)
	}
	// Untouched values keep their defaults.
	if cfg.P2P.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want default 2s", cfg.P2P.RetryDelay)
	}
}

func TestLoadFromEnv_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("P2P_PUBLISH_TIMEOUT_MS", "soon")
	cfg := LoadFromEnv("")
	if cfg.P2P.PublishTimeout != 10*time.Second {
		t.Errorf("PublishTimeout = %v, want default kept", cfg.P2P.PublishTimeout)
	}
}
