package rum

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
endpoint-id: shop-7
api-url: http://collect.internal:8000
errors-url: http://errors.internal:8000
location: https://shop.example/
heartbeat-interval: 30s
load-settle-delay: 2s
nav-settle-delay: 500ms
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rum.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EndpointID != "shop-7" || cfg.APIURL != "http://collect.internal:8000" {
		t.Fatal("bad config", cfg)
	}
	if time.Duration(cfg.HeartbeatInterval) != 30*time.Second ||
		time.Duration(cfg.NavSettleDelay) != 500*time.Millisecond {
		t.Fatal("durations not parsed", cfg)
	}

	a, err := New(context.Background(), append(cfg.Options(),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))...)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.endpointID != "shop-7" || a.errorsURL != "http://errors.internal:8000" {
		t.Fatal("options did not apply", a.endpointID, a.errorsURL)
	}
	if a.heartbeatEvery != 30*time.Second || a.loadSettle != 2*time.Second || a.navSettle != 500*time.Millisecond {
		t.Fatal("timing options did not apply")
	}
	if a.Location() != "https://shop.example/" {
		t.Fatal("location did not apply", a.Location())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want an error for a missing file")
	}
}

func TestEmptyConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rum.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(cfg.Options()); got != 0 {
		t.Fatal("empty config must layer nothing over the defaults", got)
	}
}
