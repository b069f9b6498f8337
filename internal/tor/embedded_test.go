package tor

import (
	"errors"
	"testing"
	"time"
)

func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("creates with default timeout", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if embedded.startupTimeout != 3*time.Minute {
			t.Errorf("expected default timeout 3m, got %v", embedded.startupTimeout)
		}
	})

	t.Run("applies WithStartupTimeout", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor(WithStartupTimeout(5 * time.Minute))
		if embedded.startupTimeout != 5*time.Minute {
			t.Errorf("expected timeout 5m, got %v", embedded.startupTimeout)
		}
	})
}

// TestEmbeddedTorMethods exercises EmbeddedTor without starting a
// daemon; actually bootstrapping Tor is far too slow for unit tests.
func TestEmbeddedTorMethods(t *testing.T) {
	t.Parallel()

	t.Run("addresses are empty before start", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if embedded.SocksAddr() != "" {
			t.Error("expected empty SocksAddr before start")
		}
		if embedded.ControlAddr() != "" {
			t.Error("expected empty ControlAddr before start")
		}
		if embedded.IsRunning() {
			t.Error("expected IsRunning to be false before start")
		}
	})

	t.Run("Stop is safe to call on unstarted instance", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if err := embedded.Stop(); err != nil {
			t.Errorf("expected no error stopping unstarted instance, got %v", err)
		}
	})

	t.Run("NewClient fails when not running", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if _, err := embedded.NewClient(30 * time.Second); !errors.Is(err, ErrTorNotRunning) {
			t.Errorf("expected ErrTorNotRunning, got %v", err)
		}
	})
}
