package vault

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// brokenBackend fails every operation, simulating a locked or absent OS
// credential store.
type brokenBackend struct {
	probes int
}

var _ Backend = (*brokenBackend)(nil)

func (b *brokenBackend) Set(ctx context.Context, service, account, secret string) error {
	b.probes++
	return errors.New("secret service: cannot open session")
}

func (b *brokenBackend) Get(ctx context.Context, service, account string) (string, error) {
	return "", errors.New("secret service: cannot open session")
}

func (b *brokenBackend) Delete(ctx context.Context, service, account string) error {
	return errors.New("secret service: cannot open session")
}

func TestFallbackActivation(t *testing.T) {
	ctx := context.Background()
	broken := &brokenBackend{}
	v := New(WithSecureBackend(broken), WithFallback(NewMemoryBackend()))

	if v.UsingFallback() {
		t.Error("UsingFallback = true before any operation")
	}

	if err := v.Store(ctx, "envgate-development", "token_data", "secret"); err != nil {
		t.Fatalf("Store via fallback failed: %v", err)
	}
	if !v.UsingFallback() {
		t.Error("UsingFallback = false after failed probe")
	}

	got, err := v.Retrieve(ctx, "envgate-development", "token_data")
	if err != nil {
		t.Fatalf("Retrieve via fallback failed: %v", err)
	}
	if got != "secret" {
		t.Errorf("Retrieve = %q, want %q", got, "secret")
	}

	existed, err := v.Delete(ctx, "envgate-development", "token_data")
	if err != nil {
		t.Fatalf("Delete via fallback failed: %v", err)
	}
	if !existed {
		t.Error("Delete did not report the removed entry")
	}
}

func TestProbeRunsOnce(t *testing.T) {
	ctx := context.Background()
	broken := &brokenBackend{}
	v := New(WithSecureBackend(broken), WithFallback(NewMemoryBackend()))

	for range 5 {
		_ = v.Store(ctx, "svc", "acct", "value")
	}
	if broken.probes != 1 {
		t.Errorf("probe attempts = %d, want 1 (never re-probed per call)", broken.probes)
	}
}

func TestHealthyBackendSkipsFallback(t *testing.T) {
	ctx := context.Background()
	secure := NewMemoryBackend()
	fallback := NewMemoryBackend()
	v := New(WithSecureBackend(secure), WithFallback(fallback))

	if err := v.Store(ctx, "svc", "acct", "value"); err != nil {
		t.Fatal(err)
	}
	if v.UsingFallback() {
		t.Error("UsingFallback = true with a healthy secure backend")
	}
	if _, err := secure.Get(ctx, "svc", "acct"); err != nil {
		t.Error("secret not stored in the secure backend")
	}
	if _, err := fallback.Get(ctx, "svc", "acct"); !errors.Is(err, ErrNotFound) {
		t.Error("secret leaked into the fallback store")
	}
}

func TestRetrieveMissing(t *testing.T) {
	v := New(WithSecureBackend(NewMemoryBackend()), WithFallback(NewMemoryBackend()))
	_, err := v.Retrieve(context.Background(), "svc", "acct")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteMissingReportsFalse(t *testing.T) {
	v := New(WithSecureBackend(NewMemoryBackend()), WithFallback(NewMemoryBackend()))
	existed, err := v.Delete(context.Background(), "svc", "acct")
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("Delete reported an entry that never existed")
	}
}

func TestSharedFallbackAcrossVaults(t *testing.T) {
	ResetSharedFallback()
	t.Cleanup(ResetSharedFallback)

	ctx := context.Background()
	first := New(WithSecureBackend(&brokenBackend{}))
	second := New(WithSecureBackend(&brokenBackend{}))

	if err := first.Store(ctx, "svc", "acct", "shared"); err != nil {
		t.Fatal(err)
	}
	got, err := second.Retrieve(ctx, "svc", "acct")
	if err != nil {
		t.Fatalf("second vault cannot see shared fallback data: %v", err)
	}
	if got != "shared" {
		t.Errorf("Retrieve = %q, want %q", got, "shared")
	}
}

func TestResetSharedFallback(t *testing.T) {
	ResetSharedFallback()
	t.Cleanup(ResetSharedFallback)

	ctx := context.Background()
	if err := SharedFallback().Set(ctx, "svc", "acct", "old"); err != nil {
		t.Fatal(err)
	}
	ResetSharedFallback()

	if _, err := SharedFallback().Get(ctx, "svc", "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after reset", err)
	}
}

func TestMemoryBackendConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "svc", "acct", "value")
				_, _ = m.Get(ctx, "svc", "acct")
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestTranslateKeyringError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		translated bool
	}{
		{"keychain failure", errors.New("User interaction is not allowed (keychain)"), true},
		{"secret service failure", errors.New("Secret Service is not available"), true},
		{"dbus failure", errors.New("exec: \"dbus-launch\": executable file not found"), true},
		{"unrelated error", errors.New("disk full"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateKeyringError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("translateKeyringError(nil) = %v", got)
				}
				return
			}
			if tt.translated != errors.Is(got, ErrStoreInaccessible) {
				t.Errorf("translated = %v, want %v (err %v)", errors.Is(got, ErrStoreInaccessible), tt.translated, got)
			}
			if !tt.translated && got != tt.err {
				t.Errorf("unrelated error rewritten: %v", got)
			}
			if tt.translated && !strings.Contains(got.Error(), "credential store inaccessible") {
				t.Errorf("missing user-facing message: %v", got)
			}
		})
	}
}
