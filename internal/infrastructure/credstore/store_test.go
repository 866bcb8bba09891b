package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store ports.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	cred, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if cred.Present() {
		t.Fatalf("expected no credential, got %+v", cred)
	}

	if err := store.Save(ctx, domain.Credential{AccessToken: "a1", RenewalToken: "r1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.SaveRole(ctx, domain.RoleManager); err != nil {
		t.Fatalf("SaveRole: %v", err)
	}

	// A save without renewal keeps the stored renewal token.
	if err := store.Save(ctx, domain.Credential{AccessToken: "a2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cred, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.AccessToken != "a2" || cred.RenewalToken != "r1" {
		t.Fatalf("unexpected credential after overwrite: %+v", cred)
	}
	role, err := store.Role(ctx)
	if err != nil || role != domain.RoleManager {
		t.Fatalf("expected manager role hint, got %q (%v)", role, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear should be a no-op, got %v", err)
	}
	cred, _ = store.Load(ctx)
	role, _ = store.Role(ctx)
	if cred.Present() || cred.RenewalToken != "" || role != "" {
		t.Fatalf("expected empty store after Clear, got %+v role=%q", cred, role)
	}
}

func TestMemory_Contract(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStore(t, NewFile(path))
}

func TestFile_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	first := NewFile(path)
	if err := first.Save(ctx, domain.Credential{AccessToken: "tok", RenewalToken: "ren"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected mode 0600, got %o", perm)
	}

	second := NewFile(path)
	cred, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.AccessToken != "tok" || cred.RenewalToken != "ren" {
		t.Fatalf("unexpected credential after reopen: %+v", cred)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFile(path).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error for corrupt file")
	}
}

// TestRedis_Contract runs against a live Redis.
func TestRedis_Contract(t *testing.T) {
	if os.Getenv("RUN_REDIS_INTEGRATION") != "true" {
		t.Skip("set RUN_REDIS_INTEGRATION=true to run this integration test")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client, err := ConnectRedis(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := NewRedis(client, "clientx-test-"+t.Name())
	_ = store.Clear(ctx)
	exerciseStore(t, store)
}
