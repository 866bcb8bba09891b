package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
	"github.com/clientx/workspace-client/internal/infrastructure/credstore"
)

type route func(call ports.Call) (int, any)

// stubGateway answers calls from a route table, or, when hold is set, parks
// every call until the test releases it.
type stubGateway struct {
	creds ports.CredentialStore

	mu     sync.Mutex
	routes map[string]route
	calls  []ports.Call

	hold chan *heldCall
}

type heldCall struct {
	call ports.Call
	cred string
	done chan outcome
}

type outcome struct {
	reply *ports.Reply
	err   error
}

func newStubGateway(creds ports.CredentialStore) *stubGateway {
	if creds == nil {
		creds = credstore.NewMemory()
	}
	return &stubGateway{creds: creds, routes: make(map[string]route)}
}

func (g *stubGateway) on(method, path string, fn route) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[method+" "+path] = fn
}

func (g *stubGateway) reply(method, path string, status int, body any) {
	g.on(method, path, func(ports.Call) (int, any) { return status, body })
}

// holdCalls makes every subsequent call block until released.
func (g *stubGateway) holdCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hold = make(chan *heldCall, 16)
}

func (g *stubGateway) callCount(method, path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (g *stubGateway) Do(ctx context.Context, call ports.Call) (*ports.Reply, error) {
	var cred domain.Credential
	if !call.Anonymous {
		cred, _ = g.creds.Load(ctx)
	}

	g.mu.Lock()
	g.calls = append(g.calls, call)
	hold := g.hold
	fn := g.routes[call.Method+" "+call.Path]
	g.mu.Unlock()

	if hold != nil {
		h := &heldCall{call: call, cred: cred.AccessToken, done: make(chan outcome, 1)}
		hold <- h
		select {
		case out := <-h.done:
			return out.reply, out.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fn == nil {
		return respond(cred.AccessToken, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
	status, body := fn(call)
	return respond(cred.AccessToken, status, body)
}

// respond mimics the gateway's classification for a canned answer.
func respond(cred string, status int, body any) (*ports.Reply, error) {
	if status >= 200 && status < 300 {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		return &ports.Reply{StatusCode: status, Body: encoded, Credential: cred}, nil
	}
	msg := http.StatusText(status)
	if m, ok := body.(map[string]string); ok && m["detail"] != "" {
		msg = m["detail"]
	}
	kind := domain.FailureRejected
	switch {
	case status == http.StatusUnauthorized && cred != "":
		kind = domain.FailureAuthExpired
	case status == http.StatusNotFound:
		kind = domain.FailureNotFound
	}
	return nil, &domain.RequestError{Kind: kind, StatusCode: status, Message: msg, Credential: cred}
}

func (g *stubGateway) next(t *testing.T) *heldCall {
	t.Helper()
	select {
	case h := <-g.hold:
		return h
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a backend call")
		return nil
	}
}

func (h *heldCall) release(status int, body any) {
	reply, err := respond(h.cred, status, body)
	h.done <- outcome{reply: reply, err: err}
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the operation to return")
	}
}

type fixedRole domain.Role

func (r fixedRole) CurrentRole() domain.Role { return domain.Role(r) }

type recordingGuard struct {
	mu       sync.Mutex
	rejected []string
}

func (g *recordingGuard) CredentialRejected(_ context.Context, credential string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejected = append(g.rejected, credential)
}
