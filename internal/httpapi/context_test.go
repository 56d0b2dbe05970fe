package httpapi

import (
	"context"
	"testing"
	"time"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context never canceled")
	}
}

func TestJoinContextsCancelOnRequestEnd(t *testing.T) {
	req, reqCancel := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(context.Background(), req)
	defer cancel()

	reqCancel()
	waitDone(t, ctx)
}

func TestJoinContextsCancelOnBaseEnd(t *testing.T) {
	base, baseCancel := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(base, context.Background())
	defer cancel()

	baseCancel()
	waitDone(t, ctx)
}

func TestJoinContextsCancelReleases(t *testing.T) {
	ctx, cancel := joinContexts(context.Background(), context.Background())
	cancel()
	waitDone(t, ctx)
}

func TestSetBaseContextNilResets(t *testing.T) {
	orig := serverBaseCtx
	defer SetBaseContext(orig)

	c, cancelC := context.WithCancel(context.Background())
	defer cancelC()
	SetBaseContext(c)
	if serverBaseCtx != c {
		t.Fatalf("base context not installed")
	}
	SetBaseContext(nil)
	if serverBaseCtx == nil || serverBaseCtx.Err() != nil {
		t.Fatalf("nil must reset to a live background context")
	}
}
