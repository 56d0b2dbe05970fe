package httpapi

import (
	"context"
)

// serverBaseCtx ties handler work to the process lifetime: cmd wires it to a
// context that is canceled once shutdown begins. Background until then.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level base context. nil resets to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from base that is additionally canceled when
// req ends. Callers must invoke the returned cancel when the handler returns.
func joinContexts(base, req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(req, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
