package agent

import (
	"context"
	"sync"
)

// Directive is a UI side effect a tool asks the dashboard to apply alongside
// the reply, such as selecting the site the answer is about. It passes
// through the agent unchanged.
type Directive struct {
	Action string `json:"action"`
	Site   string `json:"site"`
}

// ActionSelectSite switches the dashboard's selected site.
const ActionSelectSite = "selectSite"

// DirectiveRecorder collects directives emitted by tools while a turn runs.
// The last directive recorded wins.
type DirectiveRecorder struct {
	mu sync.Mutex
	d  *Directive
}

func (r *DirectiveRecorder) Record(d Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d = &d
}

// Take returns the recorded directive, or nil when no tool emitted one.
func (r *DirectiveRecorder) Take() *Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.d
}

type directiveKey struct{}

// WithDirectives returns a context carrying a fresh recorder for one turn.
func WithDirectives(ctx context.Context) (context.Context, *DirectiveRecorder) {
	rec := &DirectiveRecorder{}
	return context.WithValue(ctx, directiveKey{}, rec), rec
}

// selectSite records a site-selection directive if the context carries a
// recorder. Tool calls made outside a chat turn (tests, CLI) just no-op.
func selectSite(ctx context.Context, site string) {
	rec, ok := ctx.Value(directiveKey{}).(*DirectiveRecorder)
	if !ok {
		return
	}
	rec.Record(Directive{Action: ActionSelectSite, Site: site})
}
