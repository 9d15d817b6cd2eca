package gateway

import (
	"context"
	"slices"

	"github.com/jonwraymond/firebase-mcp/auth"
	"github.com/jonwraymond/firebase-mcp/observe"
	"github.com/jonwraymond/firebase-mcp/permission"
)

// Guard authenticates and authorizes tool calls before running their handlers.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Call returns *auth.AuthenticationError or *auth.AuthzError for
// rejected calls and the handler's error otherwise.
// - Ownership: headers and input are not modified.
type Guard struct {
	auth      *auth.Middleware
	resolver  *permission.Resolver
	execution *observe.Middleware
	logger    observe.Logger
	public    map[string]struct{}
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithExecution wraps handlers in an observe.Middleware for spans, execution
// metrics and completion logs. Defaults to a no-op middleware.
func WithExecution(m *observe.Middleware) GuardOption {
	return func(g *Guard) {
		if m != nil {
			g.execution = m
		}
	}
}

// WithGuardLogger sets the logger. Defaults to observe.NopLogger().
func WithGuardLogger(l observe.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithResolver makes calls authenticated by token subject also pass the
// resolver: the subject must hold the tool's "<resource>:<action>"
// permission, with conditions evaluated against the caller's remote IP.
func WithResolver(r *permission.Resolver) GuardOption {
	return func(g *Guard) {
		g.resolver = r
	}
}

// WithPublicTools lists tools that need authentication but no permission.
func WithPublicTools(names ...string) GuardOption {
	return func(g *Guard) {
		for _, n := range names {
			g.public[ParseToolName(n).Name] = struct{}{}
		}
	}
}

// NewGuard creates a Guard in front of mw.
func NewGuard(mw *auth.Middleware, opts ...GuardOption) *Guard {
	g := &Guard{
		auth:      mw,
		execution: observe.NewMiddleware(nil, nil, nil),
		logger:    observe.NopLogger(),
		public:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(observe.F("component", "gateway"))
	return g
}

// Call runs next for the named tool once the caller is allowed to. When
// headers is nil the headers stored in ctx by auth.WithHeaders are used. The
// AuthContext is available to next through auth.FromContext. IP conditions
// use the address set by auth.WithRemoteAddr, never a header.
func (g *Guard) Call(ctx context.Context, tool string, headers map[string][]string, input any, next observe.ExecuteFunc) (any, error) {
	if next == nil {
		return nil, ErrNilHandler
	}
	tn := ParseToolName(tool)
	if tn.Name == "" {
		return nil, ErrMissingToolName
	}
	if headers == nil {
		headers = auth.HeadersFromContext(ctx)
	}

	ac, err := g.auth.Authenticate(ctx, headers)
	if err != nil {
		return nil, err
	}

	if err := g.authorize(ctx, ac, tn); err != nil {
		g.logger.Warn(ctx, "tool call denied",
			observe.F("tool", tn.Name),
			observe.F("client.id", ac.ClientID),
			observe.F("error", err),
		)
		return nil, err
	}

	ctx = auth.WithAuthContext(ctx, ac)
	meta := observe.ToolMeta{
		Name:     tn.Name,
		Service:  tn.Resource,
		Action:   tn.Action,
		ClientID: ac.ClientID,
	}
	return g.execution.Wrap(next)(ctx, meta, input)
}

func (g *Guard) authorize(ctx context.Context, ac *auth.AuthContext, tn ToolName) error {
	if _, ok := g.public[tn.Name]; ok {
		return nil
	}
	if !g.auth.Authorize(ctx, ac, tn.Action, tn.Resource) {
		return auth.Deny(ac, tn.Action, tn.Resource)
	}
	if g.resolver == nil || ac.Method != auth.MethodJWT || ac.Subject == "" {
		return nil
	}
	if !g.resolver.HasPermission(ctx, ac.Subject, tn.Permission(), evalContext(ctx)) {
		return &auth.AuthzError{
			ClientID: ac.ClientID,
			Resource: tn.Resource,
			Action:   tn.Action,
			Reason:   "user " + ac.Subject + " lacks " + tn.Permission(),
		}
	}
	return nil
}

// PublicTools returns the public tool names, sorted.
func (g *Guard) PublicTools() []string {
	names := make([]string, 0, len(g.public))
	for n := range g.public {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// evalContext builds condition input from the transport peer address, or nil
// when the request carries nothing conditions can use.
func evalContext(ctx context.Context) *permission.EvalContext {
	ip := auth.RemoteIP(ctx)
	if ip == "" {
		return nil
	}
	return &permission.EvalContext{IP: ip}
}
