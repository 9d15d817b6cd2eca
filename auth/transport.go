package auth

import (
	"context"
	"net"
	"net/http"
)

// WithAuthHeaders is HTTP middleware that copies the request headers into the
// context, where Middleware.AuthenticateContext finds them. The peer address
// is recorded separately with WithRemoteAddr.
//
// Usage:
//
//	mux.Handle("/mcp", auth.WithAuthHeaders(mcpHandler))
func WithAuthHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := r.Header.Clone()
		if headers == nil {
			headers = http.Header{}
		}
		ctx := WithHeaders(r.Context(), headers)
		ctx = WithRemoteAddr(ctx, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithRemoteAddr returns a new context carrying the transport-level peer
// address ("host:port" or a bare host) for IP-based permission conditions.
// Only the transport should set it; request headers are never consulted.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey, addr)
}

// RemoteIP returns the peer IP recorded by WithRemoteAddr, without the port,
// or empty string.
func RemoteIP(ctx context.Context) string {
	addr, _ := ctx.Value(remoteAddrKey).(string)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
