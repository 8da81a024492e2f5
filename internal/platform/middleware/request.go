package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	"xup/pkg/requestcontext"
)

// RequestIDHeader carries the correlation id in and out of the service.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an inbound X-Request-ID or mints one, echoes it on the
// response and stores it in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

// RequestTime pins one "now" for the whole request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPResolver determines the client address of a request. Forwarding
// headers are only believed when the socket peer is a trusted proxy.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver trusts forwarding headers from peers inside trusted.
// With no trusted ranges the socket peer is always the client.
func NewClientIPResolver(trusted []netip.Prefix) *ClientIPResolver {
	return &ClientIPResolver{trusted: trusted}
}

// Resolve returns the client IP for r. Behind trusted proxies it walks
// X-Forwarded-For from the right and returns the first untrusted hop,
// falling back to X-Real-IP and then to the peer.
func (c *ClientIPResolver) Resolve(r *http.Request) string {
	peer := peerAddr(r)
	if c == nil || !peer.IsValid() || !c.isTrusted(peer) {
		return hostOf(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return peer.String()
			}
			hop = hop.Unmap()
			if !c.isTrusted(hop) {
				return hop.String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return peer.String()
}

func (c *ClientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientMetadata stores the resolved client IP in the context.
func ClientMetadata(resolver *ClientIPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientIP(r.Context(), resolver.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromRequest returns the socket peer's host. Forwarding headers
// are ignored; use a ClientIPResolver to honour them behind known proxies.
func ClientIPFromRequest(r *http.Request) string {
	return hostOf(r.RemoteAddr)
}

func peerAddr(r *http.Request) netip.Addr {
	addr, err := netip.ParseAddr(hostOf(r.RemoteAddr))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

// hostOf strips the port from ip:port or [ipv6]:port.
func hostOf(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.Trim(remoteAddr, "[]")
	}
	return host
}
