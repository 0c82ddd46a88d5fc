package middleware

import (
	"net"
	"net/http"
	"strings"

	"undangan/internal/slug"
)

// hostPassthrough lists path prefixes that are served as-is on a
// tenant host instead of being rewritten into the tenant's space.
var hostPassthrough = []string{"/api/", "/uploads/", "/admin/", "/health", "/s/", "/preview/"}

// Subdomain rewrites requests for <sub>.<rootDomain> to /s/<sub>/..., so
// VIP invitations live at their own host while sharing the /s routes.
// "www" and hosts outside rootDomain pass through untouched. Must run
// before routing.
func Subdomain(rootDomain string) func(http.Handler) http.Handler {
	rootDomain = strings.ToLower(strings.TrimSpace(rootDomain))
	return func(next http.Handler) http.Handler {
		if rootDomain == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := TenantFromHost(r.Host, rootDomain)
			if sub == "" || passthrough(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			r2 := r.Clone(r.Context())
			r2.URL.Path = "/s/" + sub + r.URL.Path
			r2.URL.RawPath = ""
			if r.URL.RawPath != "" {
				r2.URL.RawPath = "/s/" + sub + r.URL.RawPath
			}
			next.ServeHTTP(w, r2)
		})
	}
}

// TenantFromHost returns the invitation subdomain encoded in host, or ""
// when host is the root domain itself, "www", or not under rootDomain.
func TenantFromHost(host, rootDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	sub, ok := strings.CutSuffix(host, "."+rootDomain)
	if !ok || sub == "" || sub == "www" || !slug.ValidSubdomain(sub) {
		return ""
	}
	return sub
}

func passthrough(path string) bool {
	for _, p := range hostPassthrough {
		if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
			return true
		}
	}
	return false
}
