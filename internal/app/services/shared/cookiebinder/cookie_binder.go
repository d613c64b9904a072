package cookiebinder

import (
	"carelink-service/internal/pkg/constvars"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var hostnameLabel = regexp.MustCompile(constvars.RegexHostnameLabel)

type Config struct {
	// Domain is the configured parent domain; it may be empty or malformed.
	Domain     string
	Secure     bool
	CrossSite  bool
	SessionTTL time.Duration
}

type CookieBinder struct {
	domain    string
	secure    bool
	sameSite  http.SameSite
	maxAge    int
	hasDomain bool
}

func NewCookieBinder(cfg Config) *CookieBinder {
	domain, ok := NormalizeDomain(cfg.Domain)
	binder := &CookieBinder{
		domain:    domain,
		hasDomain: ok,
		secure:    cfg.Secure,
		sameSite:  http.SameSiteLaxMode,
		maxAge:    int(cfg.SessionTTL / time.Second),
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if cfg.CrossSite {
		binder.sameSite = http.SameSiteNoneMode
		binder.secure = true
	}
	return binder
}

// NormalizeDomain trims, lower-cases and strips a leading dot from a
// configured cookie domain. It reports false for anything that is not a
// plain dotted hostname.
func NormalizeDomain(configured string) (string, bool) {
	domain := strings.ToLower(strings.TrimSpace(configured))
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" || len(domain) > constvars.MaxHostnameLength {
		return "", false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 || !hostnameLabel.MatchString(label) {
			return "", false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "", false
		}
	}
	return domain, true
}

// SelectCookieDomain returns the configured domain when the request host is
// that domain or one of its subdomains. Otherwise the cookie stays host-only.
func SelectCookieDomain(requestHost, configuredDomain string) (string, bool) {
	domain, ok := NormalizeDomain(configuredDomain)
	if !ok {
		return "", false
	}
	return matchHost(requestHost, domain)
}

func matchHost(requestHost, domain string) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(requestHost))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", false
	}
	if host == domain || strings.HasSuffix(host, "."+domain) {
		return domain, true
	}
	return "", false
}

func (b *CookieBinder) domainFor(r *http.Request) string {
	if !b.hasDomain {
		return ""
	}
	domain, _ := matchHost(r.Host, b.domain)
	return domain
}

func (b *CookieBinder) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constvars.SessionCookieName,
		Value:    sessionToken,
		Path:     constvars.SessionCookiePath,
		Domain:   b.domainFor(r),
		MaxAge:   b.maxAge,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: b.sameSite,
	})
}

func (b *CookieBinder) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constvars.SessionCookieName,
		Value:    "",
		Path:     constvars.SessionCookiePath,
		Domain:   b.domainFor(r),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: b.sameSite,
	})
}

func ReadSessionCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(constvars.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
