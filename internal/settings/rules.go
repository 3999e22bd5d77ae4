package settings

import (
	"fmt"
	"net/url"
	"strings"
)

// Verdict is the listing state of a domain or page in the rules.
type Verdict string

const (
	VerdictNone  Verdict = ""
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
)

// Rules hold the per-site lists consulted before tooltips are offered on
// a page. Exact-page rules beat domain rules and deny beats allow at the
// same level. Unlisted pages are allowed unless DefaultDeny is set, which
// restricts tooltips to allow-listed domains and pages.
type Rules struct {
	AllowDomains []string `mapstructure:"allow_domains" yaml:"allow_domains,omitempty" json:"allow_domains,omitempty"`
	DenyDomains  []string `mapstructure:"deny_domains" yaml:"deny_domains,omitempty" json:"deny_domains,omitempty"`
	AllowPages   []string `mapstructure:"allow_pages" yaml:"allow_pages,omitempty" json:"allow_pages,omitempty"`
	DenyPages    []string `mapstructure:"deny_pages" yaml:"deny_pages,omitempty" json:"deny_pages,omitempty"`
	DefaultDeny  bool     `mapstructure:"default_deny" yaml:"default_deny,omitempty" json:"default_deny,omitempty"`
}

// NormalizeDomain extracts the lowercased host from a page URL.
func NormalizeDomain(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing page URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("page URL %q has no host", rawURL)
	}
	return host, nil
}

// NormalizePage builds the scheme-insensitive page key "host/path". Query
// and fragment are not part of the key.
func NormalizePage(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing page URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("page URL %q has no host", rawURL)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return host + path, nil
}

// Allowed reports whether tooltips are offered on the given page.
func (r Rules) Allowed(rawURL string) bool {
	page, err := NormalizePage(rawURL)
	if err != nil {
		return true
	}
	if containsRule(r.DenyPages, page) {
		return false
	}
	if containsRule(r.AllowPages, page) {
		return true
	}

	host, err := NormalizeDomain(rawURL)
	if err != nil {
		return true
	}
	if containsRule(r.DenyDomains, host) {
		return false
	}
	if containsRule(r.AllowDomains, host) {
		return true
	}
	return !r.DefaultDeny
}

// DomainVerdict returns the listing state of the URL's domain.
func (r Rules) DomainVerdict(rawURL string) Verdict {
	host, err := NormalizeDomain(rawURL)
	if err != nil {
		return VerdictNone
	}
	switch {
	case containsRule(r.DenyDomains, host):
		return VerdictDeny
	case containsRule(r.AllowDomains, host):
		return VerdictAllow
	}
	return VerdictNone
}

// PageVerdict returns the listing state of the exact page.
func (r Rules) PageVerdict(rawURL string) Verdict {
	page, err := NormalizePage(rawURL)
	if err != nil {
		return VerdictNone
	}
	switch {
	case containsRule(r.DenyPages, page):
		return VerdictDeny
	case containsRule(r.AllowPages, page):
		return VerdictAllow
	}
	return VerdictNone
}

// AddDomain lists the URL's domain as allowed or denied, replacing any
// previous listing.
func (r *Rules) AddDomain(rawURL string, allow bool) error {
	host, err := NormalizeDomain(rawURL)
	if err != nil {
		return err
	}
	r.AllowDomains = removeRule(r.AllowDomains, host)
	r.DenyDomains = removeRule(r.DenyDomains, host)
	if allow {
		r.AllowDomains = append(r.AllowDomains, host)
	} else {
		r.DenyDomains = append(r.DenyDomains, host)
	}
	return nil
}

// RemoveDomain delists the URL's domain from both lists.
func (r *Rules) RemoveDomain(rawURL string) error {
	host, err := NormalizeDomain(rawURL)
	if err != nil {
		return err
	}
	r.AllowDomains = removeRule(r.AllowDomains, host)
	r.DenyDomains = removeRule(r.DenyDomains, host)
	return nil
}

// AddPage lists the exact page as allowed or denied, replacing any
// previous listing.
func (r *Rules) AddPage(rawURL string, allow bool) error {
	page, err := NormalizePage(rawURL)
	if err != nil {
		return err
	}
	r.AllowPages = removeRule(r.AllowPages, page)
	r.DenyPages = removeRule(r.DenyPages, page)
	if allow {
		r.AllowPages = append(r.AllowPages, page)
	} else {
		r.DenyPages = append(r.DenyPages, page)
	}
	return nil
}

// RemovePage delists the exact page from both lists.
func (r *Rules) RemovePage(rawURL string) error {
	page, err := NormalizePage(rawURL)
	if err != nil {
		return err
	}
	r.AllowPages = removeRule(r.AllowPages, page)
	r.DenyPages = removeRule(r.DenyPages, page)
	return nil
}

func containsRule(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func removeRule(list []string, v string) []string {
	var kept []string
	for _, item := range list {
		if item != v {
			kept = append(kept, item)
		}
	}
	return kept
}

func copyRules(rules Rules) Rules {
	return Rules{
		AllowDomains: append([]string(nil), rules.AllowDomains...),
		DenyDomains:  append([]string(nil), rules.DenyDomains...),
		AllowPages:   append([]string(nil), rules.AllowPages...),
		DenyPages:    append([]string(nil), rules.DenyPages...),
		DefaultDeny:  rules.DefaultDeny,
	}
}
