package source

import (
	"net/url"
	"strings"
	"sync"
)

// Security keeps the tokens and keys of secured services. A credential
// applies to the registered url and every path below it.
type Security struct {
	mu     sync.RWMutex
	tokens map[string]string
	keys   map[string]string
}

// NewSecurity creates an empty security manager.
func NewSecurity() *Security {
	return &Security{
		tokens: make(map[string]string),
		keys:   make(map[string]string),
	}
}

// RegisterToken sets the token sent to the urls as token=.
func (s *Security) RegisterToken(urls []string, token string) {
	s.register(s.tokens, urls, token)
}

// RegisterKey sets the key sent to the urls as key=.
func (s *Security) RegisterKey(urls []string, key string) {
	s.register(s.keys, urls, key)
}

func (s *Security) register(m map[string]string, urls []string, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range urls {
		u = normalizeURL(u)
		if u != "" {
			m[u] = v
		}
	}
}

// Token returns the token for the url.
func (s *Security) Token(rawURL string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.tokens, rawURL)
}

// Key returns the key for the url.
func (s *Security) Key(rawURL string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.keys, rawURL)
}

// Apply adds the registered token and key to the url query.
// Parameters already in the url are not replaced.
func (s *Security) Apply(rawURL string) string {
	token, hasToken := s.Token(rawURL)
	key, hasKey := s.Key(rawURL)
	if !hasToken && !hasKey {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	if hasToken && q.Get("token") == "" {
		q.Set("token", token)
	}

	if hasKey && q.Get("key") == "" {
		q.Set("key", key)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// lookup finds the longest registered url the target is equal to or below.
func lookup(m map[string]string, rawURL string) (string, bool) {
	target := normalizeURL(rawURL)

	best, val := "", ""
	for prefix, v := range m {
		if underPath(target, prefix) && len(prefix) > len(best) {
			best, val = prefix, v
		}
	}

	return val, best != ""
}

func underPath(target, prefix string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}

	return len(target) == len(prefix) || target[len(prefix)] == '/'
}

// normalizeURL lower cases the scheme and host and drops the query.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}

	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimSuffix(u.Path, "/")
}
