package main

import (
	"testing"
)

func TestPortalSecurity(t *testing.T) {
	s := portalSecurity("http://example.com/iportal/web/maps/123/map", "tok")

	cases := []struct {
		url   string
		token string
	}{
		{"http://example.com/iportal/web/maps/123/map.json", "tok"},
		{"http://example.com/iportal/web/datas/7/content.json", "tok"},
		{"http://example.com/iportalx/web/datas/7/content.json", ""},
		{"http://other.com/iportal/web/datas/7/content.json", ""},
	}

	for _, tc := range cases {
		token, _ := s.Token(tc.url)
		if token != tc.token {
			t.Errorf("%s: incorrect token: %q != %q", tc.url, token, tc.token)
		}
	}

	if _, ok := portalSecurity("http://example.com/iportal/web/maps/1", "").Token("http://example.com/iportal/web/maps/1"); ok {
		t.Errorf("no token should be registered")
	}
}
