package server

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/msk-earth/payment/config"
)

func TestAllowOrigin(t *testing.T) {
	c := qt.New(t)

	s := NewServer(&config.Config{
		Site: config.SiteConfig{
			AllowedOrigins: []string{"https://msk.earth", "https://www.msk.earth"},
		},
	}, nil, nil, nil, nil)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"https://msk.earth", true},
		{"https://www.msk.earth", true},
		{"https://sites.google.com", true},
		{"https://msk-earth.googleusercontent.com", false},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://evil.example.com", false},
		{"http://msk.earth.evil.example.com", false},
		{"", false},
	}

	for _, tc := range cases {
		allowed, err := s.allowOrigin(tc.origin)
		c.Assert(err, qt.IsNil)
		c.Assert(allowed, qt.Equals, tc.allowed, qt.Commentf("origin: %q", tc.origin))
	}
}
