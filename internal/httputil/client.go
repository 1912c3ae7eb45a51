package httputil

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-sod/sidx/internal/buildinfo"
)

// UserAgent is sent by every client built from a HTTPClientConfig.
var UserAgent = buildinfo.Info.Name() + "/" + buildinfo.Info.Tag()

// NewClientFromConfig returns a client whose transport adds the configured
// authorization and a user agent to every request.
func NewClientFromConfig(cfg HTTPClientConfig, timeout time.Duration) (*http.Client, error) {
	rt, err := NewRoundTripperFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: rt, Timeout: timeout}, nil
}

func NewRoundTripperFromConfig(cfg HTTPClientConfig) (http.RoundTripper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid http client config: %w", err)
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       5 * time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	defaults := []defaultHeader{{
		name: "User-Agent",
		set:  func(r *http.Request) { r.Header.Set("User-Agent", UserAgent) },
	}}
	switch {
	case cfg.BearerToken != "":
		token := cfg.BearerToken
		defaults = append(defaults, defaultHeader{
			name: "Authorization",
			set:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		})
	case cfg.BasicAuth != nil:
		user, password := cfg.BasicAuth.Username, strings.TrimSpace(cfg.BasicAuth.Password)
		defaults = append(defaults, defaultHeader{
			name: "Authorization",
			set:  func(r *http.Request) { r.SetBasicAuth(user, password) },
		})
	}
	return &defaultsRoundTripper{defaults: defaults, rt: transport}, nil
}

type defaultHeader struct {
	name string
	set  func(*http.Request)
}

// defaultsRoundTripper fills in headers the request leaves empty. The
// caller's request is never modified.
type defaultsRoundTripper struct {
	defaults []defaultHeader
	rt       http.RoundTripper
}

func (d *defaultsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := false
	for _, h := range d.defaults {
		if req.Header.Get(h.name) != "" {
			continue
		}
		if !cloned {
			req = req.Clone(req.Context())
			cloned = true
		}
		h.set(req)
	}
	return d.rt.RoundTrip(req)
}
