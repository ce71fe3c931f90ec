package sources

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const requestTimeout = 30 * time.Second

// NewHTTPClient builds the client for reddit traffic. Only socks5 and socks5h
// proxies are honored.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: requestTimeout}
	if proxyURL == "" {
		return client, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		transport, err := socksTransport(u)
		if err != nil {
			return nil, err
		}
		client.Transport = transport
		slog.Info("using SOCKS5 proxy", "proxy", u.Host)
	default:
		slog.Warn("unsupported proxy scheme, connecting directly", "scheme", u.Scheme)
	}

	return client, nil
}

// Credentials in the URL's userinfo are passed to the proxy.
func socksTransport(u *url.URL) (*http.Transport, error) {
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, err
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		dial = cd.DialContext
	}

	return &http.Transport{DialContext: dial}, nil
}

// userAgentTransport stamps every request with the configured User-Agent,
// which reddit requires for API clients.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func withUserAgent(client *http.Client, userAgent string) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	withUA := *client
	withUA.Transport = &userAgentTransport{base: client.Transport, userAgent: userAgent}
	return &withUA
}
