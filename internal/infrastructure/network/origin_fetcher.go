package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
)

// ErrNetworkUnreachable wraps transport failures talking to the origin.
var ErrNetworkUnreachable = errors.New("network unreachable")

var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// OriginFetcher sends requests to the origin that hosts the site assets.
type OriginFetcher struct {
	base   *url.URL
	client *http.Client
	logger *logrus.Logger
}

// NewOriginFetcher builds a fetcher for baseURL. timeout 0 means no client timeout.
func NewOriginFetcher(baseURL string, timeout time.Duration, logger *logrus.Logger) (*OriginFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid origin url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid origin url %q: missing host", baseURL)
	}
	client := &http.Client{
		Timeout: timeout,
		// Redirects are part of the origin's answer and go back to the caller as is.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	return &OriginFetcher{base: u, client: client, logger: logger}, nil
}

// Origin returns the base URL requests are forwarded to.
func (f *OriginFetcher) Origin() string { return f.base.String() }

func (f *OriginFetcher) resolve(u *url.URL) *url.URL {
	target := *f.base
	p, rawP := "/", "/"
	q := ""
	if u != nil {
		p, rawP = u.Path, u.EscapedPath()
		q = u.RawQuery
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasPrefix(rawP, "/") {
		rawP = "/" + rawP
	}
	target.Path = strings.TrimSuffix(f.base.Path, "/") + p
	// RawPath keeps escapes such as %2F that Path alone would lose.
	target.RawPath = strings.TrimSuffix(f.base.EscapedPath(), "/") + rawP
	target.RawQuery = q
	target.Fragment = ""
	return &target
}

// Fetch forwards req to the origin and reads the whole response.
func (f *OriginFetcher) Fetch(ctx context.Context, req *http.Request) (*offline.Response, error) {
	target := f.resolve(req.URL)
	var body io.Reader
	if req.Body != nil && req.Body != http.NoBody {
		body = req.Body
	}
	out, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build origin request: %w", err)
	}
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	stripHopByHop(out.Header)
	out.ContentLength = req.ContentLength

	resp, err := f.client.Do(out)
	if err != nil {
		if f.logger != nil {
			f.logger.WithFields(logrus.Fields{"method": req.Method, "url": target.String()}).WithError(err).Debug("origin request failed")
		}
		return nil, fmt.Errorf("%w: %w", ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetworkUnreachable, err)
	}
	header := resp.Header.Clone()
	stripHopByHop(header)
	return &offline.Response{Status: resp.StatusCode, Header: header, Body: payload}, nil
}

// Ping checks that the origin answers at all.
func (f *OriginFetcher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.resolve(nil).String(), nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkUnreachable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("origin returned status %d", resp.StatusCode)
	}
	return nil
}

func stripHopByHop(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
