package roster

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FetchOptions configures remote retrieval of roster exports.
type FetchOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Limiter throttles remote requests. Nil means 5 requests per second.
	Limiter *rate.Limiter
}

// Fetcher reads roster exports from local paths, http(s) URLs or ftp URLs.
type Fetcher struct {
	client  *http.Client
	opts    FetchOptions
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = 3
	case opts.MaxRetries < 0:
		opts.MaxRetries = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "roster-cli/1.0"
	}
	lim := opts.Limiter
	if lim == nil {
		lim = rate.NewLimiter(5, 5)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: lim,
	}
}

// Fetch returns the full contents of src.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	switch scheme(src) {
	case "http", "https":
		return f.fetchHTTP(ctx, src)
	case "ftp":
		return f.fetchFTP(ctx, src)
	case "file":
		u, err := url.Parse(src)
		if err != nil {
			return nil, eris.Wrap(err, "roster: parse file url")
		}
		return readFile(u.Path)
	default:
		return readFile(src)
	}
}

func scheme(src string) string {
	i := strings.Index(src, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(src[:i])
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "roster: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "roster: rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("roster download failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("roster server error, retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			backoff(ctx, attempt)
			continue
		}

		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("roster: unexpected status %d from %s", resp.StatusCode, rawURL)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "roster: read body")
		}
		return data, nil
	}

	return nil, eris.Wrap(lastErr, "roster: all retries exhausted")
}

func backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(250*time.Millisecond) * math.Pow(2, float64(attempt)))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d)/2 + 1))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// parseFTPURL extracts host (with port), path and credentials from an FTP
// URL. Missing credentials mean anonymous login.
func parseFTPURL(rawURL string) (host, path, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "roster: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("roster: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", "", "", eris.New("roster: empty path in ftp url")
	}

	user, pass = "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	return host, path, user, pass, nil
}

func (f *Fetcher) fetchFTP(ctx context.Context, rawURL string) ([]byte, error) {
	host, path, user, pass, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "roster: rate limiter wait")
	}

	zap.L().Debug("roster: ftp connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "roster: ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(user, pass); err != nil {
		return nil, eris.Wrap(err, "roster: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, eris.Wrap(err, "roster: ftp read")
	}
	return data, nil
}
