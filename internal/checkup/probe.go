// probe.go probes service endpoints over a temporary port-forward. The
// forward is a scoped resource: it is released on every exit path of the
// check, including a panicking response predicate, because a leaked forward
// keeps the local port bound and poisons later probes.
package checkup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Releaser is the part of a port-forward the probe owns: the ability to
// terminate it.
type Releaser interface {
	Stop()
}

// OpenForward establishes the temporary forward and returns its handle.
type OpenForward func(ctx context.Context) (Releaser, error)

// DefaultSettle is how long a fresh forward gets before the first request.
const DefaultSettle = 2 * time.Second

// HTTPProbe opens a forward, waits a fixed settle delay, issues one GET,
// and releases the forward. An unreachable endpoint is a warning, not a
// failure: the service may still be warming up.
type HTTPProbe struct {
	Label  string
	Open   OpenForward
	URL    string
	Settle time.Duration
	// Expect inspects the response and returns a short description plus
	// whether the probe passed. A nil Expect accepts any 2xx status.
	Expect func(status int, body []byte) (string, bool)
	Client *http.Client
}

func (p HTTPProbe) Name() string { return p.Label }

func (p HTTPProbe) Run(ctx context.Context) (res Result) {
	fwd, err := p.Open(ctx)
	if err != nil {
		return Warn("%s unreachable: %v", p.Label, err)
	}
	defer fwd.Stop()
	defer func() {
		if r := recover(); r != nil {
			res = Warn("%s probe panicked: %v", p.Label, r)
		}
	}()

	settle := p.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return Warn("%s probe cancelled: %v", p.Label, ctx.Err())
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Warn("%s probe request: %v", p.Label, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Warn("%s unreachable at %s: %v", p.Label, p.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Warn("%s response read: %v", p.Label, err)
	}

	if p.Expect == nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return Pass("%s responded %d", p.Label, resp.StatusCode)
		}
		return Warn("%s returned status %d", p.Label, resp.StatusCode)
	}
	detail, ok := p.Expect(resp.StatusCode, body)
	if !ok {
		return Warn("%s unhealthy: %s", p.Label, detail)
	}
	return Pass("%s healthy: %s", p.Label, detail)
}

// ForwardedURL builds the localhost URL served by a forward on localPort.
func ForwardedURL(localPort int, path string) string {
	return fmt.Sprintf("http://localhost:%d%s", localPort, path)
}
