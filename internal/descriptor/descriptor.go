package descriptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error taxonomy for a failed check. Everything the fetch/parse path can
// produce wraps one of these two sentinels.
var (
	// ErrNetwork covers transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("descriptor fetch failed")
	// ErrParse covers malformed documents and documents without a version field.
	ErrParse = errors.New("descriptor parse failed")
)

const userAgent = "upcheck-update-checker"

// Client fetches remote version descriptors over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a descriptor client. A zero timeout disables the
// client-side deadline and lets the fetch run to completion or failure.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the descriptor document at url and extracts its version
// string. The document is read once and discarded; only the first occurrence
// of the version field is kept. With FormatAuto the format is inferred from
// the URL and the response Content-Type.
func (c *Client) Fetch(ctx context.Context, url string, format Format) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: server returned status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if format == FormatAuto {
		format = DetectFormat(url, resp.Header.Get("Content-Type"))
	}
	return ExtractVersion(body, format)
}
