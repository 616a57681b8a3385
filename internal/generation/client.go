package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Generation can take the provider minutes under load, so the request
// timeout is generous. Callers hold no database transaction while waiting.
const DefaultTimeout = 2 * time.Minute

// Errors mapped from provider responses. Handlers translate these into
// user-facing messages; anything else is an internal failure.
var (
	ErrInvalidAPIKey     = errors.New("image provider rejected the API key")
	ErrInsufficientQuota = errors.New("image provider quota exhausted")
	ErrAccessDenied      = errors.New("image provider denied access")
	ErrTimeout           = errors.New("image generation timed out")
)

// Options describes a single generation request.
type Options struct {
	Prompt string
	Model  string
	Seed   int64
}

// Result carries the provider's image location. ImageURL is what we persist
// as the storage URL; ProviderURL is the raw provider link kept for remixes.
type Result struct {
	ImageURL    string
	ProviderURL string
}

// Client talks to a Pollinations-style URL-addressed image provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a provider client. apiKey may be empty; the public
// endpoint is used without verification in that case.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// BuildURL constructs the provider URL for a prompt. The provider is
// URL-addressed: the same prompt/model/seed always resolves to the same
// image, which is what makes remixing an existing image possible.
func (c *Client) BuildURL(prompt, model string, seed int64) string {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(prompt))

	params := url.Values{}
	params.Set("model", model)
	params.Set("width", "1024")
	params.Set("height", "1024")
	params.Set("nologo", "true")
	if seed != 0 {
		params.Set("seed", strconv.FormatInt(seed, 10))
	}

	return u + "?" + params.Encode()
}

// Generate resolves the provider URL for the request and, when an API key is
// configured, verifies the provider will serve it. Without a key the public
// URL is returned as-is, matching the provider's anonymous tier.
func (c *Client) Generate(ctx context.Context, opts Options) (*Result, error) {
	imageURL := c.BuildURL(opts.Prompt, opts.Model, opts.Seed)

	result := &Result{
		ImageURL:    imageURL,
		ProviderURL: imageURL,
	}

	if c.apiKey == "" {
		log.Printf("[Generation] No API key set, using public provider URL")
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			log.Printf("[Generation] Request timed out after %v", time.Since(startTime))
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		log.Printf("[Generation] Generate OK: model=%s seed=%d duration=%v",
			opts.Model, opts.Seed, time.Since(startTime))
		return result, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrInsufficientQuota
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrAccessDenied
	default:
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
