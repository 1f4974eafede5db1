// Package client provides the external collaborators for conversion: the
// IETF Datatracker API, YouTube (via yt-dlp), the IETF Zulip server, the
// materials downloader, and the Whisper transcription sidecar. Collaborators
// are thin and individually retryable; their failures degrade to empty
// results and warnings rather than aborting a conversion.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/retry"
)

// Default HTTP settings shared by the API clients.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	defaultAcceptType  = "application/json"
	maxErrorBodyBytes  = 512
	defaultPageLimit   = 100
)

// httpAPI is the shared JSON-over-HTTP plumbing: request building, retry,
// status handling. The per-service clients embed it.
type httpAPI struct {
	baseURL string
	http    *http.Client
	retry   retry.Policy
	auth    func(*http.Request)
	logger  logging.Logger
}

func newHTTPAPI(baseURL string, timeout time.Duration, logger logging.Logger) httpAPI {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return httpAPI{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		retry: retry.Policy{
			MaxAttempts: DefaultMaxRetries,
			BaseDelay:   DefaultRetryDelay,
			// A 404 is an answer, not a fault.
			Retryable: func(err error) bool { return !vconerrors.IsNotFound(err) },
		},
		logger: logger,
	}
}

// getJSON performs a GET with retry and decodes the JSON response into
// target. path may be absolute (a paginated "next" URL) or relative to the
// base URL.
func (a *httpAPI) getJSON(ctx context.Context, path string, params url.Values, target any) error {
	reqURL := path
	if len(reqURL) == 0 || reqURL[0] == '/' {
		reqURL = a.baseURL + path
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	return a.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", defaultAcceptType)
		if a.auth != nil {
			a.auth(req)
		}

		resp, err := a.http.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", reqURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("GET %s: %w", reqURL, vconerrors.ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
			return fmt.Errorf("GET %s: status %d: %s", reqURL, resp.StatusCode, body)
		}

		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode %s: %w", reqURL, err)
		}
		return nil
	})
}
