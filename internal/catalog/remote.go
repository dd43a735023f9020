// internal/catalog/remote.go
//
// Remote card catalog and source selection.
//   - HTTP: GET a JSON endpoint returning [{set, card1?, card2?}] on every call.
//     Non-2xx, transport, decode and validation failures are errors; no retry.
//   - New: CATALOG_URL, then CATALOG_FILE, then the embedded default.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTP fetches the catalog from a JSON endpoint on every call. No auth, no retry.
type HTTP struct {
	URL    string
	Client *http.Client
}

// NewHTTP returns an HTTP source with its own client timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Sets GETs the endpoint and decodes the array of sets.
func (h *HTTP) Sets(ctx context.Context) ([]CardSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", h.URL).Msg("fetch catalog")
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		log.Error().Int("status", res.StatusCode).Str("url", h.URL).Msg("fetch catalog")
		return nil, fmt.Errorf("fetch catalog: status %d", res.StatusCode)
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var sets []CardSet
	if err := json.Unmarshal(raw, &sets); err != nil {
		log.Error().Err(err).Str("url", h.URL).Msg("decode catalog")
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate(sets); err != nil {
		log.Error().Err(err).Str("url", h.URL).Msg("invalid catalog")
		return nil, err
	}
	return sets, nil
}

// New picks the catalog source: remote URL, then file, then the embedded default.
func New(url, file string, timeout time.Duration) (Source, error) {
	switch {
	case url != "":
		return NewHTTP(url, timeout), nil
	case file != "":
		return File(file), nil
	default:
		return Default()
	}
}
