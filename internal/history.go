package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"
)

// HistoryFetcher loads the confirmed transcript of a session
type HistoryFetcher interface {
	Fetch(ctx context.Context, sessionID string) (History, error)
}

// HTTPHistoryFetcher fetches history from the backend's history endpoint.
// Concurrent fetches for the same session share one request.
type HTTPHistoryFetcher struct {
	baseURL    string
	http       HTTPDoer
	timeout    time.Duration
	normalizer *Normalizer
	group      singleflight.Group
}

// NewHTTPHistoryFetcher creates a fetcher for the backend at baseURL.
// A zero timeout disables the per-request deadline.
func NewHTTPHistoryFetcher(baseURL string, doer HTTPDoer, timeout time.Duration) *HTTPHistoryFetcher {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HTTPHistoryFetcher{
		baseURL:    normalizeBaseURL(baseURL),
		http:       doer,
		timeout:    timeout,
		normalizer: NewNormalizer(),
	}
}

// Fetch returns the session's history. A 404 means the backend has no
// record of the session and yields an empty history.
func (f *HTTPHistoryFetcher) Fetch(ctx context.Context, sessionID string) (History, error) {
	// the shared request outlives any single caller's cancellation
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(sessionID, func() (interface{}, error) {
		return f.fetch(shared, sessionID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return History{}, res.Err
		}
		history := res.Val.(History)
		history.Messages = append([]Message(nil), history.Messages...)
		return history, nil
	case <-ctx.Done():
		return History{}, ctx.Err()
	}
}

func (f *HTTPHistoryFetcher) fetch(ctx context.Context, sessionID string) (History, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	endpoint := f.baseURL + "/chat/history?session_id=" + url.QueryEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return History{}, &HistoryError{SessionID: sessionID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	LogDebug("Fetching history for session %s", sessionID)
	resp, err := f.http.Do(req)
	if err != nil {
		return History{}, &HistoryError{SessionID: sessionID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return f.normalizer.EmptyHistory(), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return History{}, &HistoryError{SessionID: sessionID, StatusCode: resp.StatusCode}
	}

	var payload struct {
		Messages []HistoryRecord `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return History{}, &HistoryError{
			SessionID: sessionID,
			Err:       &ParseError{Source: "history", Key: sessionID, Err: err},
		}
	}
	return f.normalizer.NormalizeHistory(payload.Messages), nil
}

var _ HistoryFetcher = (*HTTPHistoryFetcher)(nil)
