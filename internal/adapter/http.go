package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-chat-sync/internal/config"
	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/utils"
	"github.com/MKhiriev/go-chat-sync/models"
)

type httpDataFetcher struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPDataFetcher constructs an HTTP/REST implementation of [DataFetcher].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and request
// timeout. A pre-configured bearer token, if any, is stored via SetToken.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPDataFetcher(adapterCfg config.EngineAdapter, logger *logger.Logger) (DataFetcher, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	f := &httpDataFetcher{client: client, logger: logger}
	f.SetToken(adapterCfg.BearerToken)

	return f, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [DataFetcher]. It stores token (whitespace-trimmed) for
// use in the Authorization header of all subsequent requests.
func (h *httpDataFetcher) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [DataFetcher]. It returns the bearer token currently held
// by the fetcher, or an empty string if none has been set.
func (h *httpDataFetcher) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// FetchInitialSyncData implements [DataFetcher]. It GETs the bulk snapshot
// from GET /api/sync/initial, passing opts as query parameters. The subject is
// inferred by the server from the bearer token; the argument participates only
// in logging. Returns an error if the request, response mapping, or JSON
// decoding fails.
func (h *httpDataFetcher) FetchInitialSyncData(ctx context.Context, subject string, opts FetchOptions) (models.InitialSyncData, error) {
	req := h.authedRequest(ctx).
		SetQueryParam("include_preferences", strconv.FormatBool(opts.IncludePreferences))
	if opts.MessageDays > 0 {
		req.SetQueryParam("message_days", strconv.Itoa(opts.MessageDays))
	}

	resp, err := req.Get("/api/sync/initial")
	if err != nil {
		return models.InitialSyncData{}, fmt.Errorf("initial sync request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Err(err).
			Str("func", "httpDataFetcher.FetchInitialSyncData").
			Str("subject", subject).
			Msg("initial sync request rejected")
		return models.InitialSyncData{}, err
	}

	var data models.InitialSyncData
	if err = json.Unmarshal(resp.Body(), &data); err != nil {
		return models.InitialSyncData{}, fmt.Errorf("decode initial sync response: %w", err)
	}

	return data, nil
}

// FetchIncrementalSyncData implements [DataFetcher]. It GETs one delta page
// from GET /api/sync/changes with the cursor in the "since" query parameter.
// Returns [ErrInvalidSyncToken] (wrapped) when the server answers 410 or a
// 401 carrying token wording. Returns an error if the request, response
// mapping, or JSON decoding fails.
func (h *httpDataFetcher) FetchIncrementalSyncData(ctx context.Context, subject string, syncToken string) (models.IncrementalSyncData, error) {
	resp, err := h.authedRequest(ctx).
		SetQueryParam("since", syncToken).
		Get("/api/sync/changes")
	if err != nil {
		return models.IncrementalSyncData{}, fmt.Errorf("incremental sync request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Err(err).
			Str("func", "httpDataFetcher.FetchIncrementalSyncData").
			Str("subject", subject).
			Msg("incremental sync request rejected")
		return models.IncrementalSyncData{}, err
	}

	var data models.IncrementalSyncData
	if err = json.Unmarshal(resp.Body(), &data); err != nil {
		return models.IncrementalSyncData{}, fmt.Errorf("decode incremental sync response: %w", err)
	}

	return data, nil
}

// UploadChanges implements [DataFetcher]. It POSTs the batch to
// POST /api/sync/upload and decodes the server's acknowledgement. Returns
// [ErrVersionConflict] (wrapped) on HTTP 409.
func (h *httpDataFetcher) UploadChanges(ctx context.Context, subject string, changes []models.SyncChange) (models.UploadResult, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(uploadRequest{Changes: changes, Length: len(changes)}).
		Post("/api/sync/upload")
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("upload request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Err(err).
			Str("func", "httpDataFetcher.UploadChanges").
			Str("subject", subject).
			Int("changes", len(changes)).
			Msg("upload request rejected")
		return models.UploadResult{}, err
	}

	var result models.UploadResult
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}

	return result, nil
}

type uploadRequest struct {
	Changes []models.SyncChange `json:"changes"`
	Length  int                 `json:"length"`
}

func (h *httpDataFetcher) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
