package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/openclerk/directory/modules/directory/domain/record"
)

// Query addresses one remote table read. Offset is pagination-internal
// and deliberately absent: it never participates in cache identity.
type Query struct {
	Table         string
	FilterFormula string
	Fields        []string
	MaxRecords    int
}

// CacheParams returns the normalized, order-independent parameter string
// used for fingerprinting.
func (q Query) CacheParams() string {
	fields := append([]string(nil), q.Fields...)
	sort.Strings(fields)
	return fmt.Sprintf("filter=%s|max=%d|fields=%s",
		q.FilterFormula, q.MaxRecords, strings.Join(fields, ","))
}

// Page is one upstream response. A non-empty Offset means more pages
// follow.
type Page struct {
	Records []record.Record
	Offset  string
}

type Config struct {
	BaseURL string
	BaseID  string
	APIKey  string
	Timeout time.Duration
}

// Client speaks the bearer-token JSON pagination protocol of the remote
// record store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	baseID     string
	apiKey     string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		baseID:     cfg.BaseID,
		apiKey:     cfg.APIKey,
	}
}

type pageResponse struct {
	Records []record.Record `json:"records"`
	Offset  string          `json:"offset"`
}

// FetchPage requests a single page. Pass the offset cursor from the
// previous page, or the empty string for the first one.
func (c *Client) FetchPage(ctx context.Context, q Query, offset string) (Page, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(q.Table))

	params := url.Values{}
	if q.FilterFormula != "" {
		params.Set("filterByFormula", q.FilterFormula)
	}
	if q.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	for _, f := range q.Fields {
		params.Add("fields[]", f)
	}
	if offset != "" {
		params.Set("offset", offset)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, errors.Wrap(err, "upstream: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, errors.Wrap(err, "upstream: request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Page{}, errors.Errorf("upstream: table %q returned status %d", q.Table, resp.StatusCode)
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Page{}, errors.Wrap(err, "upstream: decode response")
	}
	return Page{Records: body.Records, Offset: body.Offset}, nil
}
