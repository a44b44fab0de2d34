package regional

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	abrBaseURL     = "https://abr.business.gov.au/json"
	abrTimeout     = 10 * time.Second
	maxNameResults = 10
)

var ErrRegistryUnavailable = errors.New("regional: business register unreachable")

// AbnDetails is the AbnDetails.aspx payload. Message is set by the register
// when the lookup fails.
type AbnDetails struct {
	Abn              string `json:"Abn"`
	EntityName       string `json:"EntityName"`
	EntityTypeName   string `json:"EntityTypeName"`
	EntityStatusCode string `json:"EntityStatusCode"`
	Message          string `json:"Message"`
}

type NameMatch struct {
	Abn            string `json:"Abn"`
	AbnStatus      string `json:"AbnStatus"`
	Name           string `json:"Name"`
	EntityTypeName string `json:"EntityTypeName"`
}

// NameSearch is the MatchingNames.aspx payload.
type NameSearch struct {
	Names   []NameMatch `json:"Names"`
	Message string      `json:"Message"`
}

// ABRClient looks businesses up in the Australian Business Register. guid is
// the registered API key. Transport failures wrap ErrRegistryUnavailable.
type ABRClient interface {
	AbnDetails(ctx context.Context, guid, abn string) (AbnDetails, error)
	MatchingNames(ctx context.Context, guid, name string) (NameSearch, error)
}

// HTTPClient calls the public ABR JSON service.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{BaseURL: abrBaseURL, client: &http.Client{Timeout: abrTimeout}}
}

func (c *HTTPClient) AbnDetails(ctx context.Context, guid, abn string) (AbnDetails, error) {
	params := url.Values{}
	params.Add("abn", abn)
	params.Add("guid", guid)

	var out AbnDetails
	err := c.get(ctx, "/AbnDetails.aspx", params, &out)
	return out, err
}

func (c *HTTPClient) MatchingNames(ctx context.Context, guid, name string) (NameSearch, error) {
	params := url.Values{}
	params.Add("name", name)
	params.Add("guid", guid)
	params.Add("maxResults", strconv.Itoa(maxNameResults))

	var out NameSearch
	err := c.get(ctx, "/MatchingNames.aspx", params, &out)
	return out, err
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	requestURL := fmt.Sprintf("%s%s?%s", c.BaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("regional: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRegistryUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if err := json.Unmarshal(unwrapJSONP(body), dst); err != nil {
		return fmt.Errorf("regional: decode response: %w", err)
	}
	return nil
}

// unwrapJSONP strips a callback(...) wrapper; the register answers in JSONP
// unless told otherwise.
func unwrapJSONP(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '{' {
		return b
	}
	open := bytes.IndexByte(b, '(')
	end := bytes.LastIndexByte(b, ')')
	if open < 0 || end <= open {
		return b
	}
	return b[open+1 : end]
}
