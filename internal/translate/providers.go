package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxErrorBody = 512

// LibreTranslate calls a LibreTranslate instance (POST /translate).
type LibreTranslate struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLibreTranslate constructs the primary provider.
func NewLibreTranslate(baseURL, apiKey string, client *http.Client) *LibreTranslate {
	return &LibreTranslate{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, httpClient: client}
}

// Name implements Provider.
func (p *LibreTranslate) Name() string { return "libretranslate" }

// Translate implements Provider.
func (p *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	body := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if p.apiKey != "" {
		body["api_key"] = p.apiKey
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := doJSON(p.httpClient, req, p.Name(), &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.TranslatedText), nil
}

// MyMemory calls the MyMemory pair-based API (GET /get?q=..&langpair=src|tgt).
type MyMemory struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

// NewMyMemory constructs the secondary provider. A contact email raises the
// anonymous daily quota.
func NewMyMemory(baseURL, email string, client *http.Client) *MyMemory {
	return &MyMemory{baseURL: strings.TrimRight(baseURL, "/"), email: email, httpClient: client}
}

// Name implements Provider.
func (p *MyMemory) Name() string { return "mymemory" }

// Translate implements Provider. The business status in the body is checked
// as well as the HTTP status; both report quota exhaustion as 429.
func (p *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", source+"|"+target)
	if p.email != "" {
		query.Set("de", p.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/get?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  json.RawMessage `json:"responseStatus"`
		ResponseDetails string          `json:"responseDetails"`
	}
	if err := doJSON(p.httpClient, req, p.Name(), &out); err != nil {
		return "", err
	}

	status := businessStatus(out.ResponseStatus)
	switch {
	case status == http.StatusTooManyRequests:
		return "", &ProviderError{Provider: p.Name(), Status: status, Err: ErrRateLimited}
	case status != http.StatusOK:
		return "", &ProviderError{Provider: p.Name(), Status: status, Err: fmt.Errorf("unexpected response: %s", out.ResponseDetails)}
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}

// businessStatus reads responseStatus, which MyMemory sends either as a
// number or as a quoted string.
func businessStatus(raw json.RawMessage) int {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	status, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return status
}

// Lingva calls a Lingva Translate instance (GET /api/v1/{src}/{tgt}/{text}).
type Lingva struct {
	baseURL    string
	httpClient *http.Client
}

// NewLingva constructs the tertiary provider.
func NewLingva(baseURL string, client *http.Client) *Lingva {
	return &Lingva{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// Name implements Provider.
func (p *Lingva) Name() string { return "lingva" }

// Translate implements Provider.
func (p *Lingva) Translate(ctx context.Context, text, source, target string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/%s/%s/%s", p.baseURL, url.PathEscape(source), url.PathEscape(target), url.PathEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Translation string `json:"translation"`
	}
	if err := doJSON(p.httpClient, req, p.Name(), &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Translation), nil
}

// doJSON executes req and decodes a successful JSON body into out. Non-2xx
// statuses become ProviderErrors; 429 wraps ErrRateLimited.
func doJSON(client *http.Client, req *http.Request, provider string, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &ProviderError{Provider: provider, Status: resp.StatusCode, Err: ErrRateLimited}
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ProviderError{Provider: provider, Status: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(data)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: provider, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
