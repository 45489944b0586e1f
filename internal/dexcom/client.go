// Package dexcom is a client for the glucose vendor's share service: a
// two-step credential exchange followed by session-scoped data pulls.
package dexcom

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
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/tidwall/gjson"
)

// DefaultApplicationID identifies this client to the share service.
const DefaultApplicationID = "d8665ade-9673-4e27-9ff6-92db4ce13d13"

// DefaultBaseURLs are the fixed regional endpoints.
var DefaultBaseURLs = map[string]string{
	models.RegionUS:  "https://share2.dexcom.com/ShareWebServices/Services",
	models.RegionOUS: "https://shareous1.dexcom.com/ShareWebServices/Services",
}

const (
	pathAuthenticate = "/General/AuthenticatePublisherAccount"
	pathLogin        = "/General/LoginPublisherAccountById"
	pathReadLatest   = "/Publisher/ReadPublisherLatestGlucoseValues"

	// The service answers rejected credentials with an all-zero id.
	nullID = "00000000-0000-0000-0000-000000000000"

	maxBody = 1 << 20
)

// Config configures a Client. Zero fields fall back to defaults.
type Config struct {
	BaseURLs      map[string]string
	ApplicationID string
	Timeout       time.Duration
}

// Client calls the share service.
type Client struct {
	baseURLs map[string]string
	appID    string
	http     *http.Client
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	base := make(map[string]string, len(DefaultBaseURLs))
	for k, v := range DefaultBaseURLs {
		base[k] = v
	}
	for k, v := range cfg.BaseURLs {
		if v != "" {
			base[k] = strings.TrimRight(v, "/")
		}
	}
	appID := cfg.ApplicationID
	if appID == "" {
		appID = DefaultApplicationID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURLs: base,
		appID:    appID,
		http:     &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the endpoint for region.
func (c *Client) BaseURL(region string) (string, error) {
	u, ok := c.baseURLs[region]
	if !ok {
		return "", fmt.Errorf("%w: unknown region %q", feed.ErrInvalidInput, region)
	}
	return u, nil
}

// Authenticate exchanges username and password for an account id.
func (c *Client) Authenticate(ctx context.Context, creds models.DexcomCredentials) (string, error) {
	raw, err := c.post(ctx, creds.Region, pathAuthenticate, nil, map[string]string{
		"accountName":   creds.Username,
		"applicationId": c.appID,
		"password":      creds.Password,
	})
	if err != nil {
		return "", err
	}
	return parseID(raw, "account id")
}

// Login exchanges an account id for a session id.
func (c *Client) Login(ctx context.Context, creds models.DexcomCredentials, accountID string) (string, error) {
	raw, err := c.post(ctx, creds.Region, pathLogin, nil, map[string]string{
		"accountId":     accountID,
		"applicationId": c.appID,
		"password":      creds.Password,
	})
	if err != nil {
		return "", err
	}
	return parseID(raw, "session id")
}

// ReadLatest pulls at most maxCount readings from the last minutes.
func (c *Client) ReadLatest(ctx context.Context, region, sessionID string, minutes, maxCount int) (Batch, error) {
	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("minutes", strconv.Itoa(minutes))
	q.Set("maxCount", strconv.Itoa(maxCount))

	raw, err := c.post(ctx, region, pathReadLatest, q, nil)
	if err != nil {
		return Batch{}, err
	}
	return ParseBatch(raw)
}

func (c *Client) post(ctx context.Context, region, path string, query url.Values, payload any) ([]byte, error) {
	base, err := c.BaseURL(region)
	if err != nil {
		return nil, err
	}
	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", feed.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", feed.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", feed.ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if gjson.ValidBytes(raw) {
			apiErr.Code = gjson.GetBytes(raw, "Code").String()
			apiErr.Message = gjson.GetBytes(raw, "Message").String()
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	return raw, nil
}

func parseID(raw []byte, what string) (string, error) {
	res := gjson.ParseBytes(raw)
	if res.Type != gjson.String || res.String() == "" {
		return "", fmt.Errorf("%w: invalid %s response", feed.ErrUpstream, what)
	}
	if res.String() == nullID {
		return "", &APIError{Status: http.StatusOK, Code: "AccountPasswordInvalid", Message: "credentials rejected"}
	}
	return res.String(), nil
}
