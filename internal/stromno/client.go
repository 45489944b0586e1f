package stromno

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vitals_overlay/internal/feed"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// DefaultRPCURL is the vendor's public JSON-RPC endpoint.
const DefaultRPCURL = "https://api.stromno.com/v1/api/public/rpc"

const maxRPCBody = 1 << 20

// Client resolves widget ids through the vendor's JSON-RPC API.
type Client struct {
	rpcURL string
	http   *http.Client
}

// NewClient returns a client for rpcURL; an empty URL uses DefaultRPCURL.
func NewClient(rpcURL string, timeout time.Duration) *Client {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	return &Client{
		rpcURL: rpcURL,
		http:   &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	Method  string         `json:"method"`
	JSONRPC string         `json:"jsonrpc"`
	Params  map[string]any `json:"params"`
	ID      string         `json:"id"`
}

// ResolveWidget looks up the socket endpoint for widgetID.
func (c *Client) ResolveWidget(ctx context.Context, widgetID string) (string, error) {
	body, err := json.Marshal(rpcRequest{
		Method:  "getWidget",
		JSONRPC: "2.0",
		Params:  map[string]any{"widgetId": widgetID},
		ID:      uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("encode widget lookup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build widget lookup: %v", feed.ErrInvalidInput, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: widget lookup: %v", feed.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRPCBody))
	if err != nil {
		return "", fmt.Errorf("%w: read widget lookup: %v", feed.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: widget lookup returned HTTP %d", feed.ErrUpstream, resp.StatusCode)
	}

	endpoint := gjson.GetBytes(raw, "result.ramielUrl")
	if endpoint.Type != gjson.String || endpoint.String() == "" {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = "widget config missing socket endpoint"
		}
		return "", fmt.Errorf("%w: %s", feed.ErrUpstream, msg)
	}
	return endpoint.String(), nil
}
