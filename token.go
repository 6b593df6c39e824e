package live

import (
	"context"
	"fmt"

	"github.com/bt-bridge/gemini-live/shared"
	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"
)

// EphemeralTokenRequest shapes the auth-token exchange. Uses bounds how many
// connections the issued token may start; TTLSeconds its lifetime.
type EphemeralTokenRequest struct {
	Uses       int `json:"uses,omitempty"`
	TTLSeconds int `json:"ttlSeconds,omitempty"`
}

type ephemeralTokenResponse struct {
	Name string `json:"name"`
}

// CreateEphemeralToken exchanges a long-lived API key for a short-lived
// credential that browser-facing deployments can hand to untrusted clients.
// Set the result as SessionConfig.AccessToken. Endpoint defaults to
// DefaultTokenEndpoint when empty.
func CreateEphemeralToken(ctx context.Context, apiKey, endpoint string, tokenReq *EphemeralTokenRequest) (string, error) {
	if apiKey == "" {
		return "", shared.ErrNoAPIKey
	}
	if endpoint == "" {
		endpoint = DefaultTokenEndpoint
	}
	if tokenReq == nil {
		tokenReq = &EphemeralTokenRequest{Uses: 1}
	}
	body, err := sonic.Marshal(tokenReq)
	if err != nil {
		return "", fmt.Errorf("marshaling token request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	errC := make(chan error)
	go func() {
		defer close(errC)
		errC <- fasthttp.Do(req, resp)
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errC:
		if err != nil {
			return "", fmt.Errorf("performing HTTP request: %w", err)
		}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), string(resp.Body()))
	}
	var parsed ephemeralTokenResponse
	if err := sonic.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if parsed.Name == "" {
		return "", fmt.Errorf("token response missing name, body: %s", string(resp.Body()))
	}
	return parsed.Name, nil
}
