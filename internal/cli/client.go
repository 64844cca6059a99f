package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAddr is where commands look for a running trace endpoint.
const DefaultAddr = "http://127.0.0.1:9474"

// endpointClient talks to a running administrative endpoint.
type endpointClient struct {
	base string
	http *http.Client
}

func newEndpointClient(addr string) *endpointClient {
	return &endpointClient{
		base: strings.TrimRight(addr, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches a path and returns the response body.
func (c *endpointClient) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// post sends a message body and expects a success status.
func (c *endpointClient) post(path, message string) error {
	resp, err := c.http.Post(c.base+path, "text/plain", strings.NewReader(message))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
