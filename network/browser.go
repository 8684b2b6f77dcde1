package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/automoto/dynamicai/shared/messages"
)

// Browser lists the hosts registered with a master directory.
type Browser struct {
	masterURL  string
	httpClient *http.Client
}

func NewBrowser(masterURL string) *Browser {
	return &Browser{
		masterURL:  masterURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Servers queries the directory. A non-empty zone asks only for hosts
// running that zone.
func (b *Browser) Servers(ctx context.Context, zone string) ([]messages.ServerInfo, error) {
	endpoint := b.masterURL + "/servers"
	if zone != "" {
		endpoint += "?" + url.Values{"zone": {zone}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("master server query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("master server returned status %d", resp.StatusCode)
	}

	var servers []messages.ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return nil, fmt.Errorf("decode server list: %w", err)
	}
	return servers, nil
}
