package mlclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// discover returns the active endpoint, probing the candidates in order when
// none is remembered. The first healthy endpoint wins and the rest are skipped.
func (c *Client) discover(ctx context.Context) (string, bool) {
	c.mu.Lock()
	active := c.activeURL
	c.mu.Unlock()
	if active != "" {
		return active, true
	}

	for _, base := range c.endpoints {
		if ctx.Err() != nil {
			return "", false
		}
		if err := c.probe(ctx, base); err != nil {
			c.logger.Debug("endpoint probe failed", zap.String("endpoint", base), zap.Error(err))
			continue
		}
		c.mu.Lock()
		c.activeURL = base
		c.mu.Unlock()
		return base, true
	}
	return "", false
}

// probe checks GET {base}/health within the probe timeout.
func (c *Client) probe(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}
