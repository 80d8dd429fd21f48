package upscale

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Upscaler enlarges an image before conversion. The service itself does not
// implement upscaling; the only implementation delegates to an external
// endpoint.
type Upscaler interface {
	Upscale(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

// HTTPUpscaler posts the raw image to a remote upscaling service and reads
// the enlarged image back from the response body.
type HTTPUpscaler struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTP(endpoint string, logger *zap.Logger) *HTTPUpscaler {
	return &HTTPUpscaler{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   logger,
	}
}

func (u *HTTPUpscaler) Upscale(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimeType)

	u.logger.Info("Delegating upscale",
		zap.String("endpoint", u.endpoint),
		zap.Int("bytes", len(data)),
	)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upscaler request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upscaler returned status %d", resp.StatusCode)
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upscaler response: %w", err)
	}
	return out, nil
}
