package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ubuzima-connect/api/internal/config"
	"github.com/ubuzima-connect/api/pkg/logger"
)

const pindoTimeout = 10 * time.Second

// PindoSender posts SMS messages to the Pindo HTTP gateway. The provider's
// response body is not interpreted beyond the status code.
type PindoSender struct {
	client *http.Client
	url    string
	token  string
	sender string
	log    *logger.Logger
}

func NewPindoSender(cfg config.SMSConfig, log *logger.Logger) *PindoSender {
	return &PindoSender{
		client: &http.Client{Timeout: pindoTimeout},
		url:    cfg.URL,
		token:  cfg.Token,
		sender: cfg.Sender,
		log:    log,
	}
}

type pindoRequest struct {
	To     string `json:"to"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

func (p *PindoSender) Send(ctx context.Context, to, text string) error {
	body, err := json.Marshal(pindoRequest{To: to, Text: text, Sender: p.sender})
	if err != nil {
		return fmt.Errorf("failed to encode SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach SMS gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("SMS gateway returned %d: %s", resp.StatusCode, payload)
	}

	p.log.Debug("SMS sent", "to", to)
	return nil
}
