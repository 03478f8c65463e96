package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"refractiq/internal/models"
)

// Deliverer доставляет одно измерение на сервер. Ошибка — любой исход,
// после которого измерение должно остаться/оказаться в очереди.
type Deliverer interface {
	Deliver(p models.ReadingPayload) error
}

// HTTPSender — доставка через POST /api/v1/readings. Таймаут короткий, чтобы
// цикл отправки никогда не зависал на мёртвом соединении; таймаут и сетевые
// ошибки равнозначны неуспешному HTTP-статусу.
type HTTPSender struct {
	serverURL string
	apiKey    string
	client    *http.Client
}

func NewHTTPSender(serverURL, apiKey string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSender) Deliver(p models.ReadingPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, s.serverURL+"/api/v1/readings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
