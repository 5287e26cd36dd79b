package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ResponsesPath = "/api/responses"

	failedMessage      = "Submission failed. Please try again."
	unreachableMessage = "Unable to connect to server."
)

// HTTP posts submissions to a remote responses API.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type apiMessage struct {
	Message string `json:"message"`
}

func (h *HTTP) Submit(ctx context.Context, s Submission) error {
	body, err := json.Marshal(s)
	if err != nil {
		return &Error{Message: failedMessage, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+ResponsesPath, bytes.NewReader(body))
	if err != nil {
		return &Error{Message: unreachableMessage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return &Error{Message: unreachableMessage, Err: err}
	}
	defer resp.Body.Close()

	var result apiMessage
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(data, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := result.Message
		if message == "" {
			message = failedMessage
		}

		return &Error{
			Message: message,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("POST %s returned %s", req.URL, resp.Status),
		}
	}

	return nil
}
