package rollup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/config"
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
)

// RequestType rollup 下发的请求类型
type RequestType string

const (
	AdvanceState RequestType = "advance_state"
	InspectState RequestType = "inspect_state"
)

// AdvanceData advance_state 请求体
type AdvanceData struct {
	Metadata dispatcher.Metadata `json:"metadata"`
	Payload  string              `json:"payload"`
}

// InspectData inspect_state 请求体
type InspectData struct {
	Payload string `json:"payload"`
}

// Request /finish 返回的待处理请求
type Request struct {
	Type RequestType     `json:"request_type"`
	Data json.RawMessage `json:"data"`
}

type finishBody struct {
	Status dispatcher.Status `json:"status"`
}

type noticeBody struct {
	Payload string `json:"payload"`
}

type voucherBody struct {
	Destination string `json:"destination"`
	Payload     string `json:"payload"`
	Value       string `json:"value"`
}

// Client rollup HTTP 服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg config.RollupConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Finish 上报上一个请求的状态并获取下一个请求；没有待处理请求时返回 nil
func (c *Client) Finish(ctx context.Context, status dispatcher.Status) (*Request, error) {
	resp, err := c.post(ctx, "/finish", finishBody{Status: status})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil, nil
	case http.StatusOK:
		var req Request
		if err := json.NewDecoder(resp.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode finish response: %w", err)
		}
		return &req, nil
	default:
		return nil, statusError("/finish", resp)
	}
}

// SendNotice 实现 output.Sink
func (c *Client) SendNotice(ctx context.Context, o output.Output) error {
	return c.send(ctx, "/notice", noticeBody{Payload: o.HexPayload()})
}

// SendVoucher 实现 output.Sink
func (c *Client) SendVoucher(ctx context.Context, o output.Output) error {
	return c.send(ctx, "/voucher", voucherBody{
		Destination: o.Destination,
		Payload:     o.HexPayload(),
		Value:       o.HexValue(),
	})
}

// SendReport 实现 output.Sink
func (c *Client) SendReport(ctx context.Context, o output.Output) error {
	return c.send(ctx, "/report", noticeBody{Payload: o.HexPayload()})
}

func (c *Client) send(ctx context.Context, path string, body interface{}) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(path, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s failed: %w", path, err)
	}
	return resp, nil
}

func statusError(path string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("POST %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
}
