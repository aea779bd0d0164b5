package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Tracker 在每个请求开始处理前收到通知
type Tracker interface {
	Begin(requestType string, inputIndex uint64)
}

// Runner 逐个拉取并处理 rollup 请求
type Runner struct {
	client       *Client
	dispatcher   *dispatcher.Dispatcher
	pollInterval time.Duration
	trackers     []Tracker
}

// NewRunner 创建处理循环
func NewRunner(client *Client, d *dispatcher.Dispatcher, pollInterval time.Duration) *Runner {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Runner{client: client, dispatcher: d, pollInterval: pollInterval}
}

// Track 添加请求跟踪者（输出日志等）
func (r *Runner) Track(t Tracker) {
	r.trackers = append(r.trackers, t)
}

// Run 主循环：finish(上一状态) → 处理 → 投递输出。ctx 取消只在请求之间生效
func (r *Runner) Run(ctx context.Context) error {
	status := dispatcher.StatusAccept
	logger.Info("Rollup loop started against %s", r.client.baseURL)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Rollup loop stopped")
			return ctx.Err()
		default:
		}

		req, err := r.client.Finish(ctx, status)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Finish failed: %v", err)
			r.wait(ctx)
			continue
		}
		if req == nil {
			r.wait(ctx)
			continue
		}

		// 请求内部不响应取消，保证状态与输出一致
		status = r.Handle(context.WithoutCancel(ctx), req)
	}
}

// Handle 处理单个请求并投递输出，返回最终状态
func (r *Runner) Handle(ctx context.Context, req *Request) dispatcher.Status {
	var res dispatcher.Result
	switch req.Type {
	case AdvanceState:
		var data AdvanceData
		payload, err := decodeData(req.Data, &data, func() string { return data.Payload })
		r.begin(AdvanceState, data.Metadata.InputIndex)
		if err != nil {
			res = r.dispatcher.Reject("advance", fmt.Errorf("invalid advance request: %w", err))
		} else {
			res = r.dispatcher.Advance(data.Metadata, payload)
		}
	case InspectState:
		var data InspectData
		payload, err := decodeData(req.Data, &data, func() string { return data.Payload })
		r.begin(InspectState, 0)
		if err != nil {
			res = r.dispatcher.Reject("inspect", fmt.Errorf("invalid inspect request: %w", err))
		} else {
			res = r.dispatcher.Inspect(payload)
		}
	default:
		res = r.dispatcher.Reject("unknown", fmt.Errorf("unknown request type: %s", req.Type))
	}

	if n, err := r.dispatcher.Flush(ctx, r.client, res); err != nil {
		logger.Error("Emitted %d outputs before failure: %v", n, err)
		return dispatcher.StatusReject
	}
	return res.Status
}

func (r *Runner) begin(t RequestType, inputIndex uint64) {
	kind := "advance"
	if t == InspectState {
		kind = "inspect"
	}
	for _, tr := range r.trackers {
		tr.Begin(kind, inputIndex)
	}
}

func decodeData(raw json.RawMessage, v interface{}, payload func() string) ([]byte, error) {
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to decode request data: %w", err)
	}
	b, err := hexutil.Decode(payload())
	if err != nil {
		return nil, fmt.Errorf("payload is not 0x-prefixed hex: %w", err)
	}
	return b, nil
}

func (r *Runner) wait(ctx context.Context) {
	t := time.NewTimer(r.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
