package output

import (
	"context"
	"fmt"
)

// Sink 输出的投递目标（rollup HTTP 服务）
type Sink interface {
	SendNotice(ctx context.Context, o Output) error
	SendVoucher(ctx context.Context, o Output) error
	SendReport(ctx context.Context, o Output) error
}

// Observer 每条成功投递的输出都会回调
type Observer func(seq int, o Output)

// Emitter 单个请求内的输出缓冲
type Emitter struct {
	queue     []Output
	observers []Observer
}

// NewEmitter 创建输出器
func NewEmitter(observers ...Observer) *Emitter {
	return &Emitter{observers: observers}
}

// Enqueue 在处理过程中追加次要输出，按到达顺序保存
func (e *Emitter) Enqueue(o Output) {
	e.queue = append(e.queue, o)
}

// Queued 当前缓冲数量
func (e *Emitter) Queued() int {
	return len(e.queue)
}

// Discard 丢弃缓冲（请求被拒绝时调用）
func (e *Emitter) Discard() {
	e.queue = nil
}

// Drain 返回缓冲内容并清空
func (e *Emitter) Drain() []Output {
	queued := e.queue
	e.queue = nil
	return queued
}

// Flush 先投递主结果，再投递缓冲的次要输出
func (e *Emitter) Flush(ctx context.Context, sink Sink, primary []Output) (int, error) {
	all := append(append([]Output(nil), primary...), e.Drain()...)

	for i, o := range all {
		var err error
		switch o.Kind {
		case KindNotice:
			err = sink.SendNotice(ctx, o)
		case KindVoucher:
			err = sink.SendVoucher(ctx, o)
		case KindReport:
			err = sink.SendReport(ctx, o)
		default:
			err = fmt.Errorf("unknown output kind %q", o.Kind)
		}
		if err != nil {
			return i, fmt.Errorf("failed to emit %s #%d: %w", o.Kind, i, err)
		}
		for _, observe := range e.observers {
			observe(i, o)
		}
	}
	return len(all), nil
}
