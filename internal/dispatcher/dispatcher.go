package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
)

var (
	ErrDuplicateMethod = errors.New("method already registered")
	ErrInvalidMethod   = errors.New("method is not part of the command set")
)

// Status 请求的最终状态
type Status string

const (
	StatusAccept Status = "accept"
	StatusReject Status = "reject"
)

// Metadata advance 请求的元数据
type Metadata struct {
	MsgSender   string `json:"msg_sender"`
	EpochIndex  uint64 `json:"epoch_index"`
	InputIndex  uint64 `json:"input_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
}

// Envelope generic advance 请求的 JSON 负载
type Envelope struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
	Signer string          `json:"signer,omitempty"`
}

// Context 单次 advance 处理的上下文
type Context struct {
	Store    *store.Store
	Emitter  *output.Emitter
	Metadata Metadata
	Sender   string          // 生效的调用方（signer 覆盖后）
	Args     json.RawMessage // generic 命令参数
	Payload  []byte          // portal 原始负载
	Log      *logger.Logger
}

// Bind 解析命令参数
func (c *Context) Bind(v interface{}) error {
	args := bytes.TrimSpace(c.Args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return logic.Validationf("invalid args: %v", err)
	}
	return nil
}

// Timestamp 区块时间
func (c *Context) Timestamp() int64 {
	return c.Metadata.Timestamp
}

// AdvanceHandler 可修改账本的处理函数（命令与 portal 共用）
type AdvanceHandler func(ctx *Context) ([]output.Output, error)

// InspectHandler 只读处理函数，只能拿到 store.Reader
type InspectHandler func(r store.Reader, arg string) ([]output.Output, error)

// Recorder 指标上报
type Recorder interface {
	InputProcessed(kind string, status Status)
	HandlerDuration(method string, d time.Duration)
}

// Result 处理结果；Outputs 为主输出，次要输出留在 Emitter 中等待 Flush
type Result struct {
	Status  Status
	Outputs []output.Output
}

// Rejection 拒绝时的 report 内容
type Rejection struct {
	Error  string          `json:"error"`
	Kind   logic.ErrorKind `json:"kind"`
	Method string          `json:"method,omitempty"`
}

// Dispatcher 请求分发器，持有账本并在一次请求内独占
type Dispatcher struct {
	store      *store.Store
	emitter    *output.Emitter
	classifier *portal.Classifier
	recorder   Recorder

	advance map[Method]AdvanceHandler
	inspect map[Method]InspectHandler
	portals map[portal.Kind]AdvanceHandler
}

// New 创建分发器
func New(s *store.Store, classifier *portal.Classifier, emitter *output.Emitter) *Dispatcher {
	return &Dispatcher{
		store:      s,
		emitter:    emitter,
		classifier: classifier,
		advance:    make(map[Method]AdvanceHandler),
		inspect:    make(map[Method]InspectHandler),
		portals:    make(map[portal.Kind]AdvanceHandler),
	}
}

// SetRecorder 设置指标上报
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// Store 账本
func (d *Dispatcher) Store() *store.Store {
	return d.store
}

// Register 注册 advance 命令
func (d *Dispatcher) Register(m Method, h AdvanceHandler) error {
	if !m.IsAdvance() {
		return fmt.Errorf("%w: %s", ErrInvalidMethod, m)
	}
	if _, exists := d.advance[m]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, m)
	}
	d.advance[m] = h
	return nil
}

// RegisterInspect 注册 inspect 路由
func (d *Dispatcher) RegisterInspect(m Method, h InspectHandler) error {
	if !m.IsInspect() {
		return fmt.Errorf("%w: %s", ErrInvalidMethod, m)
	}
	if _, exists := d.inspect[m]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, m)
	}
	d.inspect[m] = h
	return nil
}

// RegisterPortal 注册 portal 存入处理
func (d *Dispatcher) RegisterPortal(k portal.Kind, h AdvanceHandler) error {
	if k == portal.KindGeneric {
		return fmt.Errorf("%w: generic portal kind", ErrInvalidMethod)
	}
	if _, exists := d.portals[k]; exists {
		return fmt.Errorf("%w: portal %s", ErrDuplicateMethod, k)
	}
	d.portals[k] = h
	return nil
}

// MustRegister 启动期注册，重复注册直接 panic
func (d *Dispatcher) MustRegister(m Method, h AdvanceHandler) {
	if err := d.Register(m, h); err != nil {
		panic(err)
	}
}

// MustRegisterInspect 启动期注册 inspect 路由
func (d *Dispatcher) MustRegisterInspect(m Method, h InspectHandler) {
	if err := d.RegisterInspect(m, h); err != nil {
		panic(err)
	}
}

// MustRegisterPortal 启动期注册 portal 处理
func (d *Dispatcher) MustRegisterPortal(k portal.Kind, h AdvanceHandler) {
	if err := d.RegisterPortal(k, h); err != nil {
		panic(err)
	}
}

// Advance 处理一次 advance 请求，整个过程持有账本锁
func (d *Dispatcher) Advance(meta Metadata, payload []byte) Result {
	d.store.Lock()
	defer d.store.Unlock()

	log := logger.ForInput(meta.InputIndex, meta.MsgSender)
	ctx := &Context{
		Store:    d.store,
		Emitter:  d.emitter,
		Metadata: meta,
		Sender:   chain.NormalizeAddress(meta.MsgSender),
		Payload:  payload,
		Log:      log,
	}

	kind := d.classifier.Classify(meta.MsgSender)
	if kind != portal.KindGeneric {
		h, ok := d.portals[kind]
		if !ok {
			return d.finish(kind.String(), "", log, nil, logic.Domainf("no handler for %s input", kind))
		}
		outputs, err := d.run(kind.String(), log, func() ([]output.Output, error) { return h(ctx) })
		return d.finish(kind.String(), "", log, outputs, err)
	}

	env, err := decodeEnvelope(payload)
	if err != nil {
		return d.finish("generic", "", log, nil, err)
	}
	if env.Signer != "" {
		if !chain.IsAddress(env.Signer) {
			return d.finish("generic", env.Method, log, nil, logic.Validationf("invalid signer address: %s", env.Signer))
		}
		ctx.Sender = chain.NormalizeAddress(env.Signer)
	}
	ctx.Args = env.Args

	h, ok := d.advance[Method(env.Method)]
	if !ok {
		return d.finish("generic", env.Method, log, nil, unknownMethod(env.Method))
	}
	log.Debug("Dispatching %s for %s", env.Method, ctx.Sender)
	outputs, err := d.run(env.Method, log, func() ([]output.Output, error) { return h(ctx) })
	return d.finish("generic", env.Method, log, outputs, err)
}

// Inspect 处理只读请求，payload 为 "<method>/<argument>"
func (d *Dispatcher) Inspect(payload []byte) Result {
	if !utf8.Valid(payload) {
		return d.reject("inspect", "", logger.ForInspect(""), logic.Validationf("inspect payload is not valid UTF-8"))
	}
	route := strings.TrimPrefix(strings.TrimSpace(string(payload)), "/")
	method, arg, _ := strings.Cut(route, "/")

	log := logger.ForInspect(method)
	h, ok := d.inspect[Method(method)]
	if !ok {
		return d.reject("inspect", method, log, unknownMethod(method))
	}

	var (
		outputs []output.Output
		err     error
	)
	d.store.View(func(r store.Reader) {
		outputs, err = d.run(method, log, func() ([]output.Output, error) { return h(r, arg) })
	})
	if err != nil {
		return d.reject("inspect", method, log, err)
	}
	d.record("inspect", StatusAccept)
	return Result{Status: StatusAccept, Outputs: outputs}
}

// Flush 投递主输出与本次请求缓冲的次要输出
func (d *Dispatcher) Flush(ctx context.Context, sink output.Sink, res Result) (int, error) {
	return d.emitter.Flush(ctx, sink, res.Outputs)
}

// run 执行处理函数，panic 转为 internal 错误
func (d *Dispatcher) run(method string, log *logger.Logger, fn func() ([]output.Output, error)) (outputs []output.Output, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler %s panicked: %v\n%s", method, r, debug.Stack())
			outputs = nil
			err = fmt.Errorf("internal error while handling %s: %v", method, r)
		}
		if d.recorder != nil {
			d.recorder.HandlerDuration(method, time.Since(start))
		}
	}()
	return fn()
}

func (d *Dispatcher) finish(kind, method string, log *logger.Logger, outputs []output.Output, err error) Result {
	if err != nil {
		d.emitter.Discard()
		return d.reject(kind, method, log, err)
	}
	d.record(kind, StatusAccept)
	return Result{Status: StatusAccept, Outputs: outputs}
}

// Reject 请求在分发前即无法解析（信封或负载编码错误）时生成带 report 的拒绝结果
func (d *Dispatcher) Reject(kind string, err error) Result {
	return d.reject(kind, "", logger.With(), logic.Validationf("%v", err))
}

func (d *Dispatcher) reject(kind, method string, log *logger.Logger, err error) Result {
	errKind := logic.KindOf(err)
	if errKind == logic.KindInternal {
		log.Error("Request %s failed: %v", method, err)
	} else {
		log.Warn("Request %s rejected (%s): %v", method, errKind, err)
	}

	report, encErr := output.ReportJSON(Rejection{Error: err.Error(), Kind: errKind, Method: method})
	if encErr != nil {
		report = output.Report([]byte(err.Error()))
	}
	d.record(kind, StatusReject)
	return Result{Status: StatusReject, Outputs: []output.Output{report}}
}

func (d *Dispatcher) record(kind string, status Status) {
	if d.recorder != nil {
		d.recorder.InputProcessed(kind, status)
	}
}

func decodeEnvelope(payload []byte) (*Envelope, error) {
	if !utf8.Valid(payload) {
		return nil, logic.Validationf("payload is not valid UTF-8")
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, logic.Validationf("invalid request payload: %v", err)
	}
	if env.Method == "" {
		return nil, logic.Validationf("method is required")
	}
	return &env, nil
}

func unknownMethod(method string) error {
	return logic.Domainf("unknown method: %s", method)
}
