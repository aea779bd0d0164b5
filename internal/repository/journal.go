package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// StatusDelivered 输出已被 rollup 服务接收
const StatusDelivered = "delivered"

// Journal 异步写入已投递输出的审计日志，写入失败只记日志，不影响请求结果
type Journal struct {
	db        *gorm.DB
	pool      *ants.Pool
	sessionID string

	mu          sync.Mutex
	requestType string
	inputIndex  uint64

	wg sync.WaitGroup
}

// NewJournal 创建日志写入器，workers 为写入协程池大小
func NewJournal(db *gorm.DB, workers int, sessionID string) (*Journal, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal pool: %w", err)
	}
	return &Journal{db: db, pool: pool, sessionID: sessionID}, nil
}

// SessionID 本次运行的会话ID
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Begin 标记当前处理的请求，之后观察到的输出都归属于它
func (j *Journal) Begin(requestType string, inputIndex uint64) {
	j.mu.Lock()
	j.requestType = requestType
	j.inputIndex = inputIndex
	j.mu.Unlock()
}

// Observe 作为 output.Observer 挂到 Emitter 上
func (j *Journal) Observe(seq int, o output.Output) {
	j.mu.Lock()
	record := &model.OutputRecordModel{
		Id:          uuid.NewString(),
		CreatedAt:   time.Now(),
		SessionId:   j.sessionID,
		RequestType: j.requestType,
		InputIndex:  j.inputIndex,
		Seq:         seq,
		Kind:        string(o.Kind),
		Destination: o.Destination,
		Payload:     o.HexPayload(),
		Status:      StatusDelivered,
	}
	j.mu.Unlock()
	if o.Kind == output.KindVoucher {
		record.Value = o.HexValue()
	}

	j.wg.Add(1)
	err := j.pool.Submit(func() {
		defer j.wg.Done()
		if err := j.db.Create(record).Error; err != nil {
			logger.Error("Failed to journal %s #%d of input %d: %v", record.Kind, record.Seq, record.InputIndex, err)
		}
	})
	if err != nil {
		j.wg.Done()
		logger.Error("Failed to submit journal task: %v", err)
	}
}

// Flush 等待已提交的写入完成
func (j *Journal) Flush() {
	j.wg.Wait()
}

// Records 查询某个输入的输出记录，按序号排序
func (j *Journal) Records(ctx context.Context, inputIndex uint64) ([]model.OutputRecordModel, error) {
	var records []model.OutputRecordModel
	err := j.db.WithContext(ctx).
		Where("session_id = ? AND input_index = ?", j.sessionID, inputIndex).
		Order("seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return records, nil
}

// Prune 删除早于 retention 的记录，返回删除数量
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := j.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.OutputRecordModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close 等待写入完成并释放协程池
func (j *Journal) Close() {
	j.Flush()
	j.pool.Release()
}
