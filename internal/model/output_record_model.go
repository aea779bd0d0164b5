package model

import (
	"time"
)

// OutputRecordModel 已投递输出的审计记录，仅供运维查询，不参与账本状态
type OutputRecordModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	SessionId   string `json:"session_id" gorm:"type:varchar(36);index;not null"`
	RequestType string `json:"request_type" gorm:"type:varchar(16);not null"` // advance, inspect
	InputIndex  uint64 `json:"input_index" gorm:"index"`
	Seq         int    `json:"seq"`
	Kind        string `json:"kind" gorm:"type:varchar(16);not null"` // notice, voucher, report
	Destination string `json:"destination" gorm:"type:varchar(42)"`
	Payload     string `json:"payload" gorm:"type:text"`
	Value       string `json:"value" gorm:"type:varchar(66)"`
	Status      string `json:"status" gorm:"type:varchar(16)"`
}

// TableName 自定义表名
func (OutputRecordModel) TableName() string {
	return "output_record"
}
