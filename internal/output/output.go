package output

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind 输出类型
type Kind string

const (
	KindNotice  Kind = "notice"  // 信息声明
	KindVoucher Kind = "voucher" // 可在基础链执行的交易
	KindReport  Kind = "report"  // 诊断信息
)

// Output 交给 rollup 环境的一条输出
type Output struct {
	Kind        Kind
	Destination string   // 仅 voucher
	Payload     []byte
	Value       *big.Int // 仅 voucher，可为 nil
}

// Statement notice 的标准 JSON 结构
type Statement struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notice 构造 notice
func Notice(payload []byte) Output {
	return Output{Kind: KindNotice, Payload: payload}
}

// NewStatement 构造 JSON notice
func NewStatement(eventType string, data interface{}) (Output, error) {
	payload, err := json.Marshal(Statement{Type: eventType, Data: data})
	if err != nil {
		return Output{}, fmt.Errorf("failed to encode %s notice: %w", eventType, err)
	}
	return Notice(payload), nil
}

// Voucher 构造 voucher
func Voucher(destination string, payload []byte, value *big.Int) Output {
	return Output{Kind: KindVoucher, Destination: destination, Payload: payload, Value: value}
}

// Report 构造 report
func Report(payload []byte) Output {
	return Output{Kind: KindReport, Payload: payload}
}

// ReportJSON 构造 JSON report
func ReportJSON(v interface{}) (Output, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Output{}, fmt.Errorf("failed to encode report: %w", err)
	}
	return Report(payload), nil
}

// HexPayload payload 的 0x 十六进制形式
func (o Output) HexPayload() string {
	return hexutil.Encode(o.Payload)
}

// HexValue voucher value 的 32 字节十六进制形式
func (o Output) HexValue() string {
	return hexutil.Encode(chain.EncodeUint256(o.Value))
}
