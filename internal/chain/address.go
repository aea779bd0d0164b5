package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddress 检查是否为 0x 开头的 20 字节十六进制地址
func IsAddress(addr string) bool {
	return strings.HasPrefix(addr, "0x") && common.IsHexAddress(addr)
}

// NormalizeAddress 地址统一转为小写
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress 大小写不敏感的地址比较
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ToCommon 转换为 go-ethereum 地址类型，调用方需先校验
func ToCommon(addr string) common.Address {
	return common.HexToAddress(addr)
}

// FromCommon 转换为小写十六进制字符串
func FromCommon(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
