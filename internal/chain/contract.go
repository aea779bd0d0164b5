package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20 合约ABI（仅 transfer）
const erc20ABI = `[
	{
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ERC721 合约ABI（仅 transferFrom）
const erc721ABI = `[
	{
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Contract 合约调用编码工具类
type Contract struct {
	abi  abi.ABI // 合约ABI
	name string  // 合约名称
}

var (
	// ERC20 标准代币合约
	ERC20 = mustContract("ERC20", erc20ABI)
	// ERC721 标准NFT合约
	ERC721 = mustContract("ERC721", erc721ABI)
)

// NewContract 解析ABI创建合约实例
func NewContract(name, abiJSON string) (*Contract, error) {
	parsedABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
	}
	return &Contract{abi: parsedABI, name: name}, nil
}

func mustContract(name, abiJSON string) *Contract {
	c, err := NewContract(name, abiJSON)
	if err != nil {
		panic(err)
	}
	return c
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// Pack 编码方法调用数据（selector + 参数）
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", c.name, method, err)
	}
	return data, nil
}

// UnpackCall 解码调用数据，返回方法名与参数
func (c *Contract) UnpackCall(data []byte) (string, []interface{}, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("call data too short: %d bytes", len(data))
	}

	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return "", nil, fmt.Errorf("unknown selector %x in contract %s: %w", data[:4], c.name, err)
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Name, err)
	}
	return method.Name, values, nil
}

// EncodeERC20Transfer 编码 transfer(to, amount)
func EncodeERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	return ERC20.Pack("transfer", to, amount)
}

// EncodeERC721TransferFrom 编码 transferFrom(from, to, tokenId)
func EncodeERC721TransferFrom(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	return ERC721.Pack("transferFrom", from, to, tokenID)
}

// DecodeERC20Transfer 解码 transfer 调用数据
func DecodeERC20Transfer(data []byte) (common.Address, *big.Int, error) {
	method, values, err := ERC20.UnpackCall(data)
	if err != nil {
		return common.Address{}, nil, err
	}
	if method != "transfer" || len(values) != 2 {
		return common.Address{}, nil, fmt.Errorf("unexpected call %s", method)
	}
	return values[0].(common.Address), values[1].(*big.Int), nil
}

// DecodeERC721TransferFrom 解码 transferFrom 调用数据
func DecodeERC721TransferFrom(data []byte) (common.Address, common.Address, *big.Int, error) {
	method, values, err := ERC721.UnpackCall(data)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	if method != "transferFrom" || len(values) != 3 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("unexpected call %s", method)
	}
	return values[0].(common.Address), values[1].(common.Address), values[2].(*big.Int), nil
}

// EncodeUint256 编码为32字节大端数值字
func EncodeUint256(value *big.Int) []byte {
	if value == nil {
		value = new(big.Int)
	}
	return common.LeftPadBytes(value.Bytes(), 32)
}
