package portal

import (
	"fmt"
	"math/big"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	addressLen = 20
	wordLen    = 32
)

// EtherDeposit Ether portal 存入
type EtherDeposit struct {
	Sender string
	Value  *big.Int
	Data   []byte
}

// ERC20Deposit ERC20 portal 存入
type ERC20Deposit struct {
	Success bool
	Token   string
	Sender  string
	Amount  *big.Int
	Data    []byte
}

// ERC721Deposit ERC721 portal 存入
type ERC721Deposit struct {
	Token   string
	Sender  string
	TokenID *big.Int
}

// ERC1155Deposit ERC1155 单笔/批量存入
type ERC1155Deposit struct {
	Token    string
	Sender   string
	TokenIDs []*big.Int
	Values   []*big.Int
}

var (
	uint256Array, _ = abi.NewType("uint256[]", "", nil)
	bytesType, _    = abi.NewType("bytes", "", nil)

	batchArgs = abi.Arguments{
		{Type: uint256Array},
		{Type: uint256Array},
		{Type: bytesType},
		{Type: bytesType},
	}
)

// reader 顺序读取 packed 编码
type reader struct {
	data []byte
	pos  int
	kind string
}

func (r *reader) take(n int, field string) ([]byte, error) {
	if len(r.data)-r.pos < n {
		return nil, fmt.Errorf("invalid %s payload: missing %s (need %d bytes at offset %d, have %d)",
			r.kind, field, n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) address(field string) (string, error) {
	b, err := r.take(addressLen, field)
	if err != nil {
		return "", err
	}
	return chain.FromCommon(common.BytesToAddress(b)), nil
}

func (r *reader) uint256(field string) (*big.Int, error) {
	b, err := r.take(wordLen, field)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func (r *reader) rest() []byte {
	return r.data[r.pos:]
}

// DecodeEtherDeposit sender(20) ‖ value(32) ‖ data
func DecodeEtherDeposit(payload []byte) (*EtherDeposit, error) {
	r := &reader{data: payload, kind: "ether deposit"}
	sender, err := r.address("sender")
	if err != nil {
		return nil, err
	}
	value, err := r.uint256("value")
	if err != nil {
		return nil, err
	}
	return &EtherDeposit{Sender: sender, Value: value, Data: r.rest()}, nil
}

// DecodeERC20Deposit success(1) ‖ token(20) ‖ sender(20) ‖ amount(32) ‖ data
func DecodeERC20Deposit(payload []byte) (*ERC20Deposit, error) {
	r := &reader{data: payload, kind: "erc20 deposit"}
	flag, err := r.take(1, "success flag")
	if err != nil {
		return nil, err
	}
	token, err := r.address("token")
	if err != nil {
		return nil, err
	}
	sender, err := r.address("sender")
	if err != nil {
		return nil, err
	}
	amount, err := r.uint256("amount")
	if err != nil {
		return nil, err
	}
	return &ERC20Deposit{Success: flag[0] == 1, Token: token, Sender: sender, Amount: amount, Data: r.rest()}, nil
}

// DecodeERC721Deposit token(20) ‖ sender(20) ‖ tokenId(32) ‖ abi.encode(bytes,bytes)
func DecodeERC721Deposit(payload []byte) (*ERC721Deposit, error) {
	r := &reader{data: payload, kind: "erc721 deposit"}
	token, err := r.address("token")
	if err != nil {
		return nil, err
	}
	sender, err := r.address("sender")
	if err != nil {
		return nil, err
	}
	tokenID, err := r.uint256("token id")
	if err != nil {
		return nil, err
	}
	return &ERC721Deposit{Token: token, Sender: sender, TokenID: tokenID}, nil
}

// DecodeERC1155SingleDeposit token(20) ‖ sender(20) ‖ id(32) ‖ value(32) ‖ abi.encode(bytes,bytes)
func DecodeERC1155SingleDeposit(payload []byte) (*ERC1155Deposit, error) {
	r := &reader{data: payload, kind: "erc1155 single deposit"}
	token, err := r.address("token")
	if err != nil {
		return nil, err
	}
	sender, err := r.address("sender")
	if err != nil {
		return nil, err
	}
	id, err := r.uint256("token id")
	if err != nil {
		return nil, err
	}
	value, err := r.uint256("value")
	if err != nil {
		return nil, err
	}
	return &ERC1155Deposit{Token: token, Sender: sender, TokenIDs: []*big.Int{id}, Values: []*big.Int{value}}, nil
}

// DecodeERC1155BatchDeposit token(20) ‖ sender(20) ‖ abi.encode(uint256[],uint256[],bytes,bytes)
func DecodeERC1155BatchDeposit(payload []byte) (*ERC1155Deposit, error) {
	r := &reader{data: payload, kind: "erc1155 batch deposit"}
	token, err := r.address("token")
	if err != nil {
		return nil, err
	}
	sender, err := r.address("sender")
	if err != nil {
		return nil, err
	}

	values, err := batchArgs.Unpack(r.rest())
	if err != nil {
		return nil, fmt.Errorf("invalid erc1155 batch deposit payload: %w", err)
	}
	ids := values[0].([]*big.Int)
	amounts := values[1].([]*big.Int)
	if len(ids) != len(amounts) {
		return nil, fmt.Errorf("invalid erc1155 batch deposit payload: %d ids but %d values", len(ids), len(amounts))
	}
	return &ERC1155Deposit{Token: token, Sender: sender, TokenIDs: ids, Values: amounts}, nil
}

// DecodeRelay 应用地址 relay：payload 为20字节地址
func DecodeRelay(payload []byte) (string, error) {
	if len(payload) != addressLen {
		return "", fmt.Errorf("invalid address relay payload: expected %d bytes, got %d", addressLen, len(payload))
	}
	return chain.FromCommon(common.BytesToAddress(payload)), nil
}
