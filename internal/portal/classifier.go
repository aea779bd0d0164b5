package portal

import (
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/config"
)

// Kind 输入来源分类
type Kind int

const (
	KindGeneric Kind = iota
	KindEtherDeposit
	KindERC20Deposit
	KindERC721Deposit
	KindERC1155SingleDeposit
	KindERC1155BatchDeposit
	KindAddressRelay
)

var kindNames = map[Kind]string{
	KindGeneric:              "generic",
	KindEtherDeposit:         "ether_deposit",
	KindERC20Deposit:         "erc20_deposit",
	KindERC721Deposit:        "erc721_deposit",
	KindERC1155SingleDeposit: "erc1155_single_deposit",
	KindERC1155BatchDeposit:  "erc1155_batch_deposit",
	KindAddressRelay:         "address_relay",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Classifier 按发送方地址识别 portal
type Classifier struct {
	table map[string]Kind
}

// NewClassifier 根据 portal 配置构建分类表
func NewClassifier(cfg config.PortalConfig) *Classifier {
	c := &Classifier{table: make(map[string]Kind, 6)}
	c.table[strings.ToLower(cfg.EtherPortal)] = KindEtherDeposit
	c.table[strings.ToLower(cfg.ERC20Portal)] = KindERC20Deposit
	c.table[strings.ToLower(cfg.ERC721Portal)] = KindERC721Deposit
	c.table[strings.ToLower(cfg.ERC1155SinglePortal)] = KindERC1155SingleDeposit
	c.table[strings.ToLower(cfg.ERC1155BatchPortal)] = KindERC1155BatchDeposit
	c.table[strings.ToLower(cfg.DAppAddressRelay)] = KindAddressRelay
	return c
}

// Classify 大小写不敏感匹配，未命中即为通用命令
func (c *Classifier) Classify(sender string) Kind {
	if kind, ok := c.table[strings.ToLower(strings.TrimSpace(sender))]; ok {
		return kind
	}
	return KindGeneric
}
