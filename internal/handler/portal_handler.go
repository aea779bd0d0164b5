package handler

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
)

// EtherDeposit Ether portal 存入
func (h *Handlers) EtherDeposit(ctx *dispatcher.Context) ([]output.Output, error) {
	d, err := portal.DecodeEtherDeposit(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	return notice(EventEtherDeposited, h.depositLogic.CreditEther(d, ctx.Timestamp()))
}

// ERC20Deposit ERC20 portal 存入
func (h *Handlers) ERC20Deposit(ctx *dispatcher.Context) ([]output.Output, error) {
	d, err := portal.DecodeERC20Deposit(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	credit, err := h.depositLogic.CreditERC20(d, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventERC20Deposited, credit)
}

// ERC721Deposit ERC721 portal 存入
func (h *Handlers) ERC721Deposit(ctx *dispatcher.Context) ([]output.Output, error) {
	d, err := portal.DecodeERC721Deposit(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	return notice(EventERC721Deposited, h.depositLogic.CreditERC721(d, ctx.Timestamp()))
}

// ERC1155SingleDeposit ERC1155 单笔存入
func (h *Handlers) ERC1155SingleDeposit(ctx *dispatcher.Context) ([]output.Output, error) {
	d, err := portal.DecodeERC1155SingleDeposit(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	return h.creditERC1155(ctx, d)
}

// ERC1155BatchDeposit ERC1155 批量存入
func (h *Handlers) ERC1155BatchDeposit(ctx *dispatcher.Context) ([]output.Output, error) {
	d, err := portal.DecodeERC1155BatchDeposit(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	return h.creditERC1155(ctx, d)
}

func (h *Handlers) creditERC1155(ctx *dispatcher.Context, d *portal.ERC1155Deposit) ([]output.Output, error) {
	rec, err := h.depositLogic.CreditERC1155(d, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventERC1155Deposited, rec)
}

// AddressRelay 记录应用自身地址，重复 relay 只回一条 notice
func (h *Handlers) AddressRelay(ctx *dispatcher.Context) ([]output.Output, error) {
	addr, err := portal.DecodeRelay(ctx.Payload)
	if err != nil {
		return nil, logic.Validationf("%v", err)
	}
	if !h.depositLogic.SetDappAddress(addr, ctx.Timestamp()) {
		return notice(EventDappAddressUnchanged, DappAddressData{DappAddress: ctx.Store.DappAddress()})
	}
	return notice(EventDappAddressSet, DappAddressData{DappAddress: ctx.Store.DappAddress()})
}
