package handler

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
)

// CreateConfig 创建全局配置
func (h *Handlers) CreateConfig(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.ConfigInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	cfg, err := h.configLogic.CreateConfig(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventConfigCreated, cfg)
}

// UpdateConfig 管理员更新配置
func (h *Handlers) UpdateConfig(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.ConfigInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	cfg, err := h.configLogic.UpdateConfig(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventConfigUpdated, cfg)
}

// CreateUser 注册用户，钱包为调用方
func (h *Handlers) CreateUser(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.CreateUserInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	in.Wallet = ctx.Sender

	user, referral, err := h.userLogic.CreateUser(in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}

	if referral != nil {
		o, err := output.NewStatement(EventReferralProcessed, referral)
		if err != nil {
			return nil, err
		}
		ctx.Emitter.Enqueue(o)
	}
	created, err := output.NewStatement(EventCreated, CreatedData{Entity: "user", ID: user.ID})
	if err != nil {
		return nil, err
	}
	ctx.Emitter.Enqueue(created)

	return notice(EventUserCreated, user)
}

// UpdateUser 修改调用方资料
func (h *Handlers) UpdateUser(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.UpdateUserInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	user, err := h.userLogic.UpdateUser(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventUserUpdated, user)
}

// ProcessReferral 调用方作为被推荐人登记推荐码
func (h *Handlers) ProcessReferral(ctx *dispatcher.Context) ([]output.Output, error) {
	var in ProcessReferralArgs
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	referral, err := h.referralLogic.ProcessReferral(in.ReferralCode, ctx.Sender, in.Name, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventReferralProcessed, referral)
}

// DistributeReward 管理员按收听时长分配奖励
func (h *Handlers) DistributeReward(ctx *dispatcher.Context) ([]output.Output, error) {
	var in DistributeRewardArgs
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	result, err := h.rewardLogic.Distribute(ctx.Sender, in.Artists)
	if err != nil {
		return nil, err
	}
	if h.onDistribution != nil {
		h.onDistribution(result)
	}
	return notice(EventRewardDistributed, result)
}

// ConvertMeloToCtsi 调用方兑换积分
func (h *Handlers) ConvertMeloToCtsi(ctx *dispatcher.Context) ([]output.Output, error) {
	var in ConvertArgs
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	result, err := h.referralLogic.ConvertMeloToCtsi(ctx.Sender, in.Points, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventMeloConverted, result)
}

// WithdrawEther 提取以太币
func (h *Handlers) WithdrawEther(ctx *dispatcher.Context) ([]output.Output, error) {
	return h.withdraw(ctx, h.withdrawalLogic.WithdrawEther)
}

// WithdrawERC20 提取 ERC20
func (h *Handlers) WithdrawERC20(ctx *dispatcher.Context) ([]output.Output, error) {
	return h.withdraw(ctx, h.withdrawalLogic.WithdrawERC20)
}

// WithdrawERC721 提取 NFT
func (h *Handlers) WithdrawERC721(ctx *dispatcher.Context) ([]output.Output, error) {
	return h.withdraw(ctx, h.withdrawalLogic.WithdrawERC721)
}

type withdrawFunc func(wallet string, in logic.WithdrawInput, timestamp int64) (*logic.Withdrawal, error)

// withdraw voucher 在前，审计 notice 在后
func (h *Handlers) withdraw(ctx *dispatcher.Context, fn withdrawFunc) ([]output.Output, error) {
	var in logic.WithdrawInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	w, err := fn(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	n, err := output.NewStatement(EventWithdrawal, w.Record)
	if err != nil {
		return nil, err
	}
	return []output.Output{w.Voucher, n}, nil
}

// CreateSubscriptionPlan 管理员新增套餐
func (h *Handlers) CreateSubscriptionPlan(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.CreatePlanInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	plan, err := h.subscriptionLogic.CreatePlan(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventSubscriptionPlanCreated, plan)
}

// Subscribe 调用方订阅套餐
func (h *Handlers) Subscribe(ctx *dispatcher.Context) ([]output.Output, error) {
	var in logic.SubscribeInput
	if err := ctx.Bind(&in); err != nil {
		return nil, err
	}
	sub, err := h.subscriptionLogic.Subscribe(ctx.Sender, in, ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	return notice(EventSubscribed, sub)
}

// DeleteAllUsers 管理员批量重置用户
func (h *Handlers) DeleteAllUsers(ctx *dispatcher.Context) ([]output.Output, error) {
	n, err := h.userLogic.DeleteAllUsers(ctx.Sender)
	if err != nil {
		return nil, err
	}
	return notice(EventUsersDeleted, DeletedData{Count: n})
}
