package handler

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
)

// DistributionObserver 每轮分配成功后回调
type DistributionObserver func(result *logic.DistributionResult)

// Handlers rollup 请求处理集合，业务逻辑与分发器共享同一账本
type Handlers struct {
	configLogic       *logic.ConfigLogic
	userLogic         *logic.UserLogic
	referralLogic     *logic.ReferralLogic
	rewardLogic       *logic.RewardLogic
	withdrawalLogic   *logic.WithdrawalLogic
	depositLogic      *logic.DepositLogic
	subscriptionLogic *logic.SubscriptionLogic

	onDistribution DistributionObserver
}

// NewHandlers 创建处理集合
func NewHandlers(s *store.Store) *Handlers {
	referral := logic.NewReferralLogic(s)
	return &Handlers{
		configLogic:       logic.NewConfigLogic(s),
		userLogic:         logic.NewUserLogic(s, referral),
		referralLogic:     referral,
		rewardLogic:       logic.NewRewardLogic(s),
		withdrawalLogic:   logic.NewWithdrawalLogic(s),
		depositLogic:      logic.NewDepositLogic(s),
		subscriptionLogic: logic.NewSubscriptionLogic(s),
	}
}

// OnDistribution 设置分配回调
func (h *Handlers) OnDistribution(fn DistributionObserver) {
	h.onDistribution = fn
}

// RegisterAll 注册全部命令、inspect 路由与 portal 处理，重复注册在启动时 panic
func (h *Handlers) RegisterAll(d *dispatcher.Dispatcher) {
	d.MustRegister(dispatcher.MethodCreateConfig, h.CreateConfig)
	d.MustRegister(dispatcher.MethodUpdateConfig, h.UpdateConfig)
	d.MustRegister(dispatcher.MethodCreateUser, h.CreateUser)
	d.MustRegister(dispatcher.MethodUpdateUser, h.UpdateUser)
	d.MustRegister(dispatcher.MethodProcessReferral, h.ProcessReferral)
	d.MustRegister(dispatcher.MethodDistributeReward, h.DistributeReward)
	d.MustRegister(dispatcher.MethodConvertMeloToCtsi, h.ConvertMeloToCtsi)
	d.MustRegister(dispatcher.MethodWithdrawEther, h.WithdrawEther)
	d.MustRegister(dispatcher.MethodWithdrawERC20, h.WithdrawERC20)
	d.MustRegister(dispatcher.MethodWithdrawERC721, h.WithdrawERC721)
	d.MustRegister(dispatcher.MethodCreateSubscriptionPlan, h.CreateSubscriptionPlan)
	d.MustRegister(dispatcher.MethodSubscribe, h.Subscribe)
	d.MustRegister(dispatcher.MethodDeleteAllUsers, h.DeleteAllUsers)

	d.MustRegisterInspect(dispatcher.InspectConfig, InspectConfig)
	d.MustRegisterInspect(dispatcher.InspectUsers, InspectUsers)
	d.MustRegisterInspect(dispatcher.InspectUser, InspectUser)
	d.MustRegisterInspect(dispatcher.InspectUserByID, InspectUserByID)
	d.MustRegisterInspect(dispatcher.InspectUserByUsername, InspectUserByUsername)
	d.MustRegisterInspect(dispatcher.InspectArtists, InspectArtists)
	d.MustRegisterInspect(dispatcher.InspectReferrals, InspectReferrals)
	d.MustRegisterInspect(dispatcher.InspectReferralTransactions, InspectReferralTransactions)
	d.MustRegisterInspect(dispatcher.InspectBalance, InspectBalance)
	d.MustRegisterInspect(dispatcher.InspectWithdrawals, InspectWithdrawals)
	d.MustRegisterInspect(dispatcher.InspectSubscriptionPlans, InspectSubscriptionPlans)
	d.MustRegisterInspect(dispatcher.InspectDappAddress, InspectDappAddress)
	d.MustRegisterInspect(dispatcher.InspectStats, InspectStats)

	d.MustRegisterPortal(portal.KindEtherDeposit, h.EtherDeposit)
	d.MustRegisterPortal(portal.KindERC20Deposit, h.ERC20Deposit)
	d.MustRegisterPortal(portal.KindERC721Deposit, h.ERC721Deposit)
	d.MustRegisterPortal(portal.KindERC1155SingleDeposit, h.ERC1155SingleDeposit)
	d.MustRegisterPortal(portal.KindERC1155BatchDeposit, h.ERC1155BatchDeposit)
	d.MustRegisterPortal(portal.KindAddressRelay, h.AddressRelay)
}

// notice 构造单条 notice 输出
func notice(eventType string, data interface{}) ([]output.Output, error) {
	o, err := output.NewStatement(eventType, data)
	if err != nil {
		return nil, err
	}
	return []output.Output{o}, nil
}

// report 构造单条 report 输出
func report(data interface{}) ([]output.Output, error) {
	o, err := output.ReportJSON(data)
	if err != nil {
		return nil, err
	}
	return []output.Output{o}, nil
}
