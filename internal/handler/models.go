package handler

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
)

// notice 事件类型
const (
	EventCreated                 = "created"
	EventConfigCreated           = "config_created"
	EventConfigUpdated           = "config_updated"
	EventUserCreated             = "user_created"
	EventUserUpdated             = "user_updated"
	EventUsersDeleted            = "users_deleted"
	EventReferralProcessed       = "referral_processed"
	EventRewardDistributed       = "reward_distributed"
	EventMeloConverted           = "melo_converted"
	EventWithdrawal              = "withdrawal"
	EventSubscriptionPlanCreated = "subscription_plan_created"
	EventSubscribed              = "subscribed"
	EventEtherDeposited          = "ether_deposited"
	EventERC20Deposited          = "erc20_deposited"
	EventERC721Deposited         = "erc721_deposited"
	EventERC1155Deposited        = "erc1155_deposited"
	EventDappAddressSet          = "dapp_address_set"
	EventDappAddressUnchanged    = "dapp_address_unchanged"
)

// Response 调试接口统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// CreatedData 通用创建通知
type CreatedData struct {
	Entity string `json:"entity"`
	ID     int64  `json:"id"`
}

// DeletedData 批量删除通知
type DeletedData struct {
	Count int `json:"count"`
}

// DappAddressData 应用地址通知
type DappAddressData struct {
	DappAddress string `json:"dappAddress"`
}

// ProcessReferralArgs process_referral 参数
type ProcessReferralArgs struct {
	ReferralCode string `json:"referralCode"`
	Name         string `json:"name"`
}

// DistributeRewardArgs distribute_reward 参数
type DistributeRewardArgs struct {
	Artists []logic.ListeningEntry `json:"artists"`
}

// ConvertArgs convert_melo_to_ctsi 参数
type ConvertArgs struct {
	Points int64 `json:"points"`
}
