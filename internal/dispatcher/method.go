package dispatcher

// Method 支持的命令名（封闭集合）
type Method string

// advance 命令
const (
	MethodCreateConfig           Method = "create_config"
	MethodUpdateConfig           Method = "update_config"
	MethodCreateUser             Method = "create_user"
	MethodUpdateUser             Method = "update_user"
	MethodProcessReferral        Method = "process_referral"
	MethodDistributeReward       Method = "distribute_reward"
	MethodConvertMeloToCtsi      Method = "convert_melo_to_ctsi"
	MethodWithdrawEther          Method = "withdraw_ether"
	MethodWithdrawERC20          Method = "withdraw_erc20"
	MethodWithdrawERC721         Method = "withdraw_erc721"
	MethodCreateSubscriptionPlan Method = "create_subscription_plan"
	MethodSubscribe              Method = "subscribe"
	MethodDeleteAllUsers         Method = "delete_all_users"
)

// inspect 路由
const (
	InspectConfig               Method = "config"
	InspectUsers                Method = "users"
	InspectUser                 Method = "user"
	InspectUserByID             Method = "user_by_id"
	InspectUserByUsername       Method = "user_by_username"
	InspectArtists              Method = "artists"
	InspectReferrals            Method = "referrals"
	InspectReferralTransactions Method = "referral_transactions"
	InspectBalance              Method = "balance"
	InspectWithdrawals          Method = "withdrawals"
	InspectSubscriptionPlans    Method = "subscription_plans"
	InspectDappAddress          Method = "dapp_address"
	InspectStats                Method = "stats"
)

var advanceMethods = map[Method]bool{
	MethodCreateConfig:           true,
	MethodUpdateConfig:           true,
	MethodCreateUser:             true,
	MethodUpdateUser:             true,
	MethodProcessReferral:        true,
	MethodDistributeReward:       true,
	MethodConvertMeloToCtsi:      true,
	MethodWithdrawEther:          true,
	MethodWithdrawERC20:          true,
	MethodWithdrawERC721:         true,
	MethodCreateSubscriptionPlan: true,
	MethodSubscribe:              true,
	MethodDeleteAllUsers:         true,
}

var inspectMethods = map[Method]bool{
	InspectConfig:               true,
	InspectUsers:                true,
	InspectUser:                 true,
	InspectUserByID:             true,
	InspectUserByUsername:       true,
	InspectArtists:              true,
	InspectReferrals:            true,
	InspectReferralTransactions: true,
	InspectBalance:              true,
	InspectWithdrawals:          true,
	InspectSubscriptionPlans:    true,
	InspectDappAddress:          true,
	InspectStats:                true,
}

// IsAdvance 是否为 advance 命令
func (m Method) IsAdvance() bool {
	return advanceMethods[m]
}

// IsInspect 是否为 inspect 路由
func (m Method) IsInspect() bool {
	return inspectMethods[m]
}
