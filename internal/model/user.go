package model

import (
	"github.com/shopspring/decimal"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleArtist   UserRole = "artist"   // 艺术家
	UserRoleListener UserRole = "listener" // 听众
)

// User 用户身份记录
type User struct {
	ID            int64           `json:"id"`
	WalletAddress string          `json:"walletAddress"`
	Username      string          `json:"username"`
	DisplayName   string          `json:"displayName"`
	Role          UserRole        `json:"role"`
	MeloPoints    int64           `json:"meloPoints"`
	CtsiBalance   decimal.Decimal `json:"ctsiBalance"`
	ReferralCode  string          `json:"referralCode"`
	ReferralCount int64           `json:"referralCount"`
	CreatedAt     int64           `json:"createdAt"`
	UpdatedAt     int64           `json:"updatedAt"`

	// 恰好挂载其中一个
	Artist   *Artist   `json:"artist,omitempty"`
	Listener *Listener `json:"listener,omitempty"`
}

// Artist 艺术家扩展信息
type Artist struct {
	ID                 int64 `json:"id"`
	UserID             int64 `json:"userId"`
	TotalListeningTime int64 `json:"totalListeningTime"` // 秒
}

// Listener 听众扩展信息
type Listener struct {
	ID                    int64 `json:"id"`
	UserID                int64 `json:"userId"`
	SubscriptionPlanID    int64 `json:"subscriptionPlanId,omitempty"`
	SubscriptionExpiresAt int64 `json:"subscriptionExpiresAt,omitempty"`
}

// Clone 深拷贝
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Artist != nil {
		a := *u.Artist
		cp.Artist = &a
	}
	if u.Listener != nil {
		l := *u.Listener
		cp.Listener = &l
	}
	return &cp
}
