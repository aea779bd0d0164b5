package logic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

const (
	maxUsernameLength  = 32
	referralCodePrefix = "MELO"
)

// CreateUserInput 注册参数
type CreateUserInput struct {
	Wallet       string         `json:"-"`
	Username     string         `json:"username"`
	DisplayName  string         `json:"displayName"`
	Role         model.UserRole `json:"role"`
	ReferralCode string         `json:"referralCode"`
}

// UpdateUserInput 资料修改参数
type UpdateUserInput struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
}

// UserLogic 用户业务逻辑
type UserLogic struct {
	store    *store.Store
	referral *ReferralLogic
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(s *store.Store, referral *ReferralLogic) *UserLogic {
	return &UserLogic{store: s, referral: referral}
}

// CreateUser 注册用户；携带推荐码时先完整校验推荐关系，再一并写入
func (l *UserLogic) CreateUser(in CreateUserInput, timestamp int64) (*model.User, *model.Referral, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := l.validateCreate(in); err != nil {
		return nil, nil, err
	}

	var referrer *model.User
	if in.ReferralCode != "" {
		var err error
		if referrer, err = l.referral.checkReferral(in.ReferralCode, in.Wallet); err != nil {
			return nil, nil, err
		}
	}

	user := &model.User{
		WalletAddress: chain.NormalizeAddress(in.Wallet),
		Username:      in.Username,
		DisplayName:   in.DisplayName,
		Role:          in.Role,
		CtsiBalance:   decimal.Zero,
		ReferralCode:  l.generateReferralCode(in.Wallet),
		CreatedAt:     timestamp,
		UpdatedAt:     timestamp,
	}
	switch in.Role {
	case model.UserRoleArtist:
		user.Artist = &model.Artist{}
	case model.UserRoleListener:
		user.Listener = &model.Listener{}
	}
	user = l.store.CreateUser(user)

	var referral *model.Referral
	if referrer != nil {
		referral = l.referral.applyReferral(referrer, in.ReferralCode, user.WalletAddress, user.Username, timestamp)
	}

	logger.Info("User %d (%s) registered as %s", user.ID, user.WalletAddress, user.Role)
	return user.Clone(), referral, nil
}

func (l *UserLogic) validateCreate(in CreateUserInput) error {
	if !chain.IsAddress(in.Wallet) {
		return Validationf("invalid wallet address: %s", in.Wallet)
	}
	if err := validateUsername(in.Username); err != nil {
		return err
	}
	if in.Role != model.UserRoleArtist && in.Role != model.UserRoleListener {
		return Validationf("role must be %q or %q", model.UserRoleArtist, model.UserRoleListener)
	}
	if l.store.MutableUser(in.Wallet) != nil {
		return Domainf("wallet %s is already registered", chain.NormalizeAddress(in.Wallet))
	}
	if l.store.UsernameTaken(in.Username) {
		return Domainf("username %s is already taken", in.Username)
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return Validationf("username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return Validationf("username must be at most %d characters", maxUsernameLength)
	}
	return nil
}

// UpdateUser 修改自己的资料
func (l *UserLogic) UpdateUser(wallet string, in UpdateUserInput, timestamp int64) (*model.User, error) {
	user := l.store.MutableUser(wallet)
	if user == nil {
		return nil, NotFoundf("user %s not found", wallet)
	}

	var username string
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if !strings.EqualFold(username, user.Username) && l.store.UsernameTaken(username) {
			return nil, Domainf("username %s is already taken", username)
		}
	}

	if in.Username != nil {
		l.store.RenameUser(user, username)
	}
	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	user.UpdatedAt = timestamp
	return user.Clone(), nil
}

// DeleteAllUsers 管理员批量重置
func (l *UserLogic) DeleteAllUsers(signer string) (int, error) {
	if _, err := requireAdmin(l.store, signer); err != nil {
		return 0, err
	}
	n := l.store.DeleteAllUsers()
	logger.Warn("All users deleted by admin %s (%d records)", signer, n)
	return n, nil
}

// generateReferralCode 由钱包地址派生确定性推荐码，冲突时追加序号重新派生
func (l *UserLogic) generateReferralCode(wallet string) string {
	base := []byte(chain.NormalizeAddress(wallet))
	for nonce := 0; ; nonce++ {
		seed := base
		if nonce > 0 {
			seed = append([]byte(fmt.Sprintf("%d:", nonce)), base...)
		}
		hash := crypto.Keccak256(seed)
		code := fmt.Sprintf("%s%X", referralCodePrefix, hash[:4])
		if !l.store.ReferralCodeTaken(code) {
			return code
		}
	}
}
