package store

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
)

// UserByWallet 按钱包地址查找用户（副本）
func (s *Store) UserByWallet(wallet string) (*model.User, bool) {
	u := s.MutableUser(wallet)
	if u == nil {
		return nil, false
	}
	return u.Clone(), true
}

// UserByID 按ID查找用户（副本）
func (s *Store) UserByID(id int64) (*model.User, bool) {
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// UserByUsername 按用户名查找用户（副本，大小写不敏感）
func (s *Store) UserByUsername(username string) (*model.User, bool) {
	id, ok := s.usersByName[nameKey(username)]
	if !ok {
		return nil, false
	}
	return s.users[id].Clone(), true
}

// Users 全部用户，按ID排序
func (s *Store) Users() []*model.User {
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	sortUsers(users)
	return users
}

// Artists 全部艺术家用户，按ID排序
func (s *Store) Artists() []*model.User {
	users := make([]*model.User, 0)
	for _, u := range s.users {
		if u.Artist != nil {
			users = append(users, u.Clone())
		}
	}
	sortUsers(users)
	return users
}

// MutableUser 返回可修改的用户记录
func (s *Store) MutableUser(wallet string) *model.User {
	id, ok := s.usersByWallet[walletKey(wallet)]
	if !ok {
		return nil
	}
	return s.users[id]
}

// MutableUserByReferralCode 按推荐码查找（大小写不敏感）
func (s *Store) MutableUserByReferralCode(code string) *model.User {
	id, ok := s.usersByCode[codeKey(code)]
	if !ok {
		return nil
	}
	return s.users[id]
}

// UsernameTaken 用户名是否已被占用
func (s *Store) UsernameTaken(username string) bool {
	_, ok := s.usersByName[nameKey(username)]
	return ok
}

// ReferralCodeTaken 推荐码是否已被占用
func (s *Store) ReferralCodeTaken(code string) bool {
	_, ok := s.usersByCode[codeKey(code)]
	return ok
}

// CreateUser 分配ID并建立索引，唯一性由调用方事先校验
func (s *Store) CreateUser(u *model.User) *model.User {
	u.ID = s.nextID("user")
	u.WalletAddress = walletKey(u.WalletAddress)
	if u.Artist != nil {
		u.Artist.ID = s.nextID("artist")
		u.Artist.UserID = u.ID
	}
	if u.Listener != nil {
		u.Listener.ID = s.nextID("listener")
		u.Listener.UserID = u.ID
	}

	s.users[u.ID] = u
	s.usersByWallet[u.WalletAddress] = u.ID
	s.usersByName[nameKey(u.Username)] = u.ID
	s.usersByCode[codeKey(u.ReferralCode)] = u.ID
	return u
}

// RenameUser 修改用户名并更新索引
func (s *Store) RenameUser(u *model.User, username string) {
	delete(s.usersByName, nameKey(u.Username))
	u.Username = username
	s.usersByName[nameKey(username)] = u.ID
}

// DeleteAllUsers 管理员批量重置：清空用户、艺人与听众，ID序列保持递增。
// 被推荐钱包索引与推荐流水保留，重置后同一钱包仍不能再次被推荐。
func (s *Store) DeleteAllUsers() int {
	n := len(s.users)
	s.resetUsers()
	return n
}
