package store

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
)

// Config 返回配置副本
func (s *Store) Config() (*model.Config, bool) {
	if s.config == nil {
		return nil, false
	}
	return s.config.Clone(), true
}

// MutableConfig 返回可原地修改的配置，不存在时为 nil
func (s *Store) MutableConfig() *model.Config {
	return s.config
}

// SetConfig 写入配置（仅首次创建时调用）
func (s *Store) SetConfig(cfg *model.Config) {
	s.config = cfg
}

// DappAddress 应用自身的链上地址，未经 relay 设置时为空
func (s *Store) DappAddress() string {
	return s.dappAddress
}

// SetDappAddress 记录应用自身地址
func (s *Store) SetDappAddress(addr string) {
	s.dappAddress = walletKey(addr)
}
