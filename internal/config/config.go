package config

import (
	"fmt"
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Rollup  RollupConfig  `mapstructure:"rollup"`
	Journal JournalConfig `mapstructure:"journal"`
	Portals PortalConfig  `mapstructure:"portals"`
	Genesis GenesisConfig `mapstructure:"genesis"`
	Task    TaskConfig    `mapstructure:"task"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig 调试HTTP服务配置
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// RollupConfig rollup HTTP 服务配置
type RollupConfig struct {
	URL          string `mapstructure:"url"`           // rollup server 地址
	PollInterval int    `mapstructure:"poll_interval"` // 无待处理请求时的轮询间隔（毫秒）
	Timeout      int    `mapstructure:"timeout"`       // 单次HTTP请求超时（秒）
}

// JournalConfig 输出日志库配置
type JournalConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Driver         string `mapstructure:"driver"` // postgres, sqlite
	DSN            string `mapstructure:"dsn"`    // sqlite 文件路径或完整DSN
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	Workers        int    `mapstructure:"workers"`         // 写入协程池大小
	RetentionHours int    `mapstructure:"retention_hours"` // 记录保留时长
}

// PortalConfig 各 portal 合约地址
type PortalConfig struct {
	EtherPortal         string `mapstructure:"ether_portal"`
	ERC20Portal         string `mapstructure:"erc20_portal"`
	ERC721Portal        string `mapstructure:"erc721_portal"`
	ERC1155SinglePortal string `mapstructure:"erc1155_single_portal"`
	ERC1155BatchPortal  string `mapstructure:"erc1155_batch_portal"`
	DAppAddressRelay    string `mapstructure:"dapp_address_relay"`
}

// GenesisConfig 可选的初始账本配置，所有节点必须使用相同的值
type GenesisConfig struct {
	Enabled              bool              `mapstructure:"enabled"`
	Admins               []string          `mapstructure:"admins"`
	CartesiTokenAddress  string            `mapstructure:"cartesi_token_address"`
	VaultContractAddress string            `mapstructure:"vault_contract_address"`
	ServerAddress        string            `mapstructure:"server_address"`
	RelayerAddress       string            `mapstructure:"relayer_address"`
	DappAddress          string            `mapstructure:"dapp_address"`
	NFTContracts         map[string]string `mapstructure:"nft_contracts"`
	ArtistPercentage     int               `mapstructure:"artist_percentage"`
	PoolPercentage       int               `mapstructure:"pool_percentage"`
	FeePercentage        int               `mapstructure:"fee_percentage"`
	ReferralPoints       int64             `mapstructure:"referral_points"`
	ConversionRate       string            `mapstructure:"conversion_rate"`
	MinConversion        int64             `mapstructure:"min_conversion"`
	MaxDailyConversion   int64             `mapstructure:"max_daily_conversion"`
}

type TaskConfig struct {
	StatsInterval int `mapstructure:"stats_interval"` // 秒
	PruneInterval int `mapstructure:"prune_interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Load 从默认路径加载配置
func Load() *Config {
	cfg, err := LoadFrom("")
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}
	return cfg
}

// LoadFrom 加载配置，path 为空时按默认路径搜索 config.yaml
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/melodious")
	}

	setDefaults(v)

	// 环境变量覆盖，例如 MELODIOUS_ROLLUP_URL
	v.SetEnvPrefix("melodious")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.Warn("Could not read config file, using defaults: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("rollup.url", "http://127.0.0.1:5004")
	v.SetDefault("rollup.poll_interval", 500)
	v.SetDefault("rollup.timeout", 30)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.dsn", "melodious_journal.db")
	v.SetDefault("journal.host", "localhost")
	v.SetDefault("journal.port", 5432)
	v.SetDefault("journal.user", "postgres")
	v.SetDefault("journal.dbname", "melodious")
	v.SetDefault("journal.sslmode", "disable")
	v.SetDefault("journal.workers", 4)
	v.SetDefault("journal.retention_hours", 24*7)

	// Cartesi rollups v1 默认部署地址
	v.SetDefault("portals.ether_portal", "0xFfdbe43d4c855BF7e0f105c400A50857f53AB044")
	v.SetDefault("portals.erc20_portal", "0x9C21AEb2093C32DDbC53eEF24B873BDCd1aDa1DB")
	v.SetDefault("portals.erc721_portal", "0x237F8DD094C0e47f4236f12b4Fa01d6Dae89fb87")
	v.SetDefault("portals.erc1155_single_portal", "0x7CFB0193Ca87eB6e48056885E026552c3A941FC4")
	v.SetDefault("portals.erc1155_batch_portal", "0xedB53860A6B52bbb7561Ad596416ee9965B055Aa")
	v.SetDefault("portals.dapp_address_relay", "0xF5DE34d6BbC0446E2a45719E718efEbaaE179daE")

	v.SetDefault("genesis.enabled", false)
	v.SetDefault("genesis.artist_percentage", 70)
	v.SetDefault("genesis.pool_percentage", 30)
	v.SetDefault("genesis.fee_percentage", 2)
	v.SetDefault("genesis.referral_points", 100)
	v.SetDefault("genesis.conversion_rate", "100")
	v.SetDefault("genesis.min_conversion", 100)
	v.SetDefault("genesis.max_daily_conversion", 10000)

	v.SetDefault("task.stats_interval", 60)
	v.SetDefault("task.prune_interval", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/melodious.log")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Rollup.URL == "" {
		return fmt.Errorf("rollup.url must not be empty")
	}

	portals := []struct{ name, addr string }{
		{"ether_portal", c.Portals.EtherPortal},
		{"erc20_portal", c.Portals.ERC20Portal},
		{"erc721_portal", c.Portals.ERC721Portal},
		{"erc1155_single_portal", c.Portals.ERC1155SinglePortal},
		{"erc1155_batch_portal", c.Portals.ERC1155BatchPortal},
		{"dapp_address_relay", c.Portals.DAppAddressRelay},
	}
	for _, p := range portals {
		if !chain.IsAddress(p.addr) {
			return fmt.Errorf("portals.%s is not a valid address: %q", p.name, p.addr)
		}
	}

	if c.Task.StatsInterval <= 0 {
		return fmt.Errorf("task.stats_interval must be positive")
	}

	if c.Journal.Enabled {
		if c.Task.PruneInterval <= 0 {
			return fmt.Errorf("task.prune_interval must be positive")
		}
		switch c.Journal.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("unsupported journal driver %q, supported: postgres, sqlite", c.Journal.Driver)
		}
	}

	return nil
}
