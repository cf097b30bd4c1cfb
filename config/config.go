package config

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Settings is the monitor configuration read from config.json and the environment
type Settings struct {
	TradingPairs      []string `mapstructure:"trading_pairs"`
	UpdateInterval    int      `mapstructure:"update_interval"`
	PriceAlertEnabled bool     `mapstructure:"price_alert_enabled"`
	AlertCooldown     int      `mapstructure:"alert_cooldown"`
	DisplayMode       string   `mapstructure:"display_mode"`
	ThresholdStore    string   `mapstructure:"threshold_store"`
	Notifiers         []string `mapstructure:"notifiers"`
	DBPath            string   `mapstructure:"db_path"`
	MetricsPort       int      `mapstructure:"metrics_port"`
	Debug             bool     `mapstructure:"debug"`
	Lang              string   `mapstructure:"lang"`
	ConfigPath        string   `mapstructure:"config_path"`

	BinanceAPI struct {
		APIKey         string `mapstructure:"api_key"`
		APISecret      string `mapstructure:"api_secret"`
		Testnet        bool   `mapstructure:"testnet"`
		TradingEnabled bool   `mapstructure:"trading_enabled"`
	} `mapstructure:"binance_api"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	CoinpaprikaAPIKey string `mapstructure:"coinpaprika_api_key"`
}

const defaultConfigPath = "config.json"

var once sync.Once

// InitConfig prepares the global viper instance and reads the config file if there is one
func InitConfig() {
	once.Do(func() {
		configure(viper.GetViper())
		if err := readOptionalConfig(viper.GetViper(), viper.GetString("config_path")); err != nil {
			log.Errorf("❌ %v", err)
		}
	})
}

func configure(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("config_path", "CONFIG_PATH")
	v.BindEnv("debug", "DEBUG")
	v.BindEnv("lang", "LANG")
	v.BindEnv("metrics_port", "METRICS_PORT")
	v.BindEnv("db_path", "DB_PATH")
	v.BindEnv("binance_api.api_key", "BINANCE_API_KEY")
	v.BindEnv("binance_api.api_secret", "BINANCE_API_SECRET")
	v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	v.BindEnv("coinpaprika_api_key", "API_PRO_KEY")

	v.SetDefault("config_path", defaultConfigPath)
	v.SetDefault("update_interval", 30)
	v.SetDefault("price_alert_enabled", false)
	v.SetDefault("alert_cooldown", 300)
	v.SetDefault("display_mode", "compact")
	v.SetDefault("threshold_store", "file")
	v.SetDefault("notifiers", []string{"desktop", "log"})
	v.SetDefault("db_path", "data/monitor.db")
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("debug", false)
	v.SetDefault("lang", "en")
	v.SetDefault("binance_api.testnet", true)
	v.SetDefault("binance_api.trading_enabled", false)
}

func readConfigFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "config file %s", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	return errors.Wrapf(v.ReadInConfig(), "could not read config file %s", path)
}

// readOptionalConfig reads path into v; a missing file is not an error
func readOptionalConfig(v *viper.Viper, path string) error {
	err := readConfigFile(v, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugf("No config file at %s, using defaults and environment", path)
		return nil
	}
	return err
}

// Load returns the validated settings of the global viper instance
func Load() (*Settings, error) {
	InitConfig()
	return decode(viper.GetViper())
}

// LoadFile reads settings from the given file plus the environment
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	configure(v)
	v.Set("config_path", path)
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "could not decode settings")
	}

	for i, pair := range s.TradingPairs {
		s.TradingPairs[i] = strings.ToUpper(strings.TrimSpace(pair))
	}
	if len(s.TradingPairs) == 0 {
		return nil, errors.New("no trading_pairs configured")
	}
	if s.UpdateInterval <= 0 {
		return nil, errors.Errorf("update_interval must be positive, got %d", s.UpdateInterval)
	}
	if s.AlertCooldown < 0 {
		return nil, errors.Errorf("alert_cooldown must not be negative, got %d", s.AlertCooldown)
	}
	return &s, nil
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
