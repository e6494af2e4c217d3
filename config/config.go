package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// A local .env is optional; real deployments set the environment
		// directly.
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("mode", "MODE")
		viper.BindEnv("alerts_file", "ALERTS_FILE")
		viper.BindEnv("storage_backend", "STORAGE_BACKEND")
		viper.BindEnv("sqlite_path", "SQLITE_PATH")
		viper.BindEnv("match_policy", "MATCH_POLICY")
		viper.BindEnv("asset_id", "ASSET_ID")
		viper.BindEnv("vs_currency", "VS_CURRENCY")
		viper.BindEnv("oracle", "ORACLE")
		viper.BindEnv("paprika_ticker_id", "PAPRIKA_TICKER_ID")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("webhook_url", "WEBHOOK_URL")
		viper.BindEnv("port", "PORT")
		viper.BindEnv("debug", "DEBUG")

		viper.SetDefault("mode", "serve")
		viper.SetDefault("alerts_file", "alerts.json")
		viper.SetDefault("storage_backend", "file")
		viper.SetDefault("sqlite_path", "alerts.db")
		viper.SetDefault("match_policy", "touch")
		viper.SetDefault("asset_id", "the-open-network")
		viper.SetDefault("vs_currency", "usd")
		viper.SetDefault("oracle", "coingecko")
		viper.SetDefault("paprika_ticker_id", "ton-toncoin")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("port", 5000)
		viper.SetDefault("debug", false)
	})
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
