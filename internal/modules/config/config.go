package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`

	Provider struct {
		BaseURL   string `yaml:"base_url"`
		StreamURL string `yaml:"stream_url"` // ws-фид цен, пусто = не стримим
	} `yaml:"provider"`

	Quotes struct {
		BaseURL string `yaml:"base_url"` // оракул слиппеджа, пусто = дефолтные bps
		ChainID int64  `yaml:"chain_id"`
	} `yaml:"quotes"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	// Рынки, которые обслуживаем
	Markets []string `yaml:"markets"`

	// Раз в сколько обновляем baseline у активных сессий
	RefreshInterval time.Duration

	// Алерт в телеграм, когда HF baseline опускается ниже порога
	AlertHealthFactor float64 `yaml:"alert_health_factor"`

	// Сколько адресов держим в недавней истории
	HistoryLimit int
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		AlertHealthFactor: 1.1,

		RefreshInterval: durationFromEnv("REFRESH_INTERVAL", "60s"),
		HistoryLimit:    intFromEnv("HISTORY_LIMIT", 10),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if url := os.Getenv("PROVIDER_BASE_URL"); url != "" {
		config.Provider.BaseURL = url
	}
	if url := os.Getenv("QUOTES_BASE_URL"); url != "" {
		config.Quotes.BaseURL = url
	}

	if len(config.Markets) == 0 {
		config.Markets = []string{"core"}
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
