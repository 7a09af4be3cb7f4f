package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string `validate:"required,numeric"`
	DatabaseURL string // пусто - in-memory store для локальной разработки
	RedisURL    string // пусто - cooldown в памяти, без pub/sub
	JWTSecret   string `validate:"required,min=8"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogJSON  bool

	AllowedOrigin string

	// операторы, кроме токенов с role=admin
	AdminUserIDs []int64

	// API limits
	APIRateLimit    int `validate:"gt=0"`
	APIRateWindow   int `validate:"gt=0"`
	ClaimRateLimit  int `validate:"gt=0"`
	ClaimRateWindow int `validate:"gt=0"`

	Timezone string `validate:"required"`

	SessionDurationSeconds int     `validate:"gt=0"`
	SessionReward          float64 `validate:"gte=0"`

	StreakBonusDay       int     `validate:"gt=0"`
	StreakBonusAmount    float64 `validate:"gte=0"`
	StreakBonusMaxGrants int     `validate:"gte=0"`

	AdCooldownSeconds int     `validate:"gt=0"`
	AdReward          float64 `validate:"gte=0"`

	ReferrerBonus      float64 `validate:"gte=0"`
	RefereeBonus       float64 `validate:"gte=0"`
	ReferralCap        int     `validate:"gt=0"`
	ReferralLinkScheme string  `validate:"required,alphanum"`

	MaxMiningRatePurchaseUSD float64 `validate:"gt=0"`
	MaxGeneralPurchaseUSD    float64 `validate:"gtefield=MaxMiningRatePurchaseUSD"`
	MaxMiningRate            float64 `validate:"gte=0"`
	PresaleTokenPriceUSD     float64 `validate:"gt=0"`
	PresaleMinPurchaseUSD    float64 `validate:"gte=0"`

	DailyMiningRate  float64 `validate:"gte=0"`
	MaxDailyEarnings float64 `validate:"gte=0"`
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse reads the environment and validates the result.
func Parse() (*Config, error) {
	d := domain.DefaultRewardRules()

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogJSON:  getEnvBool("LOG_JSON", false),

		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		AdminUserIDs:  getEnvIDs("ADMIN_USER_IDS"),

		APIRateLimit:    getEnvInt("API_RATE_LIMIT", 120), // макс запросов за ->
		APIRateWindow:   getEnvInt("API_RATE_WINDOW_SECONDS", 60),
		ClaimRateLimit:  getEnvInt("CLAIM_RATE_LIMIT", 30),
		ClaimRateWindow: getEnvInt("CLAIM_RATE_WINDOW_SECONDS", 60),

		Timezone: getEnv("ENGINE_TIMEZONE", "UTC"),

		SessionDurationSeconds: getEnvInt("SESSION_DURATION_SECONDS", int(d.Session.Duration/time.Second)),
		SessionReward:          getEnvFloat("SESSION_REWARD", d.Session.Reward),

		StreakBonusDay:       getEnvInt("STREAK_BONUS_DAY", d.Streak.BonusDay),
		StreakBonusAmount:    getEnvFloat("STREAK_BONUS_AMOUNT", d.Streak.BonusAmount),
		StreakBonusMaxGrants: getEnvInt("STREAK_BONUS_MAX_GRANTS", d.Streak.MaxBonusGrants),

		AdCooldownSeconds: getEnvInt("AD_COOLDOWN_SECONDS", int(d.Ad.Cooldown/time.Second)),
		AdReward:          getEnvFloat("AD_REWARD", d.Ad.Reward),

		ReferrerBonus:      getEnvFloat("REFERRER_BONUS", d.Referral.ReferrerBonus),
		RefereeBonus:       getEnvFloat("REFEREE_BONUS", d.Referral.RefereeBonus),
		ReferralCap:        getEnvInt("REFERRAL_CAP", d.Referral.Cap),
		ReferralLinkScheme: getEnv("REFERRAL_LINK_SCHEME", d.Referral.LinkScheme),

		MaxMiningRatePurchaseUSD: getEnvFloat("MAX_MINING_RATE_PURCHASE_USD", d.MiningRate.MaxMiningRatePurchaseUSD),
		MaxGeneralPurchaseUSD:    getEnvFloat("MAX_GENERAL_PURCHASE_USD", d.MiningRate.MaxGeneralPurchaseUSD),
		MaxMiningRate:            getEnvFloat("MAX_MINING_RATE", d.MiningRate.MaxMiningRate),
		PresaleTokenPriceUSD:     getEnvFloat("PRESALE_TOKEN_PRICE_USD", d.Presale.TokenPriceUSD),
		PresaleMinPurchaseUSD:    getEnvFloat("PRESALE_MIN_PURCHASE_USD", d.Presale.MinPurchaseUSD),

		DailyMiningRate:  getEnvFloat("DAILY_MINING_RATE", d.Profile.DailyMiningRate),
		MaxDailyEarnings: getEnvFloat("MAX_DAILY_EARNINGS", d.Profile.MaxDailyEarnings),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct tags and that the timezone resolves.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: ENGINE_TIMEZONE: %w", err)
	}
	return nil
}

// Rules builds the canonical reward constants from the loaded values.
func (c *Config) Rules() domain.RewardRules {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return domain.RewardRules{
		Session: domain.SessionRules{
			Duration: time.Duration(c.SessionDurationSeconds) * time.Second,
			Reward:   c.SessionReward,
		},
		Streak: domain.StreakRules{
			BonusDay:       c.StreakBonusDay,
			BonusAmount:    c.StreakBonusAmount,
			MaxBonusGrants: c.StreakBonusMaxGrants,
			Location:       loc,
		},
		Ad: domain.AdRules{
			Cooldown: time.Duration(c.AdCooldownSeconds) * time.Second,
			Reward:   c.AdReward,
		},
		Referral: domain.ReferralRules{
			ReferrerBonus: c.ReferrerBonus,
			RefereeBonus:  c.RefereeBonus,
			Cap:           c.ReferralCap,
			LinkScheme:    c.ReferralLinkScheme,
		},
		MiningRate: domain.MiningRateRules{
			MaxMiningRatePurchaseUSD: c.MaxMiningRatePurchaseUSD,
			MaxGeneralPurchaseUSD:    c.MaxGeneralPurchaseUSD,
			MaxMiningRate:            c.MaxMiningRate,
		},
		Presale: domain.PresaleRules{
			TokenPriceUSD:  c.PresaleTokenPriceUSD,
			MinPurchaseUSD: c.PresaleMinPurchaseUSD,
		},
		Profile: domain.ProfileDefaults{
			DailyMiningRate:  c.DailyMiningRate,
			MaxDailyEarnings: c.MaxDailyEarnings,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Список id через запятую, мусор пропускаем
func getEnvIDs(key string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(os.Getenv(key), ",") {
		idStr = strings.TrimSpace(idStr)
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsAdmin reports whether id is in ADMIN_USER_IDS.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminUserIDs {
		if a == id {
			return true
		}
	}
	return false
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}
