// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Notifier
	// NotifyEndpointはメールゲートウェイのHTTPエンドポイント。
	// リマインダーは服薬がアクティブな限りスイープ毎に再評価されるため、
	// 配信頻度の制御（ダイジェスト化）はゲートウェイ側の責務とする。
	NotifyEndpoint string
	NotifyFrom     string
	NotifyTimeout  time.Duration
	NotifyRate     float64 // 送信レート（req/sec）
	NotifyBurst    int
	NotifyMaxBody  int64

	// Sweep
	MedicationInterval  time.Duration
	AppointmentInterval time.Duration
	InsightInterval     time.Duration
	PredictionInterval  time.Duration
	CleanupInterval     time.Duration
	InsightWindow       time.Duration // インサイト生成の対象ウィンドウ
	SweepTimeout        time.Duration // 1回のスイープの実行上限

	// Reminder
	AppointmentLookahead time.Duration // 予約リマインダーの対象範囲
	AppointmentLeadTime  time.Duration // 予約前の通知開始時間

	// Retention
	RetentionDays int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.NotifyEndpoint = os.Getenv("NOTIFY_ENDPOINT")
	if cfg.NotifyEndpoint == "" {
		missing = append(missing, "NOTIFY_ENDPOINT")
	}

	cfg.NotifyFrom = os.Getenv("NOTIFY_FROM")
	if cfg.NotifyFrom == "" {
		missing = append(missing, "NOTIFY_FROM")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.NotifyRate = getEnvFloat("NOTIFY_RATE", 5.0)
	cfg.NotifyBurst = getEnvInt("NOTIFY_BURST", 10)
	cfg.NotifyMaxBody = getEnvInt64("NOTIFY_MAX_BODY", 1048576)

	cfg.MedicationInterval = getEnvDuration("MEDICATION_SWEEP_INTERVAL", 5*time.Minute)
	cfg.AppointmentInterval = getEnvDuration("APPOINTMENT_SWEEP_INTERVAL", 5*time.Minute)
	cfg.InsightInterval = getEnvDuration("INSIGHT_SWEEP_INTERVAL", time.Hour)
	cfg.PredictionInterval = getEnvDuration("PREDICTION_SWEEP_INTERVAL", 24*time.Hour)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_SWEEP_INTERVAL", 24*time.Hour)
	cfg.InsightWindow = getEnvDuration("INSIGHT_WINDOW", 7*24*time.Hour)
	cfg.SweepTimeout = getEnvDuration("SWEEP_TIMEOUT", 2*time.Minute)

	cfg.AppointmentLookahead = getEnvDuration("APPOINTMENT_LOOKAHEAD", 24*time.Hour)
	cfg.AppointmentLeadTime = getEnvDuration("APPOINTMENT_LEAD_TIME", time.Hour)

	cfg.RetentionDays = getEnvInt("RETENTION_DAYS", 180)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
