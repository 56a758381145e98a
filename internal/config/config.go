package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis   RedisConfig
	Session SessionConfig
	MFA     MFAConfig
	Risk    RiskConfig
	Audit   AuditConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL                  time.Duration
	InvalidatedRetention time.Duration
	MaxActiveSessions    int
	RegistryTTL          time.Duration
	SuspiciousFlagTTL    time.Duration
}

type MFAConfig struct {
	Issuer          string
	SetupTTL        time.Duration
	SecretSize      int
	BackupCodeCount int
	BackupCodeLen   int
	TOTPSkew        int
	TOTPPeriod      time.Duration
}

type RiskConfig struct {
	SubnetRangeBits int
}

type AuditConfig struct {
	Stream    string
	MaxStream int64
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:                  getDurationEnv("SESSION_TTL", 24*time.Hour),
			InvalidatedRetention: getDurationEnv("SESSION_INVALIDATED_RETENTION", 5*time.Minute),
			MaxActiveSessions:    getIntEnv("SESSION_MAX_ACTIVE", 5),
			RegistryTTL:          getDurationEnv("SESSION_REGISTRY_TTL", 7*24*time.Hour),
			SuspiciousFlagTTL:    getDurationEnv("SESSION_SUSPICIOUS_FLAG_TTL", time.Hour),
		},
		MFA: MFAConfig{
			Issuer:          getEnv("MFA_ISSUER", "SchoolSaaS"),
			SetupTTL:        getDurationEnv("MFA_SETUP_TTL", 15*time.Minute),
			SecretSize:      getIntEnv("MFA_SECRET_SIZE", 32),
			BackupCodeCount: getIntEnv("MFA_BACKUP_CODE_COUNT", 10),
			BackupCodeLen:   getIntEnv("MFA_BACKUP_CODE_LEN", 8),
			TOTPSkew:        getIntEnv("MFA_TOTP_SKEW", 1),
			TOTPPeriod:      getDurationEnv("MFA_TOTP_PERIOD", 30*time.Second),
		},
		Risk: RiskConfig{
			SubnetRangeBits: getIntEnv("RISK_SUBNET_RANGE_BITS", 24),
		},
		Audit: AuditConfig{
			Stream:    getEnv("AUDIT_STREAM", "audit:security"),
			MaxStream: int64(getIntEnv("AUDIT_STREAM_MAXLEN", 100000)),
		},
	}

	return cfg, nil
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
