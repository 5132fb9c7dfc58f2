package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// testEncKey — base64 от 32 нулевых байт.
const testEncKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"IM_DB_HOST":     "localhost",
		"IM_DB_NAME":     "intake",
		"IM_DB_USER":     "intake",
		"IM_DB_PASSWORD": "secret",
		"SESSION_SECRET": "session-secret",
		"INTAKE_ENC_KEY": testEncKey,
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, ожидается production", cfg.Env)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if string(cfg.SessionSecret) != "session-secret" {
		t.Errorf("SessionSecret = %q, ожидается session-secret", cfg.SessionSecret)
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("len(EncryptionKey) = %d, ожидается 32", len(cfg.EncryptionKey))
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 8h", cfg.SessionTTL)
	}
	if cfg.LoginRateLimit != 10 || cfg.LoginRateBurst != 5 {
		t.Errorf("LoginRate = %d/%d, ожидается 10/5", cfg.LoginRateLimit, cfg.LoginRateBurst)
	}
	if cfg.DefaultLocale != "nl" {
		t.Errorf("DefaultLocale = %q, ожидается nl", cfg.DefaultLocale)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"IM_DB_HOST", "IM_DB_NAME", "IM_DB_USER", "IM_DB_PASSWORD", "SESSION_SECRET", "INTAKE_ENC_KEY"} {
		t.Run(key, func(t *testing.T) {
			envs := minimalEnvs()
			envs[key] = ""
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() без %s должен вернуть ошибку", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("ошибка %q не упоминает %s", err.Error(), key)
			}
		})
	}
}

func TestLoad_InvalidEncryptionKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"не base64", "это-не-base64!!"},
		{"16 байт", "AAAAAAAAAAAAAAAAAAAAAA=="},
		{"33 байта", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["INTAKE_ENC_KEY"] = tt.key
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Fatal("Load() с некорректным ключом должен вернуть ошибку")
			}
		})
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["IM_PORT"] = "9090"
	envs["IM_LOG_LEVEL"] = "debug"
	envs["IM_LOG_FORMAT"] = "text"
	envs["IM_SESSION_TTL"] = "2h"
	envs["IM_DEFAULT_LOCALE"] = "pap"
	envs["IM_LOGIN_RATE_LIMIT"] = "3"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 2h", cfg.SessionTTL)
	}
	if cfg.DefaultLocale != "pap" {
		t.Errorf("DefaultLocale = %q, ожидается pap", cfg.DefaultLocale)
	}
	if cfg.LoginRateLimit != 3 {
		t.Errorf("LoginRateLimit = %d, ожидается 3", cfg.LoginRateLimit)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт не число", "IM_PORT", "abc"},
		{"порт вне диапазона", "IM_PORT", "70000"},
		{"уровень логов", "IM_LOG_LEVEL", "verbose"},
		{"формат логов", "IM_LOG_FORMAT", "xml"},
		{"ssl mode", "IM_DB_SSL_MODE", "maybe"},
		{"ttl", "IM_SESSION_TTL", "вечно"},
		{"ttl слишком короткий", "IM_SESSION_TTL", "10s"},
		{"локаль", "IM_DEFAULT_LOCALE", "ru"},
		{"rate limit", "IM_LOGIN_RATE_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() с %s=%q должен вернуть ошибку", tt.key, tt.value)
			}
		})
	}
}

func TestMigrateURL_EscapesPassword(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: 5432, DBName: "intake",
		DBUser: "intake", DBPassword: "p@ss/word", DBSSLMode: "disable",
	}

	got := cfg.MigrateURL()
	want := "pgx5://intake:p%40ss%2Fword@db:5432/intake?sslmode=disable"
	if got != want {
		t.Errorf("MigrateURL() = %q, ожидается %q", got, want)
	}
	if strings.Contains(cfg.DatabaseURL(), "p@ss") {
		t.Errorf("DatabaseURL() не должен содержать пароль: %q", cfg.DatabaseURL())
	}
}
