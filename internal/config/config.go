package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения, переопределяющих конфиг (NOTES_CLIENT_PASSWORD и т.д.)
const EnvPrefix = "NOTES"

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults расширяет переменные окружения с поддержкой дефолтных значений
// Формат: ${VAR:-default}
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		matches := envPattern.FindStringSubmatch(match)
		if len(matches) < 2 {
			return match
		}

		varName := matches[1]
		defaultValue := ""
		if len(matches) > 2 {
			defaultValue = matches[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// Defaults значения по умолчанию для Config
func Defaults() map[string]any {
	return map[string]any{
		"logger.level":                       "info",
		"logger.format":                      "text",
		"client.scheme":                      "https",
		"client.etag_caching":                true,
		"client.timeout":                     30,
		"client.rate_limit_rps":              0,
		"client.rate_limit_burst":            1,
		"emulator.port":                      8080,
		"emulator.username":                  "admin",
		"emulator.password":                  "admin",
		"emulator.storage_quota_bytes":       0,
		"emulator.cors_allowed_origins":      "*",
		"emulator.cors_max_age":              86400,
		"emulator.rate_limit_rps":            100,
		"emulator.rate_limit_burst":          10,
		"emulator.http_read_timeout":         10,
		"emulator.http_write_timeout":        10,
		"emulator.http_idle_timeout":         60,
		"emulator.http_read_header_timeout":  5,
		"emulator.graceful_shutdown_timeout": 10,
	}
}

// InitConfig читает конфигурационный файл и возвращает экземпляр конфигурации
// Использует generic для работы с произвольным типом конфигурации.
// Значения из defaults используются для ключей, отсутствующих в файле;
// переменные окружения с префиксом EnvPrefix имеют приоритет над файлом.
func InitConfig[C any](configFile string, defaults map[string]any) (*C, error) {
	v := viper.New()
	ext := strings.TrimLeft(filepath.Ext(configFile), ".")

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configFile)
	v.SetConfigType(ext)
	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("v.ReadInConfig: %w", err)
	}

	// Заменяем переменные окружения формата ${VAR:-default} на их значения
	for _, k := range v.AllKeys() {
		value := v.GetString(k)
		if value == "" {
			continue
		}
		expanded := expandEnvWithDefaults(value)
		if expanded == value {
			continue
		}

		// Значение остается строкой: числовые и bool поля приводит Unmarshal,
		// а строковые (пароль "007") не должны терять ведущие нули
		v.Set(k, expanded)
	}

	cfg := new(C)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}

	return cfg, nil
}

// Load читает Config из файла с дефолтными значениями
func Load(configFile string) (*Config, error) {
	return InitConfig[Config](configFile, Defaults())
}

var validate = validator.New()

// Validate проверяет секцию конфигурации по тегам validate
func Validate(section any) error {
	if err := validate.Struct(section); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
