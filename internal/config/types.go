package config

// ConfigLogger настройки логирования
type ConfigLogger struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// ConfigClient настройки клиента Notes API
type ConfigClient struct {
	Hostname       string  `mapstructure:"hostname" validate:"required,hostname_port|hostname_rfc1123"`
	Username       string  `mapstructure:"username" validate:"required"`
	Password       string  `mapstructure:"password"`
	Scheme         string  `mapstructure:"scheme" validate:"omitempty,oneof=http https"`
	ETagCaching    bool    `mapstructure:"etag_caching"`
	Timeout        int     `mapstructure:"timeout" validate:"gte=0"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// ConfigEmulator настройки локального эмулятора Notes API
type ConfigEmulator struct {
	Port                    int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username                string `mapstructure:"username" validate:"required"`
	Password                string `mapstructure:"password" validate:"required"`
	StorageQuotaBytes       int    `mapstructure:"storage_quota_bytes" validate:"gte=0"`
	CORSAllowedOrigins      string `mapstructure:"cors_allowed_origins"`
	CORSMaxAge              int    `mapstructure:"cors_max_age" validate:"gte=0"`
	RateLimitRPS            int    `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst          int    `mapstructure:"rate_limit_burst" validate:"gte=0"`
	HTTPReadTimeout         int    `mapstructure:"http_read_timeout" validate:"gte=0"`
	HTTPWriteTimeout        int    `mapstructure:"http_write_timeout" validate:"gte=0"`
	HTTPIdleTimeout         int    `mapstructure:"http_idle_timeout" validate:"gte=0"`
	HTTPReadHeaderTimeout   int    `mapstructure:"http_read_header_timeout" validate:"gte=0"`
	GracefulShutdownTimeout int    `mapstructure:"graceful_shutdown_timeout" validate:"gte=0"`
}

// Config основная структура конфигурации
type Config struct {
	Logger   *ConfigLogger   `mapstructure:"logger"`
	Client   *ConfigClient   `mapstructure:"client"`
	Emulator *ConfigEmulator `mapstructure:"emulator"`
}
