package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
	Storage  StorageConfig  `mapstructure:"Storage"`
	Trash    TrashConfig    `mapstructure:"Trash"`
}

type ServerConfig struct {
	Port    string `mapstructure:"Port"`
	BaseURL string `mapstructure:"BaseURL"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host"`
	Port     string `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name"`
	SSLMode  string `mapstructure:"SSLMode"`
}

type StorageConfig struct {
	// Driver выбирает бэкенд блобов: "fs" (по умолчанию) или "s3"
	Driver     string `mapstructure:"Driver"`
	BlobDir    string `mapstructure:"BlobDir"`
	PreviewDir string `mapstructure:"PreviewDir"`

	S3Endpoint        string `mapstructure:"S3Endpoint"`
	S3Region          string `mapstructure:"S3Region"`
	S3AccessKeyID     string `mapstructure:"S3AccessKeyID"`
	S3SecretAccessKey string `mapstructure:"S3SecretAccessKey"`
	S3Bucket          string `mapstructure:"S3Bucket"`
}

type TrashConfig struct {
	RetentionDays   int `mapstructure:"RetentionDays"`
	CleanupInterval int `mapstructure:"CleanupIntervalMinutes"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	// Привязываем переменные окружения
	v.BindEnv("Database.Host", "DATABASE_HOST")
	v.BindEnv("Database.Port", "DATABASE_PORT")
	v.BindEnv("Database.User", "DATABASE_USER")
	v.BindEnv("Database.Password", "DATABASE_PASSWORD")
	v.BindEnv("Database.Name", "DATABASE_NAME")
	v.BindEnv("Database.SSLMode", "DATABASE_SSLMODE")
	v.BindEnv("Server.Port", "HTTP_PORT")
	v.BindEnv("Storage.Driver", "STORAGE_DRIVER")
	v.BindEnv("Storage.BlobDir", "STORAGE_BLOB_DIR")
	v.BindEnv("Storage.PreviewDir", "STORAGE_PREVIEW_DIR")
	v.BindEnv("Storage.S3Endpoint", "S3_ENDPOINT")
	v.BindEnv("Storage.S3Region", "S3_REGION")
	v.BindEnv("Storage.S3AccessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("Storage.S3SecretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("Storage.S3Bucket", "S3_BUCKET")
	v.BindEnv("Trash.RetentionDays", "TRASH_RETENTION_DAYS")
	v.BindEnv("Trash.CleanupIntervalMinutes", "TRASH_CLEANUP_INTERVAL_MINUTES")

	// Читаем конфигурацию из файла
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Проверяем переменные окружения напрямую если конфигурация неполная
	if cfg.Database.Host == "" {
		cfg.Database.Host = v.GetString("DATABASE_HOST")
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = v.GetString("DATABASE_PORT")
	}
	if cfg.Database.User == "" {
		cfg.Database.User = v.GetString("DATABASE_USER")
	}
	if cfg.Database.Password == "" {
		cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = v.GetString("DATABASE_NAME")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = v.GetString("HTTP_PORT")
	}

	if cfg.Database.Host == "" ||
		cfg.Database.Port == "" ||
		cfg.Database.User == "" ||
		cfg.Database.Password == "" ||
		cfg.Database.Name == "" {
		return nil, fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Name)
	}

	// Установка значений по умолчанию
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "2525"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "fs"
	}
	if cfg.Storage.BlobDir == "" {
		cfg.Storage.BlobDir = "/var/lib/orbitdrive/blobs"
	}
	if cfg.Storage.PreviewDir == "" {
		cfg.Storage.PreviewDir = "/tmp/previews"
	}
	if cfg.Trash.RetentionDays <= 0 {
		cfg.Trash.RetentionDays = 30
	}
	if cfg.Trash.CleanupInterval <= 0 {
		cfg.Trash.CleanupInterval = 60
	}

	if cfg.Storage.Driver != "fs" && cfg.Storage.Driver != "s3" {
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "s3" {
		if cfg.Storage.S3AccessKeyID == "" || cfg.Storage.S3SecretAccessKey == "" || cfg.Storage.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage configuration is incomplete")
		}
	}

	return &cfg, nil
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}
