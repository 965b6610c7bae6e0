package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	postgresStorage "github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/redis"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/location"
	"github.com/kug-advocacy/kug-platform/pkg/logger"
)

type Config struct {
	Database *gorm.DB
	// Redis is nil when service.redis.host is not set. Leaderboards are then
	// served uncached and approvals are handled inline.
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.read-timeout", 15*time.Second)
	viper.SetDefault("server.write-timeout", 30*time.Second)
	viper.SetDefault("server.cors.allowed-origins", []string{"http://localhost:3000"})
	viper.SetDefault("service.database.port", 5432)
	viper.SetDefault("service.database.sslmode", "disable")
	viper.SetDefault("service.redis.port", "6379")
	viper.SetDefault("service.smtp.port", 587)
	viper.SetDefault("settings.timezone", "UTC")
	viper.SetDefault("settings.auth.token-ttl", 7*24*time.Hour)
	viper.SetDefault("settings.approvals.poll-timeout", 5*time.Second)
	viper.SetDefault("settings.leaderboards.limit", 100)
	viper.SetDefault("settings.leaderboards.cache-ttl", time.Minute)
	viper.SetDefault("settings.badges.seed-catalog", true)
	viper.SetDefault("settings.events.status-interval", 10*time.Minute)
}

func initConfig() {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("KUG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(err)
		}
	}

	if viper.GetString("settings.auth.jwt-secret") == "" {
		panic("settings.auth.jwt-secret is required")
	}
}

func Get() *Config {
	initConfig()

	err := logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location.Location(),
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
		JSONConsole:  viper.GetBool("settings.json-logs"),
	})
	if err != nil {
		panic(err)
	}

	dbLogger, err := logger.Named("database")
	if err != nil {
		panic(err)
	}

	gormConfig := &gorm.Config{TranslateError: true}
	if viper.GetBool("settings.debug") {
		gormConfig.Logger = gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
	} else {
		gormConfig.Logger = gormLogger.Default.LogMode(gormLogger.Warn)
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s TimeZone=UTC",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		viper.GetString("service.database.sslmode"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		dbLogger.Panicf("Failed to connect to the database: %v", err)
	} else {
		dbLogger.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		dbLogger.Panicf("Failed to migrate database: %v", errMigrate)
	}

	var redisClient *redis.Client
	if host := viper.GetString("service.redis.host"); host != "" {
		redisClient, err = redis.New(redis.Options{
			Host:     host,
			Port:     viper.GetString("service.redis.port"),
			Password: viper.GetString("service.redis.password"),
			DB:       viper.GetInt("service.redis.db"),
		})
		if err != nil {
			dbLogger.Panicf("Failed to connect to redis: %v", err)
		} else {
			dbLogger.Info("Successfully connected to redis")
		}
	} else {
		dbLogger.Warn("service.redis.host is not set, running without redis")
	}

	var dialer *gomail.Dialer
	if host := viper.GetString("service.smtp.host"); host != "" {
		dialer = gomail.NewDialer(
			host,
			viper.GetInt("service.smtp.port"),
			viper.GetString("service.smtp.email"),
			viper.GetString("service.smtp.password"),
		)
	}

	return &Config{
		Database:   database,
		Redis:      redisClient,
		SMTPDialer: dialer,
	}
}
