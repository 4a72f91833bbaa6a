package gormstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// PostgresConfig 是 PostgreSQL 的連線設定
type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

func gormConfig(schemaName string) *gorm.Config {
	config := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if schemaName != "" {
		config.NamingStrategy = schema.NamingStrategy{
			TablePrefix: schemaName + ".",
		}
	}
	return config
}

// OpenPostgres 開啟 PostgreSQL 連線
func OpenPostgres(config PostgresConfig) (*gorm.DB, error) {
	const op = "OpenPostgres"
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", config.User, config.Password, config.Host, config.Port, config.Database)
	if config.Schema != "" {
		dsn += "&search_path=" + config.Schema
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(config.Schema))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	return db, nil
}

// OpenSQLite 開啟 SQLite 資料庫，用於開發與測試
// SQLite 同時只允許一個寫入者，因此連線池限制為一條連線，讓交易依序執行
func OpenSQLite(path string) (*gorm.DB, error) {
	const op = "OpenSQLite"
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), gormConfig(""))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to open database, err=%w", op, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to get sql.DB, err=%w", op, err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
