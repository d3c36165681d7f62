package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	_ "modernc.org/sqlite"
)

// queryer *sql.DB 与 *sql.Tx 的公共部分
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// dsn 构造 modernc sqlite 连接串
// WAL + busy_timeout 允许读写并发；事务使用 BEGIN IMMEDIATE，避免读后写升级锁时报 SQLITE_BUSY
func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

// OpenDB 打开数据库连接
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB 提供数据库连接（wire），cleanup 关闭连接
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, func(), error) {
	db, err := OpenDB(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewModuleLogger("storage", "db")
	logger.Info("Database opened", "path", cfg.Path)
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", "error", err)
		}
	}, nil
}

// placeholders 生成 IN 子句占位符
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// chunkStrings 按 size 切分，避免超过 SQLite 变量数上限
func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for size < len(values) {
		values, chunks = values[size:], append(chunks, values[:size])
	}
	if len(values) > 0 {
		chunks = append(chunks, values)
	}
	return chunks
}

// withTx 已在事务中则直接执行，否则开启新事务
func withTx(ctx context.Context, db *sql.DB, tx *sql.Tx, fn func(tx *sql.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}

	newTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer newTx.Rollback()

	if err := fn(newTx); err != nil {
		return err
	}

	if err := newTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
