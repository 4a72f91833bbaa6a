package gormstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"gigboard/market"
)

// isDuplicateKey 判斷錯誤是否為唯一索引衝突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isRetryable 判斷交易是否因為暫時性的衝突而失敗，可以整個重新執行
//   - 40001 serialization_failure
//   - 40P01 deadlock_detected
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return strings.Contains(err.Error(), "database is locked")
}

// wrap 將基礎設施錯誤包裝成 TRANSIENT，業務錯誤則原樣返回
func wrap(op string, err error) error {
	var marketErr *market.Error
	if errors.As(err, &marketErr) {
		return err
	}
	return market.Transient(op, err)
}
