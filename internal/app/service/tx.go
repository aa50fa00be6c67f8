package service

import (
	"context"
	"fmt"

	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
)

// inTransaction runs fn inside one store transaction. Any error or panic
// rolls back every write fn made.
func inTransaction(ctx context.Context, db *gorm.DB, log *logger.Logger, op string, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", tx.Error, logger.Fields{"op": op})
		return apperrors.Store(tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Error("Panic in transaction, rolled back", fmt.Errorf("%v", r), logger.Fields{"op": op})
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Error("Failed to roll back transaction", rbErr, logger.Fields{"op": op})
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", err, logger.Fields{"op": op})
		return apperrors.Store(err)
	}
	return nil
}
