package repository

import (
	"context"

	"gorm.io/gorm"
)

// likeCountExpr moves a counter by one, never below zero.
func likeCountExpr(clicked bool) interface{} {
	if clicked {
		return gorm.Expr("like_count + 1")
	}
	return gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")
}

// adjustLikeCount applies the toggle atomically in the store and returns the
// resulting count. A missing row reports gorm.ErrRecordNotFound.
func adjustLikeCount(ctx context.Context, db *gorm.DB, table interface{}, id uint, clicked bool) (int, error) {
	result := db.WithContext(ctx).Model(table).Where("id = ?", id).UpdateColumn("like_count", likeCountExpr(clicked))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var count int
	if err := db.WithContext(ctx).Model(table).Select("like_count").Where("id = ?", id).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
