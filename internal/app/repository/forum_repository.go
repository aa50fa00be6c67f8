package repository

import (
	"context"
	"errors"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ForumPostFilter struct {
	UEN    string
	UserID uint
	Offset int
	Limit  int
}

type ForumRepository interface {
	CreatePost(ctx context.Context, post *model.ForumPost) error
	FindPostByID(ctx context.Context, id uint, withReplies bool) (*model.ForumPost, error)
	ListPosts(ctx context.Context, f ForumPostFilter) ([]model.ForumPost, int64, error)
	DeletePost(ctx context.Context, id uint) error
	AdjustPostLikes(ctx context.Context, id uint, clicked bool) (int, error)

	CreateReply(ctx context.Context, reply *model.ForumReply) error
	FindReplyByID(ctx context.Context, id uint) (*model.ForumReply, error)
	DeleteReply(ctx context.Context, reply *model.ForumReply) error
	AdjustReplyLikes(ctx context.Context, id uint, clicked bool) (int, error)
}

type forumRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewForumRepository(db *gorm.DB, log *logger.Logger) ForumRepository {
	return &forumRepository{db: db, log: log.Component("forum_repository")}
}

func (r *forumRepository) CreatePost(ctx context.Context, post *model.ForumPost) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.Error("Failed to create forum post", err, logger.Fields{"user_id": post.UserID})
		return err
	}
	r.log.Debug("Forum post created", logger.Fields{"post_id": post.ID})
	return nil
}

func (r *forumRepository) FindPostByID(ctx context.Context, id uint, withReplies bool) (*model.ForumPost, error) {
	q := r.db.WithContext(ctx)
	if withReplies {
		q = q.Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		})
	}

	var post model.ForumPost
	if err := q.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *forumRepository) ListPosts(ctx context.Context, f ForumPostFilter) ([]model.ForumPost, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ForumPost{})
	if f.UEN != "" {
		q = q.Where("uen = ?", f.UEN)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []model.ForumPost
	if err := q.Order("created_at DESC").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&posts).Error; err != nil {
		r.log.Error("Failed to list forum posts", err, logger.Fields{"uen": f.UEN})
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *forumRepository) DeletePost(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.ForumPost{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *forumRepository) AdjustPostLikes(ctx context.Context, id uint, clicked bool) (int, error) {
	return adjustLikeCount(ctx, r.db, &model.ForumPost{}, id, clicked)
}

// CreateReply inserts the reply and bumps the post's reply count together.
func (r *forumRepository) CreateReply(ctx context.Context, reply *model.ForumReply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ForumPost{}).Where("id = ?", reply.PostID).
			UpdateColumn("reply_count", gorm.Expr("reply_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Omit(clause.Associations).Create(reply).Error
	})
}

func (r *forumRepository) FindReplyByID(ctx context.Context, id uint) (*model.ForumReply, error) {
	var reply model.ForumReply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *forumRepository) DeleteReply(ctx context.Context, reply *model.ForumReply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.ForumReply{}, reply.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.ForumPost{}).Where("id = ?", reply.PostID).
			UpdateColumn("reply_count", gorm.Expr("CASE WHEN reply_count > 0 THEN reply_count - 1 ELSE 0 END")).Error
	})
}

func (r *forumRepository) AdjustReplyLikes(ctx context.Context, id uint, clicked bool) (int, error) {
	count, err := adjustLikeCount(ctx, r.db, &model.ForumReply{}, id, clicked)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to adjust reply likes", err, logger.Fields{"reply_id": id})
	}
	return count, err
}
