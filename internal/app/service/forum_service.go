package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.PostNotFound, "post not found")
	ErrReplyNotFound   = apperrors.New(apperrors.KindNotFound, apperrors.ReplyNotFound, "reply not found")
	ErrNotPostAuthor   = apperrors.New(apperrors.KindForbidden, apperrors.AuthzAuthorOnly, "only the author can delete this")
	ErrEmptyPostTitle  = apperrors.Validation(apperrors.ValidationRequired, "title is required")
	ErrEmptyForumBody  = apperrors.Validation(apperrors.ValidationRequired, "body is required")
	ErrUnknownBusiness = apperrors.New(apperrors.KindNotFound, apperrors.BusinessNotFound, "no business matches business_name")
)

// Forum event types pushed to post rooms.
const (
	EventReplyCreated = "reply_created"
	EventReplyDeleted = "reply_deleted"
	EventPostLiked    = "post_likes"
	EventReplyLiked   = "reply_likes"
)

// PostBroadcaster fans forum events out to clients watching a post.
type PostBroadcaster interface {
	BroadcastToPost(postID uint, event string, payload interface{})
}

type PostInput struct {
	Title        string
	Body         string
	ImageURL     string
	UEN          string
	BusinessName string
}

type PostPage struct {
	Posts    []model.ForumPost `json:"posts"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type ForumService struct {
	forum      repository.ForumRepository
	businesses repository.BusinessRepository
	resolver   *BusinessService
	broadcast  PostBroadcaster
	log        *logger.Logger
}

// NewForumService wires the forum. broadcast may be nil.
func NewForumService(
	forum repository.ForumRepository,
	businesses repository.BusinessRepository,
	resolver *BusinessService,
	broadcast PostBroadcaster,
	log *logger.Logger,
) *ForumService {
	return &ForumService{
		forum:      forum,
		businesses: businesses,
		resolver:   resolver,
		broadcast:  broadcast,
		log:        log.Component("forum_service"),
	}
}

func (s *ForumService) publish(postID uint, event string, payload interface{}) {
	if s.broadcast != nil {
		s.broadcast.BroadcastToPost(postID, event, payload)
	}
}

// resolveUEN picks the business a post is tagged with. An explicit UEN
// wins over a free-text name.
func (s *ForumService) resolveUEN(ctx context.Context, input PostInput) (*string, error) {
	if uen := strings.ToUpper(strings.TrimSpace(input.UEN)); uen != "" {
		exists, err := s.businesses.ExistsByUEN(ctx, uen)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		if !exists {
			return nil, ErrBusinessNotFound
		}
		return &uen, nil
	}

	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, nil
	}
	ref, err := s.resolver.SearchBusinessByName(ctx, input.BusinessName)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ErrUnknownBusiness
	}
	return &ref.UEN, nil
}

func (s *ForumService) CreatePost(ctx context.Context, userID uint, input PostInput) (*model.ForumPost, error) {
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" {
		return nil, ErrEmptyPostTitle
	}
	if body == "" {
		return nil, ErrEmptyForumBody
	}

	uen, err := s.resolveUEN(ctx, input)
	if err != nil {
		return nil, err
	}

	post := &model.ForumPost{
		UserID:   userID,
		UEN:      uen,
		Title:    title,
		Body:     body,
		ImageURL: input.ImageURL,
	}
	if err := s.forum.CreatePost(ctx, post); err != nil {
		return nil, apperrors.Store(err)
	}

	fields := logger.Fields{"post_id": post.ID, "user_id": userID}
	if uen != nil {
		fields["uen"] = *uen
	}
	s.log.Info("Forum post created", fields)
	return post, nil
}

func (s *ForumService) GetPost(ctx context.Context, id uint) (*model.ForumPost, error) {
	post, err := s.forum.FindPostByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, apperrors.Store(err)
	}
	return post, nil
}

func (s *ForumService) ListPosts(ctx context.Context, uen string, page, pageSize int) (*PostPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	posts, total, err := s.forum.ListPosts(ctx, repository.ForumPostFilter{
		UEN:    strings.ToUpper(strings.TrimSpace(uen)),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return &PostPage{Posts: posts, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *ForumService) DeletePost(ctx context.Context, userID, id uint) error {
	post, err := s.forum.FindPostByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return apperrors.Store(err)
	}
	if post.UserID != userID {
		return ErrNotPostAuthor
	}
	if err := s.forum.DeletePost(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return apperrors.Store(err)
	}
	return nil
}

func (s *ForumService) CreateReply(ctx context.Context, userID, postID uint, body string) (*model.ForumReply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyForumBody
	}

	reply := &model.ForumReply{PostID: postID, UserID: userID, Body: body}
	if err := s.forum.CreateReply(ctx, reply); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, apperrors.Store(err)
	}

	s.publish(postID, EventReplyCreated, reply)
	return reply, nil
}

func (s *ForumService) DeleteReply(ctx context.Context, userID, id uint) error {
	reply, err := s.forum.FindReplyByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		return apperrors.Store(err)
	}
	if reply.UserID != userID {
		return ErrNotPostAuthor
	}
	if err := s.forum.DeleteReply(ctx, reply); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		return apperrors.Store(err)
	}

	s.publish(reply.PostID, EventReplyDeleted, map[string]uint{"id": reply.ID})
	return nil
}

type likeUpdate struct {
	ID        uint `json:"id"`
	LikeCount int  `json:"like_count"`
}

func (s *ForumService) TogglePostLike(ctx context.Context, postID uint, clicked bool) (int, error) {
	count, err := s.forum.AdjustPostLikes(ctx, postID, clicked)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, apperrors.Store(err)
	}
	s.publish(postID, EventPostLiked, likeUpdate{ID: postID, LikeCount: count})
	return count, nil
}

func (s *ForumService) ToggleReplyLike(ctx context.Context, replyID uint, clicked bool) (int, error) {
	reply, err := s.forum.FindReplyByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReplyNotFound
		}
		return 0, apperrors.Store(err)
	}

	count, err := s.forum.AdjustReplyLikes(ctx, replyID, clicked)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReplyNotFound
		}
		return 0, apperrors.Store(err)
	}
	s.publish(reply.PostID, EventReplyLiked, likeUpdate{ID: replyID, LikeCount: count})
	return count, nil
}
