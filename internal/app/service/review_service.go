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
	ErrReviewNotFound  = apperrors.New(apperrors.KindNotFound, apperrors.ReviewNotFound, "review not found")
	ErrInvalidRating   = apperrors.Validation(apperrors.ReviewInvalidRating, "rating must be between 1 and 5")
	ErrNotReviewAuthor = apperrors.New(apperrors.KindForbidden, apperrors.AuthzAuthorOnly, "only the author can change this review")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ReviewInput struct {
	Rating   int
	Body     string
	ImageURL string
}

// ReviewPage is one page of a business's reviews.
type ReviewPage struct {
	Reviews  []model.Review `json:"reviews"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type ReviewService struct {
	reviews    *repository.ReviewRepository
	businesses repository.BusinessRepository
	log        *logger.Logger
}

func NewReviewService(reviews *repository.ReviewRepository, businesses repository.BusinessRepository, log *logger.Logger) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		businesses: businesses,
		log:        log.Component("review_service"),
	}
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

// normalizePage clamps page and size to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func (s *ReviewService) CreateReview(ctx context.Context, userEmail, uen string, input ReviewInput) (*model.Review, error) {
	if !validRating(input.Rating) {
		return nil, ErrInvalidRating
	}

	uen = strings.ToUpper(strings.TrimSpace(uen))
	exists, err := s.businesses.ExistsByUEN(ctx, uen)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if !exists {
		return nil, ErrBusinessNotFound
	}

	review := &model.Review{
		UEN:       uen,
		UserEmail: userEmail,
		Rating:    input.Rating,
		Body:      strings.TrimSpace(input.Body),
		ImageURL:  input.ImageURL,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, apperrors.Store(err)
	}

	s.log.Info("Review created", logger.Fields{
		"review_id": review.ID,
		"uen":       uen,
		"rating":    review.Rating,
	})
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.reviews.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, apperrors.Store(err)
	}
	return review, nil
}

func (s *ReviewService) GetBusinessReviews(ctx context.Context, uen string, page, pageSize int) (*ReviewPage, error) {
	uen = strings.ToUpper(strings.TrimSpace(uen))
	exists, err := s.businesses.ExistsByUEN(ctx, uen)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if !exists {
		return nil, ErrBusinessNotFound
	}

	page, pageSize = normalizePage(page, pageSize)
	reviews, total, err := s.reviews.GetReviewsByUEN(ctx, uen, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return &ReviewPage{Reviews: reviews, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *ReviewService) GetUserReviews(ctx context.Context, userEmail string) ([]model.Review, error) {
	reviews, err := s.reviews.GetReviewsByUserEmail(ctx, userEmail)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return reviews, nil
}

func (s *ReviewService) authoredReview(ctx context.Context, userEmail string, id uint) (*model.Review, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserEmail != userEmail {
		s.log.Warn("Review change by non-author", logger.Fields{
			"review_id": id,
			"user":      userEmail,
		})
		return nil, ErrNotReviewAuthor
	}
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, userEmail string, id uint, input ReviewInput) (*model.Review, error) {
	if !validRating(input.Rating) {
		return nil, ErrInvalidRating
	}
	review, err := s.authoredReview(ctx, userEmail, id)
	if err != nil {
		return nil, err
	}

	review.Rating = input.Rating
	review.Body = strings.TrimSpace(input.Body)
	review.ImageURL = input.ImageURL
	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return nil, apperrors.Store(err)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userEmail string, id uint) error {
	if _, err := s.authoredReview(ctx, userEmail, id); err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return apperrors.Store(err)
	}
	return nil
}

// ToggleLike adds one like when clicked, otherwise removes one, never
// going below zero.
func (s *ReviewService) ToggleLike(ctx context.Context, id uint, clicked bool) (int, error) {
	count, err := s.reviews.AdjustLikeCount(ctx, id, clicked)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReviewNotFound
		}
		return 0, apperrors.Store(err)
	}
	return count, nil
}
