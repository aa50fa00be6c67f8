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

var ErrBookmarkNotFound = apperrors.New(apperrors.KindNotFound, apperrors.ResourceNotFound, "bookmark not found")

type BookmarkService struct {
	bookmarks  repository.BookmarkRepository
	businesses *BusinessService
	log        *logger.Logger
}

func NewBookmarkService(bookmarks repository.BookmarkRepository, businesses *BusinessService, log *logger.Logger) *BookmarkService {
	return &BookmarkService{
		bookmarks:  bookmarks,
		businesses: businesses,
		log:        log.Component("bookmark_service"),
	}
}

func (s *BookmarkService) AddBookmark(ctx context.Context, userID uint, uen string) error {
	uen = strings.ToUpper(strings.TrimSpace(uen))
	exists, err := s.businesses.businesses.ExistsByUEN(ctx, uen)
	if err != nil {
		return apperrors.Store(err)
	}
	if !exists {
		return ErrBusinessNotFound
	}
	if err := s.bookmarks.Add(ctx, userID, uen); err != nil {
		return apperrors.Store(err)
	}
	s.log.Debug("Bookmark added", logger.Fields{"user_id": userID, "uen": uen})
	return nil
}

func (s *BookmarkService) RemoveBookmark(ctx context.Context, userID uint, uen string) error {
	uen = strings.ToUpper(strings.TrimSpace(uen))
	if err := s.bookmarks.Remove(ctx, userID, uen); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookmarkNotFound
		}
		return apperrors.Store(err)
	}
	return nil
}

// ListBookmarks returns bookmarked businesses, most recently bookmarked first.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID uint) ([]model.BusinessView, error) {
	uens, err := s.bookmarks.ListUENs(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return s.businesses.GetBusinessesByUENs(ctx, uens)
}
