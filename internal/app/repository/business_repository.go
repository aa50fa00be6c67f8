package repository

import (
	"context"
	"errors"

	"github.com/ikkim/localbiz-backend/internal/app/filter"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingRow is one review rating keyed by business.
type RatingRow struct {
	UEN    string `gorm:"column:uen"`
	Rating int    `gorm:"column:rating"`
}

type BusinessRepository interface {
	WithTx(tx *gorm.DB) BusinessRepository

	Create(ctx context.Context, business *model.Business) error
	Update(ctx context.Context, business *model.Business) error
	Delete(ctx context.Context, uen string) error
	ExistsByUEN(ctx context.Context, uen string) (bool, error)
	FindByUEN(ctx context.Context, uen string) (*model.Business, error)
	FindByUENs(ctx context.Context, uens []string) ([]model.Business, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]model.Business, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	Find(ctx context.Context, preds []filter.Predicate, sort filter.Sort) ([]model.Business, error)

	ReplacePaymentOptions(ctx context.Context, uen string, options []model.PaymentOption) error
	ReplaceOpeningHours(ctx context.Context, uen string, hours []model.BusinessOpeningHours) error

	// hydration lookups
	PaymentOptionsFor(ctx context.Context, uens []string) ([]model.BusinessPaymentOption, error)
	OpeningHoursFor(ctx context.Context, uens []string) ([]model.BusinessOpeningHours, error)
	RatingsFor(ctx context.Context, uens []string) ([]RatingRow, error)

	// name resolution
	FindRefByExactName(ctx context.Context, lowerName string) (*model.BusinessRef, error)
	FindRefByNameContaining(ctx context.Context, term string) (*model.BusinessRef, error)
	ListRefs(ctx context.Context) ([]model.BusinessRef, error)
}

type businessRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBusinessRepository(db *gorm.DB, log *logger.Logger) BusinessRepository {
	return &businessRepository{db: db, log: log.Component("business_repository")}
}

func (r *businessRepository) WithTx(tx *gorm.DB) BusinessRepository {
	return &businessRepository{db: tx, log: r.log}
}

func (r *businessRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	r.log.Debug("Creating business", logger.Fields{
		"uen":      business.UEN,
		"owner_id": business.OwnerID,
	})

	if err := r.conn(ctx).Omit(clause.Associations).Create(business).Error; err != nil {
		r.log.Error("Failed to create business", err, logger.Fields{
			"uen": business.UEN,
		})
		return err
	}
	return nil
}

func (r *businessRepository) Update(ctx context.Context, business *model.Business) error {
	r.log.Debug("Updating business", logger.Fields{
		"uen": business.UEN,
	})

	result := r.conn(ctx).Model(&model.Business{}).
		Where("uen = ?", business.UEN).
		Select("business_name", "business_category", "description", "address", "latitude", "longitude",
			"phone", "website", "image_url", "price_tier", "open247", "offers_delivery", "offers_pickup", "updated_at").
		Updates(business)
	if result.Error != nil {
		r.log.Error("Failed to update business", result.Error, logger.Fields{
			"uen": business.UEN,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

func (r *businessRepository) Delete(ctx context.Context, uen string) error {
	r.log.Debug("Deleting business", logger.Fields{"uen": uen})

	result := r.conn(ctx).Where("uen = ?", uen).Delete(&model.Business{})
	if result.Error != nil {
		r.log.Error("Failed to delete business", result.Error, logger.Fields{"uen": uen})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *businessRepository) ExistsByUEN(ctx context.Context, uen string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&model.Business{}).Where("uen = ?", uen).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *businessRepository) FindByUEN(ctx context.Context, uen string) (*model.Business, error) {
	var business model.Business
	if err := r.conn(ctx).Where("uen = ?", uen).Take(&business).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to find business", err, logger.Fields{"uen": uen})
		}
		return nil, err
	}
	return &business, nil
}

// FindByUENs returns matching businesses in the order of uens. Unknown
// UENs are skipped.
func (r *businessRepository) FindByUENs(ctx context.Context, uens []string) ([]model.Business, error) {
	if len(uens) == 0 {
		return []model.Business{}, nil
	}

	var rows []model.Business
	if err := r.conn(ctx).Where("uen IN ?", uens).Find(&rows).Error; err != nil {
		r.log.Error("Failed to find businesses by UEN", err, logger.Fields{"count": len(uens)})
		return nil, err
	}

	byUEN := make(map[string]model.Business, len(rows))
	for _, b := range rows {
		byUEN[b.UEN] = b
	}
	ordered := make([]model.Business, 0, len(rows))
	for _, uen := range uens {
		if b, ok := byUEN[uen]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

func (r *businessRepository) FindByOwner(ctx context.Context, ownerID uint) ([]model.Business, error) {
	var rows []model.Business
	if err := r.conn(ctx).Where("owner_id = ?", ownerID).Order("date_of_creation DESC").Find(&rows).Error; err != nil {
		r.log.Error("Failed to find owned businesses", err, logger.Fields{"owner_id": ownerID})
		return nil, err
	}
	return rows, nil
}

func (r *businessRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Business{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *businessRepository) Find(ctx context.Context, preds []filter.Predicate, sort filter.Sort) ([]model.Business, error) {
	q, err := applyPredicates(r.conn(ctx).Model(&model.Business{}), preds)
	if err != nil {
		return nil, err
	}
	if q, err = applySort(q, sort); err != nil {
		return nil, err
	}

	var rows []model.Business
	if err := q.Find(&rows).Error; err != nil {
		r.log.Error("Failed to query businesses", err, logger.Fields{
			"predicates": len(preds),
			"sort":       sort.Column,
		})
		return nil, err
	}

	r.log.Debug("Businesses queried", logger.Fields{
		"predicates": len(preds),
		"count":      len(rows),
	})
	return rows, nil
}

func (r *businessRepository) ReplacePaymentOptions(ctx context.Context, uen string, options []model.PaymentOption) error {
	db := r.conn(ctx)
	if err := db.Where("uen = ?", uen).Delete(&model.BusinessPaymentOption{}).Error; err != nil {
		r.log.Error("Failed to clear payment options", err, logger.Fields{"uen": uen})
		return err
	}
	if len(options) == 0 {
		return nil
	}

	rows := make([]model.BusinessPaymentOption, len(options))
	for i, opt := range options {
		rows[i] = model.BusinessPaymentOption{UEN: uen, PaymentOption: opt}
	}
	if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
		r.log.Error("Failed to insert payment options", err, logger.Fields{"uen": uen})
		return err
	}
	return nil
}

func (r *businessRepository) ReplaceOpeningHours(ctx context.Context, uen string, hours []model.BusinessOpeningHours) error {
	db := r.conn(ctx)
	if err := db.Where("uen = ?", uen).Delete(&model.BusinessOpeningHours{}).Error; err != nil {
		r.log.Error("Failed to clear opening hours", err, logger.Fields{"uen": uen})
		return err
	}
	if len(hours) == 0 {
		return nil
	}

	for i := range hours {
		hours[i].ID = 0
		hours[i].UEN = uen
	}
	if err := db.Omit(clause.Associations).Create(&hours).Error; err != nil {
		r.log.Error("Failed to insert opening hours", err, logger.Fields{"uen": uen})
		return err
	}
	return nil
}

func (r *businessRepository) PaymentOptionsFor(ctx context.Context, uens []string) ([]model.BusinessPaymentOption, error) {
	var rows []model.BusinessPaymentOption
	err := r.conn(ctx).Where("uen IN ?", uens).Order("uen, payment_option").Find(&rows).Error
	return rows, err
}

func (r *businessRepository) OpeningHoursFor(ctx context.Context, uens []string) ([]model.BusinessOpeningHours, error) {
	var rows []model.BusinessOpeningHours
	err := r.conn(ctx).Where("uen IN ?", uens).Find(&rows).Error
	return rows, err
}

func (r *businessRepository) RatingsFor(ctx context.Context, uens []string) ([]RatingRow, error) {
	var rows []RatingRow
	err := r.conn(ctx).Model(&model.Review{}).Select("uen, rating").Where("uen IN ?", uens).Scan(&rows).Error
	return rows, err
}

func (r *businessRepository) FindRefByExactName(ctx context.Context, lowerName string) (*model.BusinessRef, error) {
	return r.takeRef(r.conn(ctx).Where("LOWER(business_name) = ?", lowerName))
}

func (r *businessRepository) FindRefByNameContaining(ctx context.Context, term string) (*model.BusinessRef, error) {
	return r.takeRef(r.conn(ctx).Where("LOWER(business_name) LIKE ?"+likeEscape, containsPattern(term)))
}

// takeRef returns the first row in storage order, or nil when none match.
func (r *businessRepository) takeRef(q *gorm.DB) (*model.BusinessRef, error) {
	var refs []model.BusinessRef
	if err := q.Model(&model.Business{}).Select("uen, business_name").Limit(1).Find(&refs).Error; err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return &refs[0], nil
}

func (r *businessRepository) ListRefs(ctx context.Context) ([]model.BusinessRef, error) {
	var refs []model.BusinessRef
	err := r.conn(ctx).Model(&model.Business{}).Select("uen, business_name").Find(&refs).Error
	return refs, err
}
