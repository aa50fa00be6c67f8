package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/filter"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/internal/metrics"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrBusinessNotFound  = apperrors.New(apperrors.KindNotFound, apperrors.BusinessNotFound, "business not found")
	ErrBusinessExists    = apperrors.New(apperrors.KindConflict, apperrors.BusinessUENExists, "a business with this UEN already exists")
	ErrNotBusinessOwner  = apperrors.New(apperrors.KindForbidden, apperrors.AuthzOwnerOnly, "only the owner can change this business")
	ErrInvalidUEN        = apperrors.Validation(apperrors.ValidationRequired, "uen is required")
	ErrInvalidName       = apperrors.Validation(apperrors.ValidationRequired, "business_name is required")
	ErrInvalidPriceTier  = apperrors.Validation(apperrors.ValidationInvalidInput, "price_tier must be one of low, medium, high")
	ErrInvalidPayment    = apperrors.Validation(apperrors.BusinessInvalidOption, "payment_options must be drawn from cash, card, paynow, digital_wallets")
	ErrInvalidHours      = apperrors.Validation(apperrors.BusinessInvalidHours, "opening_hours must map weekday names to HH:MM open and close times")
	ErrEmptyBusinessName = apperrors.Validation(apperrors.ValidationRequired, "name is required")
)

// BusinessInput is the writable part of a business.
type BusinessInput struct {
	UEN            string
	Name           string
	Category       string
	Description    string
	Address        string
	Latitude       *float64
	Longitude      *float64
	Phone          string
	Website        string
	ImageURL       string
	PriceTier      string
	Open247        bool
	OffersDelivery bool
	OffersPickup   bool
	PaymentOptions []string
	OpeningHours   map[string]model.HoursView
}

type BusinessService struct {
	db         *gorm.DB
	businesses repository.BusinessRepository
	users      repository.UserRepository
	log        *logger.Logger
	now        func() time.Time
}

func NewBusinessService(db *gorm.DB, businesses repository.BusinessRepository, users repository.UserRepository, log *logger.Logger) *BusinessService {
	return &BusinessService{
		db:         db,
		businesses: businesses,
		users:      users,
		log:        log.Component("business_service"),
		now:        time.Now,
	}
}

// GetAllBusinesses returns every business, newest first.
func (s *BusinessService) GetAllBusinesses(ctx context.Context) ([]model.BusinessView, error) {
	rows, err := s.businesses.Find(ctx, nil, filter.DefaultSort)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return s.hydrate(ctx, rows)
}

// GetFilteredBusinesses applies every supplied filter field as an AND.
func (s *BusinessService) GetFilteredBusinesses(ctx context.Context, req filter.Request) ([]model.BusinessView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	preds := filter.BuildConditions(req, s.now())
	sort := filter.BuildSort(req.SortBy, req.SortOrder)

	rows, err := s.businesses.Find(ctx, preds, sort)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	s.log.Debug("Filtered businesses", logger.Fields{
		"predicates": len(preds),
		"sort_by":    sort.Column,
		"desc":       sort.Desc,
		"count":      len(rows),
	})
	return s.hydrate(ctx, rows)
}

func (s *BusinessService) GetBusinessByUEN(ctx context.Context, uen string) (*model.BusinessView, error) {
	business, err := s.businesses.FindByUEN(ctx, uen)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, apperrors.Store(err)
	}

	views, err := s.hydrate(ctx, []model.Business{*business})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *BusinessService) GetOwnedBusinesses(ctx context.Context, ownerID uint) ([]model.BusinessView, error) {
	rows, err := s.businesses.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return s.hydrate(ctx, rows)
}

// GetBusinessesByUENs hydrates businesses in the order given.
func (s *BusinessService) GetBusinessesByUENs(ctx context.Context, uens []string) ([]model.BusinessView, error) {
	rows, err := s.businesses.FindByUENs(ctx, uens)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return s.hydrate(ctx, rows)
}

// hydrate attaches payment options, opening hours and the rounded average
// rating to each row with a fixed number of queries, run concurrently.
// Output order matches input order.
func (s *BusinessService) hydrate(ctx context.Context, rows []model.Business) ([]model.BusinessView, error) {
	if len(rows) == 0 {
		return []model.BusinessView{}, nil
	}
	start := time.Now()

	all := make([]string, len(rows))
	var withHours []string
	for i, b := range rows {
		all[i] = b.UEN
		if !b.Open247 {
			withHours = append(withHours, b.UEN)
		}
	}

	var (
		options []model.BusinessPaymentOption
		hours   []model.BusinessOpeningHours
		ratings []repository.RatingRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		options, err = s.businesses.PaymentOptionsFor(gctx, all)
		return err
	})
	g.Go(func() error {
		// 24/7 businesses never carry hours. An empty subset still costs
		// one query that matches nothing.
		var err error
		hours, err = s.businesses.OpeningHoursFor(gctx, withHours)
		return err
	})
	g.Go(func() error {
		var err error
		ratings, err = s.businesses.RatingsFor(gctx, all)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to hydrate businesses", err, logger.Fields{"count": len(rows)})
		return nil, apperrors.Store(err)
	}

	optionsByUEN := make(map[string][]string, len(rows))
	for _, o := range options {
		optionsByUEN[o.UEN] = append(optionsByUEN[o.UEN], string(o.PaymentOption))
	}
	hoursByUEN := make(map[string]map[string]model.HoursView, len(withHours))
	for _, h := range hours {
		m, ok := hoursByUEN[h.UEN]
		if !ok {
			m = make(map[string]model.HoursView)
			hoursByUEN[h.UEN] = m
		}
		m[string(h.DayOfWeek)] = model.HoursView{Open: h.OpenTime, Close: h.CloseTime}
	}
	ratingsByUEN := make(map[string][]int, len(rows))
	for _, r := range ratings {
		ratingsByUEN[r.UEN] = append(ratingsByUEN[r.UEN], r.Rating)
	}

	views := make([]model.BusinessView, len(rows))
	for i, b := range rows {
		opts := optionsByUEN[b.UEN]
		if opts == nil {
			opts = []string{}
		}
		h := hoursByUEN[b.UEN]
		if h == nil {
			h = map[string]model.HoursView{}
		}
		views[i] = model.BusinessView{
			Business:       b,
			PaymentOptions: opts,
			OpeningHours:   h,
			AvgRating:      averageRating(ratingsByUEN[b.UEN]),
		}
	}

	metrics.ObserveHydration(time.Since(start))
	return views, nil
}

// averageRating is the mean rounded half away from zero, 0 for no ratings.
func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

var (
	nameDisallowed = regexp.MustCompile(`[^\w\s'-]`)
	nameSpaces     = regexp.MustCompile(`\s+`)
)

// SanitizeBusinessName lowercases s, drops everything but word characters,
// whitespace, apostrophes and hyphens, and collapses whitespace.
func SanitizeBusinessName(s string) string {
	s = strings.ToLower(s)
	s = nameDisallowed.ReplaceAllString(s, "")
	s = nameSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SearchBusinessByName resolves free text to a business, trying in turn an
// exact case-insensitive match, a stored name containing the input, and
// finally the input containing a stored name. The last stage scans every
// business and returns the first hit in storage order, which the store does
// not guarantee. A nil ref means nothing matched.
func (s *BusinessService) SearchBusinessByName(ctx context.Context, name string) (*model.BusinessRef, error) {
	input := SanitizeBusinessName(name)
	if input == "" {
		return nil, ErrEmptyBusinessName
	}

	ref, err := s.businesses.FindRefByExactName(ctx, input)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if ref != nil {
		return ref, nil
	}

	ref, err = s.businesses.FindRefByNameContaining(ctx, input)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if ref != nil {
		return ref, nil
	}

	refs, err := s.businesses.ListRefs(ctx)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	for i := range refs {
		stored := SanitizeBusinessName(refs[i].Name)
		if stored != "" && strings.Contains(input, stored) {
			s.log.Debug("Business name resolved by reverse containment", logger.Fields{
				"input": input,
				"uen":   refs[i].UEN,
			})
			return &refs[i], nil
		}
	}
	return nil, nil
}

// normalizedBusiness is a validated BusinessInput split into table rows.
type normalizedBusiness struct {
	business model.Business
	options  []model.PaymentOption
	hours    []model.BusinessOpeningHours
}

func normalizeBusinessInput(in BusinessInput) (*normalizedBusiness, error) {
	in.UEN = strings.ToUpper(strings.TrimSpace(in.UEN))
	in.Name = strings.TrimSpace(in.Name)
	if in.UEN == "" {
		return nil, ErrInvalidUEN
	}
	if in.Name == "" {
		return nil, ErrInvalidName
	}

	tier := model.PriceTier(strings.ToLower(strings.TrimSpace(in.PriceTier)))
	if tier == "" {
		tier = model.PriceTierMedium
	}
	if !tier.Valid() {
		return nil, ErrInvalidPriceTier
	}

	seen := make(map[model.PaymentOption]struct{}, len(in.PaymentOptions))
	options := make([]model.PaymentOption, 0, len(in.PaymentOptions))
	for _, raw := range in.PaymentOptions {
		opt := model.PaymentOption(strings.ToLower(strings.TrimSpace(raw)))
		if !opt.Valid() {
			return nil, ErrInvalidPayment
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		options = append(options, opt)
	}

	var hours []model.BusinessOpeningHours
	if !in.Open247 {
		for day, h := range in.OpeningHours {
			d := model.DayOfWeek(strings.ToLower(strings.TrimSpace(day)))
			if !d.Valid() || !validClock(h.Open) || !validClock(h.Close) {
				return nil, ErrInvalidHours
			}
			hours = append(hours, model.BusinessOpeningHours{
				UEN:       in.UEN,
				DayOfWeek: d,
				OpenTime:  h.Open,
				CloseTime: h.Close,
			})
		}
	}

	return &normalizedBusiness{
		business: model.Business{
			UEN:            in.UEN,
			Name:           in.Name,
			Category:       strings.TrimSpace(in.Category),
			Description:    in.Description,
			Address:        in.Address,
			Latitude:       in.Latitude,
			Longitude:      in.Longitude,
			Phone:          in.Phone,
			Website:        in.Website,
			ImageURL:       in.ImageURL,
			PriceTier:      tier,
			Open247:        in.Open247,
			OffersDelivery: in.OffersDelivery,
			OffersPickup:   in.OffersPickup,
		},
		options: options,
		hours:   hours,
	}, nil
}

func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// RegisterBusiness creates a business with its payment options and hours,
// and marks the owner as having a business, in one transaction.
func (s *BusinessService) RegisterBusiness(ctx context.Context, ownerID uint, input BusinessInput) (*model.BusinessView, error) {
	nb, err := normalizeBusinessInput(input)
	if err != nil {
		return nil, err
	}
	nb.business.OwnerID = ownerID

	exists, err := s.businesses.ExistsByUEN(ctx, nb.business.UEN)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if exists {
		return nil, ErrBusinessExists
	}

	err = inTransaction(ctx, s.db, s.log, "register_business", func(tx *gorm.DB) error {
		businesses := s.businesses.WithTx(tx)
		if err := businesses.Create(ctx, &nb.business); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return ErrBusinessExists
			}
			return apperrors.ParseDBError(err)
		}
		if err := businesses.ReplacePaymentOptions(ctx, nb.business.UEN, nb.options); err != nil {
			return apperrors.Store(err)
		}
		if err := businesses.ReplaceOpeningHours(ctx, nb.business.UEN, nb.hours); err != nil {
			return apperrors.Store(err)
		}
		if err := s.users.WithTx(tx).SetHasBusiness(ctx, ownerID, true); err != nil {
			return apperrors.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Business registered", logger.Fields{
		"uen":      nb.business.UEN,
		"owner_id": ownerID,
	})
	return s.GetBusinessByUEN(ctx, nb.business.UEN)
}

func (s *BusinessService) ownedBusiness(ctx context.Context, ownerID uint, uen string) (*model.Business, error) {
	business, err := s.businesses.FindByUEN(ctx, uen)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, apperrors.Store(err)
	}
	if business.OwnerID != ownerID {
		s.log.Warn("Business change by non-owner rejected", logger.Fields{
			"uen":      uen,
			"owner_id": business.OwnerID,
			"user_id":  ownerID,
		})
		return nil, ErrNotBusinessOwner
	}
	return business, nil
}

// UpdateBusiness overwrites the business's fields and fully replaces its
// payment options and opening hours. A 24/7 business keeps no hours.
func (s *BusinessService) UpdateBusiness(ctx context.Context, ownerID uint, uen string, input BusinessInput) (*model.BusinessView, error) {
	input.UEN = uen
	nb, err := normalizeBusinessInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.ownedBusiness(ctx, ownerID, nb.business.UEN)
	if err != nil {
		return nil, err
	}
	nb.business.OwnerID = existing.OwnerID

	err = inTransaction(ctx, s.db, s.log, "update_business", func(tx *gorm.DB) error {
		businesses := s.businesses.WithTx(tx)
		if err := businesses.Update(ctx, &nb.business); err != nil {
			return apperrors.Store(err)
		}
		if err := businesses.ReplacePaymentOptions(ctx, nb.business.UEN, nb.options); err != nil {
			return apperrors.Store(err)
		}
		if err := businesses.ReplaceOpeningHours(ctx, nb.business.UEN, nb.hours); err != nil {
			return apperrors.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Business updated", logger.Fields{"uen": nb.business.UEN})
	return s.GetBusinessByUEN(ctx, nb.business.UEN)
}

// DeleteBusiness removes the business and, through cascades, its options,
// hours, reviews and bookmarks. The owner's flag is cleared with their last one.
func (s *BusinessService) DeleteBusiness(ctx context.Context, ownerID uint, uen string) error {
	if _, err := s.ownedBusiness(ctx, ownerID, strings.ToUpper(strings.TrimSpace(uen))); err != nil {
		return err
	}
	uen = strings.ToUpper(strings.TrimSpace(uen))

	err := inTransaction(ctx, s.db, s.log, "delete_business", func(tx *gorm.DB) error {
		businesses := s.businesses.WithTx(tx)
		if err := businesses.Delete(ctx, uen); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBusinessNotFound
			}
			return apperrors.Store(err)
		}
		remaining, err := businesses.CountByOwner(ctx, ownerID)
		if err != nil {
			return apperrors.Store(err)
		}
		if remaining == 0 {
			if err := s.users.WithTx(tx).SetHasBusiness(ctx, ownerID, false); err != nil {
				return apperrors.Store(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Business deleted", logger.Fields{
		"uen":      uen,
		"owner_id": ownerID,
	})
	return nil
}
