package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	"github.com/ikkim/localbiz-backend/internal/db"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/ikkim/localbiz-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	util.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// testEnv bundles an in-memory database with every repository and service.
type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	business  repository.BusinessRepository
	reviews   *repository.ReviewRepository
	forum     repository.ForumRepository
	bookmarks repository.BookmarkRepository
	referrals repository.ReferralRepository
	vouchers  repository.VoucherRepository

	businessSvc *BusinessService
	userSvc     *UserService
	reviewSvc   *ReviewService
	bookmarkSvc *BookmarkService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	log := logger.Nop()
	env := &testEnv{
		db:        testDB,
		users:     repository.NewUserRepository(testDB, log),
		business:  repository.NewBusinessRepository(testDB, log),
		reviews:   repository.NewReviewRepository(testDB, log),
		forum:     repository.NewForumRepository(testDB, log),
		bookmarks: repository.NewBookmarkRepository(testDB, log),
		referrals: repository.NewReferralRepository(testDB, log),
		vouchers:  repository.NewVoucherRepository(testDB, log),
	}
	env.businessSvc = NewBusinessService(testDB, env.business, env.users, log)
	env.userSvc = NewUserService(testDB, env.users, env.referrals, env.vouchers, DefaultVoucherAmount, log)
	env.reviewSvc = NewReviewService(env.reviews, env.business, log)
	env.bookmarkSvc = NewBookmarkService(env.bookmarks, env.businessSvc, log)
	return env
}

var userSeq int

func (e *testEnv) createUser(t *testing.T, referralCode string) *model.User {
	t.Helper()
	userSeq++
	if referralCode == "" {
		referralCode = fmt.Sprintf("CODE%04d", userSeq)
	}
	user := &model.User{
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		PasswordHash: "hash",
		Name:         fmt.Sprintf("User %d", userSeq),
		Role:         model.RoleUser,
		ReferralCode: referralCode,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) registerBusiness(t *testing.T, ownerID uint, input BusinessInput) *model.BusinessView {
	t.Helper()
	view, err := e.businessSvc.RegisterBusiness(context.Background(), ownerID, input)
	require.NoError(t, err)
	return view
}

func (e *testEnv) addReview(t *testing.T, uen, email string, rating int) *model.Review {
	t.Helper()
	review, err := e.reviewSvc.CreateReview(context.Background(), email, uen, ReviewInput{Rating: rating, Body: "ok"})
	require.NoError(t, err)
	return review
}

func (e *testEnv) setCreatedAt(t *testing.T, uen string, at time.Time) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Business{}).Where("uen = ?", uen).UpdateColumn("date_of_creation", at).Error)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
