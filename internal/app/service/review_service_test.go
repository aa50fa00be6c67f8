package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_CreateReview(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "")
	env.registerBusiness(t, owner.ID, BusinessInput{UEN: "R1", Name: "Reviewed"})

	tests := []struct {
		name    string
		uen     string
		rating  int
		wantErr error
	}{
		{name: "Valid", uen: "r1", rating: 4},
		{name: "Rating too low", uen: "R1", rating: 0, wantErr: ErrInvalidRating},
		{name: "Rating too high", uen: "R1", rating: 6, wantErr: ErrInvalidRating},
		{name: "Unknown business", uen: "NOPE", rating: 3, wantErr: ErrBusinessNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := env.reviewSvc.CreateReview(ctx, owner.Email, tt.uen, ReviewInput{Rating: tt.rating, Body: " nice "})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, review)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "R1", review.UEN)
			assert.Equal(t, "nice", review.Body)
			assert.Zero(t, review.LikeCount)
		})
	}
}

func TestReviewService_GetBusinessReviews_Paginates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "")
	env.registerBusiness(t, owner.ID, BusinessInput{UEN: "P1", Name: "Paged"})
	for i := 0; i < 5; i++ {
		env.addReview(t, "P1", owner.Email, 3)
	}

	page, err := env.reviewSvc.GetBusinessReviews(ctx, "P1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, 2, page.Page)

	page, err = env.reviewSvc.GetBusinessReviews(ctx, "P1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
	assert.Len(t, page.Reviews, 5)

	_, err = env.reviewSvc.GetBusinessReviews(ctx, "NOPE", 1, 10)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestReviewService_AuthorOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "")
	other := env.createUser(t, "")
	env.registerBusiness(t, author.ID, BusinessInput{UEN: "A1", Name: "Authored"})
	review := env.addReview(t, "A1", author.Email, 2)

	_, err := env.reviewSvc.UpdateReview(ctx, other.Email, review.ID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrNotReviewAuthor)
	assert.ErrorIs(t, env.reviewSvc.DeleteReview(ctx, other.Email, review.ID), ErrNotReviewAuthor)

	updated, err := env.reviewSvc.UpdateReview(ctx, author.Email, review.ID, ReviewInput{Rating: 5, Body: "better"})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	mine, err := env.reviewSvc.GetUserReviews(ctx, author.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "better", mine[0].Body)

	require.NoError(t, env.reviewSvc.DeleteReview(ctx, author.Email, review.ID))
	_, err = env.reviewSvc.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_ToggleLike_FloorsAtZero(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "")
	env.registerBusiness(t, owner.ID, BusinessInput{UEN: "L1", Name: "Liked"})
	review := env.addReview(t, "L1", owner.Email, 5)

	for i := 0; i < 3; i++ {
		count, err := env.reviewSvc.ToggleLike(ctx, review.ID, false)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	}

	count, err := env.reviewSvc.ToggleLike(ctx, review.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = env.reviewSvc.ToggleLike(ctx, review.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = env.reviewSvc.ToggleLike(ctx, review.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.reviewSvc.ToggleLike(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
