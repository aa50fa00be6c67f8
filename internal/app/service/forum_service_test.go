package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	postID uint
	event  string
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToPost(postID uint, event string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{postID: postID, event: event})
}

func setupForum(t *testing.T) (*testEnv, *ForumService, *recordingBroadcaster) {
	env := setupTestEnv(t)
	rec := &recordingBroadcaster{}
	svc := NewForumService(env.forum, env.business, env.businessSvc, rec, logger.Nop())
	return env, svc, rec
}

func TestForumService_CreatePost_TagsBusiness(t *testing.T) {
	env, svc, _ := setupForum(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.registerBusiness(t, user.ID, BusinessInput{UEN: "F1", Name: "Hawker Corner"})

	tests := []struct {
		name    string
		input   PostInput
		wantUEN string
		wantErr error
	}{
		{name: "Untagged", input: PostInput{Title: "Hi", Body: "there"}},
		{name: "Explicit UEN", input: PostInput{Title: "Hi", Body: "there", UEN: "f1"}, wantUEN: "F1"},
		{name: "Resolved by name", input: PostInput{Title: "Hi", Body: "there", BusinessName: "lunch at hawker corner"}, wantUEN: "F1"},
		{name: "Unknown UEN", input: PostInput{Title: "Hi", Body: "there", UEN: "ZZ"}, wantErr: ErrBusinessNotFound},
		{name: "Unknown name", input: PostInput{Title: "Hi", Body: "there", BusinessName: "nowhere"}, wantErr: ErrUnknownBusiness},
		{name: "Missing title", input: PostInput{Body: "there"}, wantErr: ErrEmptyPostTitle},
		{name: "Missing body", input: PostInput{Title: "Hi", Body: "  "}, wantErr: ErrEmptyForumBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := svc.CreatePost(ctx, user.ID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantUEN == "" {
				assert.Nil(t, post.UEN)
			} else {
				require.NotNil(t, post.UEN)
				assert.Equal(t, tt.wantUEN, *post.UEN)
			}
		})
	}

	page, err := svc.ListPosts(ctx, "F1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestForumService_Replies(t *testing.T) {
	env, svc, rec := setupForum(t)
	ctx := context.Background()
	author := env.createUser(t, "")
	other := env.createUser(t, "")

	post, err := svc.CreatePost(ctx, author.ID, PostInput{Title: "Thread", Body: "body"})
	require.NoError(t, err)

	reply, err := svc.CreateReply(ctx, other.ID, post.ID, "first!")
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, author.ID, post.ID, "second")
	require.NoError(t, err)

	_, err = svc.CreateReply(ctx, other.ID, 9999, "lost")
	assert.ErrorIs(t, err, ErrPostNotFound)

	loaded, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ReplyCount)
	require.Len(t, loaded.Replies, 2)
	assert.Equal(t, "first!", loaded.Replies[0].Body)

	assert.ErrorIs(t, svc.DeleteReply(ctx, author.ID, reply.ID), ErrNotPostAuthor)
	require.NoError(t, svc.DeleteReply(ctx, other.ID, reply.ID))

	loaded, err = svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ReplyCount)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 3)
	assert.Equal(t, recordedEvent{postID: post.ID, event: EventReplyCreated}, rec.events[0])
	assert.Equal(t, recordedEvent{postID: post.ID, event: EventReplyDeleted}, rec.events[2])
}

func TestForumService_Likes_FloorAtZero(t *testing.T) {
	env, svc, rec := setupForum(t)
	ctx := context.Background()
	user := env.createUser(t, "")

	post, err := svc.CreatePost(ctx, user.ID, PostInput{Title: "Likes", Body: "body"})
	require.NoError(t, err)
	reply, err := svc.CreateReply(ctx, user.ID, post.ID, "reply")
	require.NoError(t, err)

	count, err := svc.TogglePostLike(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	count, err = svc.TogglePostLike(ctx, post.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.ToggleReplyLike(ctx, reply.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = svc.TogglePostLike(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.ToggleReplyLike(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrReplyNotFound)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventReplyLiked, last.event)
	assert.Equal(t, post.ID, last.postID)
}

func TestForumService_DeletePost_AuthorOnly(t *testing.T) {
	env, svc, _ := setupForum(t)
	ctx := context.Background()
	author := env.createUser(t, "")
	other := env.createUser(t, "")

	post, err := svc.CreatePost(ctx, author.ID, PostInput{Title: "Mine", Body: "body"})
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, other.ID, post.ID, "reply")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePost(ctx, other.ID, post.ID), ErrNotPostAuthor)
	require.NoError(t, svc.DeletePost(ctx, author.ID, post.ID))

	_, err = svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Zero(t, countRows(t, env, &model.ForumReply{}))
}
