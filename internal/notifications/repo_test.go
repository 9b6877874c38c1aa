package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, createdAt time.Time) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:    userID,
		EventID:   uuid.New(),
		Type:      enums.NotificationTypeOrderUpdate,
		Title:     "Order update",
		Message:   "shipped",
		CreatedAt: createdAt,
	}
	created, err := repo.Create(context.Background(), &n)
	require.NoError(t, err)
	require.True(t, created)
	return n
}

func TestRepositoryCreateIgnoresDuplicateEvent(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	n := seedNotification(t, repo, uuid.New(), time.Now().UTC())

	dup := models.Notification{UserID: n.UserID, EventID: n.EventID, Type: n.Type, Title: "again", Message: "again"}
	created, err := repo.Create(context.Background(), &dup)
	require.NoError(t, err)
	require.False(t, created)
}

func TestRepositoryListPaginatesPerUser(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	newest := seedNotification(t, repo, user, base.Add(3*time.Minute))
	middle := seedNotification(t, repo, user, base.Add(2*time.Minute))
	oldest := seedNotification(t, repo, user, base.Add(time.Minute))
	seedNotification(t, repo, uuid.New(), base)

	page, next, err := repo.List(ctx, listNotificationsParams{UserID: user, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, newest.ID, page[0].ID)
	require.Equal(t, middle.ID, page[1].ID)
	require.NotNil(t, next)

	page, next, err = repo.List(ctx, listNotificationsParams{UserID: user, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, oldest.ID, page[0].ID)
	require.Nil(t, next)
}

func TestRepositoryMarkRead(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	now := time.Now().UTC()
	first := seedNotification(t, repo, user, now.Add(-time.Minute))
	seedNotification(t, repo, user, now)

	mark, err := repo.MarkRead(ctx, uuid.New(), first.ID, now)
	require.NoError(t, err)
	require.False(t, mark.Found)

	mark, err = repo.MarkRead(ctx, user, first.ID, now)
	require.NoError(t, err)
	require.True(t, mark.Found)
	require.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, user, first.ID, now)
	require.NoError(t, err)
	require.True(t, mark.Found)
	require.False(t, mark.Updated)

	unread, _, err := repo.List(ctx, listNotificationsParams{UserID: user, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	count, err := repo.MarkAllRead(ctx, user, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestRepositoryDeleteReadBefore(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	now := time.Now().UTC()
	old := seedNotification(t, repo, user, now.Add(-48*time.Hour))
	recent := seedNotification(t, repo, user, now.Add(-time.Hour))
	seedNotification(t, repo, user, now.Add(-72*time.Hour))

	_, err := repo.MarkRead(ctx, user, old.ID, now.Add(-47*time.Hour))
	require.NoError(t, err)
	_, err = repo.MarkRead(ctx, user, recent.ID, now)
	require.NoError(t, err)

	deleted, err := repo.DeleteReadBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: user, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
