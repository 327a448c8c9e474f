package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

func TestNotificationCreateValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.notifySvc.Create(ctx, 0, models.RoleStudent, models.NotificationSystem, "t", "m", models.NotificationLinks{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.notifySvc.Create(ctx, 10, models.Role("ADMIN"), models.NotificationSystem, "t", "m", models.NotificationLinks{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationKind("bogus"), "t", "m", models.NotificationLinks{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestNotificationCreatePublishes(t *testing.T) {
	env := newTestEnv(t)

	n, err := env.notifySvc.Create(context.Background(), 10, models.RoleStudent, models.NotificationSystem, "Welcome", "Hello", models.NotificationLinks{})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, websocket.Recipient{ID: 10, Role: models.RoleStudent}, env.publisher.events[0].recipient)
	assert.Equal(t, EventNotificationCreated, env.publisher.events[0].eventType)
}

func TestUnreadCountRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := studentPrincipal()

	count, err := env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Zero(t, count)

	first, err := env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, "One", "", models.NotificationLinks{})
	require.NoError(t, err)
	_, err = env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, "Two", "", models.NotificationLinks{})
	require.NoError(t, err)
	// a professor with the same numeric id does not share the counter
	_, err = env.notifySvc.Create(ctx, 10, models.RoleProfessor, models.NotificationSystem, "Other", "", models.NotificationLinks{})
	require.NoError(t, err)

	count, err = env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// served from cache
	calls := env.notifications.counts
	count, err = env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, calls, env.notifications.counts)

	require.NoError(t, env.notifySvc.MarkReadFor(ctx, p, first.ID))
	count, err = env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	updated, err := env.notifySvc.MarkAllReadFor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListForPaginatesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, title, "", models.NotificationLinks{})
		require.NoError(t, err)
	}

	items, total, err := env.notifySvc.ListFor(ctx, studentPrincipal(), repositories.NotificationListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Title)
	assert.Equal(t, "b", items[1].Title)
}

func TestUnreadOnlyListingAfterMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := studentPrincipal()
	unreadOnly := repositories.NotificationListOptions{Limit: 20, UnreadOnly: true}

	n, err := env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, "Read me", "", models.NotificationLinks{})
	require.NoError(t, err)
	_, err = env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, "Keep me", "", models.NotificationLinks{})
	require.NoError(t, err)

	items, total, err := env.notifySvc.ListFor(ctx, p, unreadOnly)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	matches := 0
	for _, item := range items {
		if item.ID == n.ID {
			matches++
		}
	}
	assert.Equal(t, 1, matches)

	require.NoError(t, env.notifySvc.MarkReadFor(ctx, p, n.ID))

	items, total, err = env.notifySvc.ListFor(ctx, p, unreadOnly)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	for _, item := range items {
		assert.NotEqual(t, n.ID, item.ID)
	}

	all, total, err := env.notifySvc.ListFor(ctx, p, repositories.NotificationListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestUnreadCountDropsValueInvalidatedMidRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := studentPrincipal()

	n, err := env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationSystem, "One", "", models.NotificationLinks{})
	require.NoError(t, err)

	// the notification is read after the count was taken but before it is cached
	env.notifications.afterCount = func() {
		require.NoError(t, env.notifySvc.MarkRead(ctx, n.ID, 10, models.RoleStudent))
	}

	count, err := env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, cached := env.cache.data[unreadKey(10, models.RoleStudent)]
	assert.False(t, cached)

	count, err = env.notifySvc.UnreadCountFor(ctx, p)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationsWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ghost := auth.Principal{AccountID: 900, Role: models.RoleStudent, Email: "nobody@school.edu"}

	items, total, err := env.notifySvc.ListFor(ctx, ghost, repositories.NotificationListOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	count, err := env.notifySvc.UnreadCountFor(ctx, ghost)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = env.notifySvc.MarkReadFor(ctx, ghost, 1)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestDeleteForIsScopedToRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := env.notifySvc.Create(ctx, 11, models.RoleStudent, models.NotificationSystem, "Ben only", "", models.NotificationLinks{})
	require.NoError(t, err)

	err = env.notifySvc.DeleteFor(ctx, studentPrincipal(), n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	ben := auth.Principal{AccountID: 602, Role: models.RoleStudent, Email: "ben.reyes@school.edu"}
	require.NoError(t, env.notifySvc.DeleteFor(ctx, ben, n.ID))
}

func TestFindRecentWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := int64(100)

	_, err := env.notifySvc.Create(ctx, 10, models.RoleStudent, models.NotificationAtRisk, "alert", "", models.NotificationLinks{CourseID: &courseID})
	require.NoError(t, err)

	found, err := env.notifySvc.FindRecent(ctx, 10, models.RoleStudent, 100, models.NotificationAtRisk, 0)
	require.NoError(t, err)
	assert.NotNil(t, found)

	found, err = env.notifySvc.FindRecent(ctx, 10, models.RoleStudent, 100, models.NotificationNotTaking, 0)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = env.notifySvc.FindRecent(ctx, 10, models.RoleStudent, 200, models.NotificationAtRisk, 0)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRecipientFor(t *testing.T) {
	env := newTestEnv(t)

	r, err := env.notifySvc.RecipientFor(context.Background(), professorPrincipal())
	require.NoError(t, err)
	assert.Equal(t, websocket.Recipient{ID: 1, Role: models.RoleProfessor}, r)
}
