package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TeacherCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTeacherCache(rdb, time.Minute), mr
}

func TestTeacherCache_SetGetInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetTeacher(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	teacher := &model.TeacherProfile{
		ID:                 1,
		FullName:           "Ama Mensah",
		VerificationStatus: model.VerificationApproved,
		Availability:       []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "12:00"}},
	}
	require.NoError(t, c.SetTeacher(ctx, teacher))

	got, err = c.GetTeacher(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ama Mensah", got.FullName)
	assert.Equal(t, teacher, got)

	require.NoError(t, c.InvalidateTeacher(ctx, 1))
	got, err = c.GetTeacher(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTeacherCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetTeacher(ctx, &model.TeacherProfile{ID: 2}))
	mr.FastForward(2 * time.Minute)

	got, err := c.GetTeacher(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTeacherCache_BackendDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.GetTeacher(context.Background(), 1)
	assert.Error(t, err)
}
