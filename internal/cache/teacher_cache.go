// Package cache кэширует публичные профили учителей в Redis.
// Бронирования и расписания для проверок здесь не хранятся.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/redis/go-redis/v9"
)

type TeacherCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTeacherCache(rdb *redis.Client, ttl time.Duration) *TeacherCache {
	return &TeacherCache{rdb: rdb, ttl: ttl}
}

func teacherKey(id int64) string {
	return fmt.Sprintf("teacher:profile:%d", id)
}

// GetTeacher возвращает nil, nil если профиля нет в кэше
func (c *TeacherCache) GetTeacher(ctx context.Context, id int64) (*model.TeacherProfile, error) {
	data, err := c.rdb.Get(ctx, teacherKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher from cache: %w", err)
	}

	var p model.TeacherProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached teacher: %w", err)
	}
	return &p, nil
}

func (c *TeacherCache) SetTeacher(ctx context.Context, teacher *model.TeacherProfile) error {
	data, err := json.Marshal(teacher)
	if err != nil {
		return fmt.Errorf("encode teacher: %w", err)
	}
	if err := c.rdb.Set(ctx, teacherKey(teacher.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set teacher in cache: %w", err)
	}
	return nil
}

func (c *TeacherCache) InvalidateTeacher(ctx context.Context, id int64) error {
	if err := c.rdb.Del(ctx, teacherKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate teacher: %w", err)
	}
	return nil
}
