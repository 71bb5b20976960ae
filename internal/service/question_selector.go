package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// QuestionSelector draws the per-attempt question sample from an exam's
// bank. The eligible-question list is cached in Redis; sampling itself uses
// an injectable RNG so tests can assert exact draws.
type QuestionSelector struct {
	QuestionRepo *repository.QuestionRepository
	Redis        *redis.Client
	CacheTTL     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionSelector(questionRepo *repository.QuestionRepository, rdb *redis.Client, cacheTTL time.Duration, rng *rand.Rand) *QuestionSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &QuestionSelector{
		QuestionRepo: questionRepo,
		Redis:        rdb,
		CacheTTL:     cacheTTL,
		rng:          rng,
	}
}

func questionCacheKey(examID uint) string {
	return fmt.Sprintf("exam:%d:questions", examID)
}

// Select draws exactly required distinct questions, without replacement, in
// no guaranteed order. The returned questions still carry their correct
// option keys; presentation strips them.
func (s *QuestionSelector) Select(ctx context.Context, examID uint, required int) ([]model.BankQuestion, error) {
	if required <= 0 {
		return nil, util.ValidationError("exam has no sample size configured")
	}

	pool, err := s.eligibleQuestions(ctx, examID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if len(pool) < required {
		return nil, util.CapacityError("question bank has %d eligible questions, %d required", len(pool), required)
	}

	sample := make([]model.BankQuestion, len(pool))
	copy(sample, pool)

	s.mu.Lock()
	s.rng.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	s.mu.Unlock()

	return sample[:required], nil
}

// InvalidateCache drops the cached bank for an exam after question mutation.
func (s *QuestionSelector) InvalidateCache(ctx context.Context, examID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, questionCacheKey(examID))
}

func (s *QuestionSelector) eligibleQuestions(ctx context.Context, examID uint) ([]model.BankQuestion, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, questionCacheKey(examID)).Bytes()
		if err == nil {
			var qs []model.BankQuestion
			if err := json.Unmarshal(cached, &qs); err == nil {
				return qs, nil
			}
		}
	}

	qs, err := s.QuestionRepo.ListActiveByExam(examID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(qs); err == nil {
			s.Redis.Set(ctx, questionCacheKey(examID), payload, s.CacheTTL)
		}
	}
	return qs, nil
}
