package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"quizhub-service/internal/analytics"
	"quizhub-service/internal/domain"
)

// recentAttemptLimit bounds the realtime view's attempt list.
const recentAttemptLimit = 10

// AnalyticsService serves quiz reports. The full report is expensive and is
// cached unmasked per quiz; masking is applied per request after the cache
// read so one cached copy serves every viewer role.
type AnalyticsService struct {
	store  AnalyticsStore
	cache  ViewCache
	ttl    time.Duration
	masker analytics.Masker
}

func NewAnalyticsService(store AnalyticsStore, cache ViewCache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		masker: analytics.StableMasker{},
	}
}

// WithMasker overrides the default stable-by-id masking strategy.
func (s *AnalyticsService) WithMasker(m analytics.Masker) *AnalyticsService {
	s.masker = m
	return s
}

// GetReport returns the full report, masked for the viewer role.
func (s *AnalyticsService) GetReport(ctx context.Context, quizID string, role domain.Role) (analytics.Report, error) {
	report, err := s.cachedReport(ctx, quizID)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.MaskForViewer(report, role, s.masker), nil
}

func (s *AnalyticsService) cachedReport(ctx context.Context, quizID string) (analytics.Report, error) {
	key := QuizAnalyticsKey(quizID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var report analytics.Report
		if err := json.Unmarshal(raw, &report); err == nil {
			return report, nil
		}
		// corrupt entry: drop it and rebuild
		_ = s.cache.Forget(ctx, key)
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("analytics cache read failed for quiz %s: %v", quizID, err)
	}

	report, err := s.buildReport(ctx, quizID)
	if err != nil {
		return analytics.Report{}, err
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Put(ctx, key, raw, s.ttl); err != nil {
			log.Printf("analytics cache write failed for quiz %s: %v", quizID, err)
		}
	}
	return report, nil
}

func (s *AnalyticsService) buildReport(ctx context.Context, quizID string) (analytics.Report, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return analytics.Report{}, err
	}
	participations, err := s.store.ListParticipations(ctx, quizID)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("load participations: %w", err)
	}
	return analytics.BuildReport(quiz, participations), nil
}

// GetRealtimeStats bypasses the cache entirely.
func (s *AnalyticsService) GetRealtimeStats(ctx context.Context, quizID string, role domain.Role) (analytics.RealtimeStats, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return analytics.RealtimeStats{}, err
	}
	participations, err := s.store.ListParticipations(ctx, quizID)
	if err != nil {
		return analytics.RealtimeStats{}, fmt.Errorf("load participations: %w", err)
	}
	recent, err := s.store.RecentParticipations(ctx, quizID, recentAttemptLimit)
	if err != nil {
		return analytics.RealtimeStats{}, fmt.Errorf("load recent attempts: %w", err)
	}
	stats := analytics.BuildRealtimeStats(quiz, participations, recent)
	return analytics.MaskRealtimeForViewer(stats, role, s.masker), nil
}

// Invalidate drops the cached report for a quiz. Callable after any
// participation or question change.
func (s *AnalyticsService) Invalidate(ctx context.Context, quizID string) error {
	return s.cache.Forget(ctx, QuizAnalyticsKey(quizID))
}
