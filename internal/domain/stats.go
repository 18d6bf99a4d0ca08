package domain

import (
	"context"
	"strings"
)

// LanguageActivitySummary is one entry in DailyStats.Activities.
type LanguageActivitySummary struct {
	Title            string
	ActivityType     string
	WordsLearned     int
	LessonsCompleted int
	MinutesStudied   int
}

// DailyStats sums today's language-learning records.
type DailyStats struct {
	WordsLearned     int
	LessonsCompleted int
	MinutesStudied   int
	Activities       []LanguageActivitySummary
}

// AllTimeStats sums every language-learning record of a user.
type AllTimeStats struct {
	WordsLearned     int
	LessonsCompleted int
	MinutesStudied   int
	TotalActivities  int
}

// Stats is the response of the stats operation.
type Stats struct {
	Today   DailyStats
	AllTime AllTimeStats
	Streak  int
}

// Stats computes today's and all-time language totals plus the current
// streak. Only language-activity records feed the totals; the streak counts
// records of any kind.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("userId is required")
	}
	today := startOfDay(s.now(), s.loc)

	todayRecords, err := s.repo.List(ctx, userID, Filter{Kind: KindLanguageActivity, From: today, Order: OrderCreatedAsc})
	if err != nil {
		return nil, s.storeFailure("stats_today", userID, err)
	}
	allRecords, err := s.repo.List(ctx, userID, Filter{Kind: KindLanguageActivity, Order: OrderCreatedAsc})
	if err != nil {
		return nil, s.storeFailure("stats_all_time", userID, err)
	}
	streak, err := s.streak(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("stats_streak", userID, err)
	}

	return &Stats{
		Today:   summariseToday(todayRecords),
		AllTime: summariseAllTime(allRecords),
		Streak:  streak,
	}, nil
}

func summariseToday(records []Record) DailyStats {
	stats := DailyStats{Activities: make([]LanguageActivitySummary, 0)}
	for _, rec := range records {
		la, ok := rec.Payload.(LanguageActivity)
		if !ok {
			continue
		}
		stats.WordsLearned += la.WordsLearned
		stats.LessonsCompleted += la.LessonsCompleted
		stats.MinutesStudied += la.MinutesStudied
		if la.Title != "" {
			stats.Activities = append(stats.Activities, LanguageActivitySummary{
				Title:            la.Title,
				ActivityType:     la.ActivityType,
				WordsLearned:     la.WordsLearned,
				LessonsCompleted: la.LessonsCompleted,
				MinutesStudied:   la.MinutesStudied,
			})
		}
	}
	return stats
}

func summariseAllTime(records []Record) AllTimeStats {
	var stats AllTimeStats
	for _, rec := range records {
		la, ok := rec.Payload.(LanguageActivity)
		if !ok {
			continue
		}
		stats.WordsLearned += la.WordsLearned
		stats.LessonsCompleted += la.LessonsCompleted
		stats.MinutesStudied += la.MinutesStudied
		stats.TotalActivities++
	}
	return stats
}

// streak walks backward from today one calendar day at a time and counts
// days holding at least one record. The walk stops at the first empty day or
// after maxLookbackDays days.
func (s *Service) streak(ctx context.Context, userID string) (int, error) {
	day := startOfDay(s.now(), s.loc)
	streak := 0
	for streak < s.maxLookbackDays {
		found, err := s.repo.HasActivity(ctx, userID, day, addDays(day, 1, s.loc))
		if err != nil {
			return 0, err
		}
		if !found {
			break
		}
		streak++
		day = addDays(day, -1, s.loc)
	}
	return streak, nil
}

// Today returns the records that occurred today, newest first.
func (s *Service) Today(ctx context.Context, userID string) ([]Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("userId is required")
	}
	today := startOfDay(s.now(), s.loc)
	records, err := s.repo.List(ctx, userID, Filter{
		From:   today,
		Before: addDays(today, 1, s.loc),
		Order:  OrderCreatedDesc,
	})
	if err != nil {
		return nil, s.storeFailure("list_today", userID, err)
	}
	return records, nil
}

// Range returns the records between the start of startDate and the end of
// endDate, most recent occurrence first. A start after the end yields an
// empty result.
func (s *Service) Range(ctx context.Context, userID, startDate, endDate string) ([]Record, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return nil, NewValidationError("Please provide startDate and endDate")
	}
	start, ok := parseDate(startDate, s.loc)
	if !ok {
		return nil, NewValidationError("startDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	end, ok := parseDate(endDate, s.loc)
	if !ok {
		return nil, NewValidationError("endDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}

	from := startOfDay(start, s.loc)
	before := addDays(startOfDay(end, s.loc), 1, s.loc)
	if !from.Before(before) {
		return []Record{}, nil
	}

	records, err := s.repo.List(ctx, userID, Filter{From: from, Before: before, Order: OrderOccurredDesc})
	if err != nil {
		return nil, s.storeFailure("list_range", userID, err)
	}
	return records, nil
}
