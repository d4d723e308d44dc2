// Package analytics computes statistical reports over a quiz's full
// participation history. Everything here is pure: callers load the data,
// this package only aggregates it. Degenerate input (no participations, no
// questions, zero-score quizzes) yields zeroed structures, never errors.
package analytics

import (
	"math"
	"sort"
	"time"

	"quizhub-service/internal/domain"
)

// Report bundles the seven independently computed facets for one quiz.
type Report struct {
	QuizID             string             `json:"quizId"`
	QuizTitle          string             `json:"quizTitle"`
	ParticipationStats ParticipationStats `json:"participationStats"`
	ScoreDistribution  []ScoreBucket      `json:"scoreDistribution"`
	TimeAnalysis       TimeAnalysis       `json:"timeAnalysis"`
	QuestionAnalytics  []QuestionStats    `json:"questionAnalytics"`
	PerformanceMatrix  PerformanceMatrix  `json:"performanceMatrix"`
	DifficultyAnalysis DifficultyAnalysis `json:"difficultyAnalysis"`
	ProgressTracking   ProgressTracking   `json:"progressTracking"`
	GeneratedAt        time.Time          `json:"generatedAt"`
}

// ParticipationStats summarizes attempt volume and scores.
type ParticipationStats struct {
	TotalParticipations int     `json:"totalParticipations"`
	UniqueUsers         int     `json:"uniqueUsers"`
	AverageScore        float64 `json:"averageScore"`
	HighestScore        float64 `json:"highestScore"`
	LowestScore         float64 `json:"lowestScore"`
	AverageTime         float64 `json:"averageTime"`
	CompletionRate      float64 `json:"completionRate"`
}

// ScoreBucket is one of the five fixed percentage ranges.
type ScoreBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TimeAnalysis covers participations that reported a time_taken.
type TimeAnalysis struct {
	AverageTime    float64 `json:"averageTime"`
	MedianTime     float64 `json:"medianTime"`
	FastestTime    float64 `json:"fastestTime"`
	SlowestTime    float64 `json:"slowestTime"`
	TimeEfficiency float64 `json:"timeEfficiency"`
}

// Difficulty tiers derived from a question's aggregate correct rate.
const (
	DifficultyEasy     = "easy"
	DifficultyMedium   = "medium"
	DifficultyHard     = "hard"
	DifficultyVeryHard = "very_hard"
)

// QuestionStats is the per-question facet. AnswerFrequencies is populated
// only for multiple_choice questions.
type QuestionStats struct {
	QuestionID        string         `json:"questionId"`
	Text              string         `json:"text"`
	Type              string         `json:"type"`
	TotalAnswers      int            `json:"totalAnswers"`
	CorrectCount      int            `json:"correctCount"`
	IncorrectCount    int            `json:"incorrectCount"`
	CorrectPercentage float64        `json:"correctPercentage"`
	DifficultyLevel   string         `json:"difficultyLevel"`
	AnswerFrequencies map[string]int `json:"answerFrequencies,omitempty"`
}

// MatrixQuestion is a column header of the performance matrix.
type MatrixQuestion struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Score      int    `json:"score"`
}

// MatrixCell records one user's outcome on one question. Unanswered
// questions appear as nil cells so columns stay aligned.
type MatrixCell struct {
	IsCorrect    bool   `json:"isCorrect"`
	Answer       string `json:"answer"`
	PointsEarned int    `json:"pointsEarned"`
}

// MatrixRow is one participation, cells ordered like the question columns.
type MatrixRow struct {
	UserID      string        `json:"userId"`
	UserName    string        `json:"userName"`
	TotalScore  int           `json:"totalScore"`
	Percentage  float64       `json:"percentage"`
	TimeTaken   *int          `json:"timeTaken,omitempty"`
	CompletedAt time.Time     `json:"completedAt"`
	Cells       []*MatrixCell `json:"cells"`
}

// PerformanceMatrix is the user-by-question grid, rows sorted by score
// descending with ties keeping encounter order.
type PerformanceMatrix struct {
	Questions []MatrixQuestion `json:"questions"`
	Rows      []MatrixRow      `json:"rows"`
}

// QuestionRef names a question in the difficulty extremes lists.
type QuestionRef struct {
	QuestionID        string  `json:"questionId"`
	Text              string  `json:"text"`
	CorrectPercentage float64 `json:"correctPercentage"`
}

// DifficultyAnalysis tallies difficulty tiers across all questions.
type DifficultyAnalysis struct {
	EasyCount         int           `json:"easyCount"`
	MediumCount       int           `json:"mediumCount"`
	HardCount         int           `json:"hardCount"`
	VeryHardCount     int           `json:"veryHardCount"`
	AverageCorrectPct float64       `json:"averageCorrectPct"`
	HardestQuestions  []QuestionRef `json:"hardestQuestions"`
	EasiestQuestions  []QuestionRef `json:"easiestQuestions"`
}

// DailyProgress is one calendar-day bucket of attempts.
type DailyProgress struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	Attempts       int     `json:"attempts"`
	UniqueUsers    int     `json:"uniqueUsers"`
	AverageScore   float64 `json:"averageScore"`
	CompletionRate float64 `json:"completionRate"`
}

// ProgressTracking holds the daily buckets plus week-over-week trends.
type ProgressTracking struct {
	Daily           []DailyProgress `json:"daily"`
	AttemptsTrend   float64         `json:"attemptsTrend"`
	ScoreTrend      float64         `json:"scoreTrend"`
	CompletionTrend float64         `json:"completionTrend"`
}

// BuildReport computes the full report for a quiz from its already-loaded
// participation history. Each participation must carry its answers; rows
// missing the User relation degrade to an empty user name.
func BuildReport(quiz domain.Quiz, participations []domain.Participation) Report {
	return Report{
		QuizID:             quiz.ID,
		QuizTitle:          quiz.Title,
		ParticipationStats: buildParticipationStats(participations),
		ScoreDistribution:  buildScoreDistribution(quiz, participations),
		TimeAnalysis:       buildTimeAnalysis(quiz, participations),
		QuestionAnalytics:  buildQuestionAnalytics(quiz, participations),
		PerformanceMatrix:  buildPerformanceMatrix(quiz, participations),
		DifficultyAnalysis: buildDifficultyAnalysis(quiz, participations),
		ProgressTracking:   buildProgressTracking(participations),
		GeneratedAt:        time.Now().UTC(),
	}
}

func buildParticipationStats(participations []domain.Participation) ParticipationStats {
	if len(participations) == 0 {
		return ParticipationStats{}
	}

	users := make(map[string]struct{})
	var scoreSum, timeSum float64
	var timed, completed int
	highest := math.Inf(-1)
	lowest := math.Inf(1)
	for _, p := range participations {
		users[p.UserID] = struct{}{}
		score := float64(p.TotalScore)
		scoreSum += score
		if score > highest {
			highest = score
		}
		if score < lowest {
			lowest = score
		}
		if p.TimeTaken != nil {
			timeSum += float64(*p.TimeTaken)
			timed++
		}
		if p.Status == domain.StatusCompleted {
			completed++
		}
	}

	count := float64(len(participations))
	avgTime := 0.0
	if timed > 0 {
		avgTime = timeSum / float64(timed)
	}
	return ParticipationStats{
		TotalParticipations: len(participations),
		UniqueUsers:         len(users),
		AverageScore:        round2(scoreSum / count),
		HighestScore:        round2(highest),
		LowestScore:         round2(lowest),
		AverageTime:         round2(avgTime),
		CompletionRate:      round2(float64(completed) / count * 100),
	}
}

var bucketLabels = [5]string{"0-20%", "21-40%", "41-60%", "61-80%", "81-100%"}

// buildScoreDistribution buckets each attempt's percentage-of-max into five
// fixed ranges using cumulative <= thresholds, so the buckets always
// partition the participation set exactly.
func buildScoreDistribution(quiz domain.Quiz, participations []domain.Participation) []ScoreBucket {
	buckets := make([]ScoreBucket, 5)
	for i := range buckets {
		buckets[i].Label = bucketLabels[i]
	}
	for _, p := range participations {
		pct := scorePercentage(quiz, p.TotalScore)
		switch {
		case pct <= 20:
			buckets[0].Count++
		case pct <= 40:
			buckets[1].Count++
		case pct <= 60:
			buckets[2].Count++
		case pct <= 80:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

func buildTimeAnalysis(quiz domain.Quiz, participations []domain.Participation) TimeAnalysis {
	var times []float64
	for _, p := range participations {
		if p.TimeTaken != nil {
			times = append(times, float64(*p.TimeTaken))
		}
	}
	if len(times) == 0 {
		return TimeAnalysis{}
	}

	sort.Float64s(times)
	var sum float64
	for _, v := range times {
		sum += v
	}
	avg := sum / float64(len(times))

	mid := len(times) / 2
	median := times[mid]
	if len(times)%2 == 0 {
		median = (times[mid-1] + times[mid]) / 2
	}

	efficiency := 0.0
	if quiz.TotalTime > 0 {
		efficiency = (float64(quiz.TotalTime) - avg) / float64(quiz.TotalTime) * 100
	}
	return TimeAnalysis{
		AverageTime:    round2(avg),
		MedianTime:     round2(median),
		FastestTime:    round2(times[0]),
		SlowestTime:    round2(times[len(times)-1]),
		TimeEfficiency: round2(efficiency),
	}
}

func buildQuestionAnalytics(quiz domain.Quiz, participations []domain.Participation) []QuestionStats {
	stats := make([]QuestionStats, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		qs := QuestionStats{
			QuestionID: q.ID,
			Text:       q.Text,
			Type:       string(q.Type),
		}
		if q.Type == domain.QuestionMultipleChoice {
			qs.AnswerFrequencies = make(map[string]int)
		}
		for _, p := range participations {
			for _, a := range p.Answers {
				if a.QuestionID != q.ID {
					continue
				}
				qs.TotalAnswers++
				if a.IsCorrect {
					qs.CorrectCount++
				}
				if qs.AnswerFrequencies != nil {
					qs.AnswerFrequencies[a.Value]++
				}
			}
		}
		qs.IncorrectCount = qs.TotalAnswers - qs.CorrectCount
		if qs.TotalAnswers > 0 {
			qs.CorrectPercentage = round2(float64(qs.CorrectCount) / float64(qs.TotalAnswers) * 100)
		}
		qs.DifficultyLevel = difficultyLevel(qs.CorrectPercentage)
		stats = append(stats, qs)
	}
	return stats
}

// difficultyLevel maps an aggregate correct rate onto the four-tier label.
func difficultyLevel(correctPct float64) string {
	switch {
	case correctPct >= 80:
		return DifficultyEasy
	case correctPct >= 60:
		return DifficultyMedium
	case correctPct >= 40:
		return DifficultyHard
	default:
		return DifficultyVeryHard
	}
}

func buildPerformanceMatrix(quiz domain.Quiz, participations []domain.Participation) PerformanceMatrix {
	questions := make([]MatrixQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, MatrixQuestion{QuestionID: q.ID, Text: q.Text, Score: q.Score})
	}

	rows := make([]MatrixRow, 0, len(participations))
	for _, p := range participations {
		byQuestion := make(map[string]domain.Answer, len(p.Answers))
		for _, a := range p.Answers {
			byQuestion[a.QuestionID] = a
		}

		cells := make([]*MatrixCell, len(quiz.Questions))
		for i, q := range quiz.Questions {
			a, ok := byQuestion[q.ID]
			if !ok {
				continue // unanswered: nil cell keeps the column aligned
			}
			points := 0
			if a.IsCorrect {
				points = q.Score
			}
			cells[i] = &MatrixCell{IsCorrect: a.IsCorrect, Answer: a.Value, PointsEarned: points}
		}

		name := ""
		if p.User != nil {
			name = p.User.Name
		}
		rows = append(rows, MatrixRow{
			UserID:      p.UserID,
			UserName:    name,
			TotalScore:  p.TotalScore,
			Percentage:  round2(scorePercentage(quiz, p.TotalScore)),
			TimeTaken:   p.TimeTaken,
			CompletedAt: p.CompletedAt,
			Cells:       cells,
		})
	}

	// ties keep encounter order, so the sort must be stable
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})

	return PerformanceMatrix{Questions: questions, Rows: rows}
}

func buildDifficultyAnalysis(quiz domain.Quiz, participations []domain.Participation) DifficultyAnalysis {
	questionStats := buildQuestionAnalytics(quiz, participations)
	var analysis DifficultyAnalysis
	if len(questionStats) == 0 {
		return analysis
	}

	var pctSum float64
	refs := make([]QuestionRef, 0, len(questionStats))
	for _, qs := range questionStats {
		switch qs.DifficultyLevel {
		case DifficultyEasy:
			analysis.EasyCount++
		case DifficultyMedium:
			analysis.MediumCount++
		case DifficultyHard:
			analysis.HardCount++
		default:
			analysis.VeryHardCount++
		}
		pctSum += qs.CorrectPercentage
		refs = append(refs, QuestionRef{
			QuestionID:        qs.QuestionID,
			Text:              qs.Text,
			CorrectPercentage: qs.CorrectPercentage,
		})
	}
	analysis.AverageCorrectPct = round2(pctSum / float64(len(questionStats)))

	asc := make([]QuestionRef, len(refs))
	copy(asc, refs)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].CorrectPercentage < asc[j].CorrectPercentage })
	analysis.HardestQuestions = topN(asc, 3)

	desc := make([]QuestionRef, len(refs))
	copy(desc, refs)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].CorrectPercentage > desc[j].CorrectPercentage })
	analysis.EasiestQuestions = topN(desc, 3)

	return analysis
}

func topN(refs []QuestionRef, n int) []QuestionRef {
	if len(refs) > n {
		refs = refs[:n]
	}
	out := make([]QuestionRef, len(refs))
	copy(out, refs)
	return out
}

// trendWindow is the number of daily buckets compared on each side of the
// week-over-week trend calculation.
const trendWindow = 7

func buildProgressTracking(participations []domain.Participation) ProgressTracking {
	type dayAgg struct {
		attempts  int
		users     map[string]struct{}
		scoreSum  float64
		completed int
	}
	byDay := make(map[string]*dayAgg)
	for _, p := range participations {
		day := p.CompletedAt.Format("2006-01-02")
		agg, ok := byDay[day]
		if !ok {
			agg = &dayAgg{users: make(map[string]struct{})}
			byDay[day] = agg
		}
		agg.attempts++
		agg.users[p.UserID] = struct{}{}
		agg.scoreSum += float64(p.TotalScore)
		if p.Status == domain.StatusCompleted {
			agg.completed++
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	daily := make([]DailyProgress, 0, len(days))
	for _, day := range days {
		agg := byDay[day]
		daily = append(daily, DailyProgress{
			Date:           day,
			Attempts:       agg.attempts,
			UniqueUsers:    len(agg.users),
			AverageScore:   round2(agg.scoreSum / float64(agg.attempts)),
			CompletionRate: round2(float64(agg.completed) / float64(agg.attempts) * 100),
		})
	}

	tracking := ProgressTracking{Daily: daily}
	if len(daily) < 2 {
		return tracking
	}

	recentStart := len(daily) - trendWindow
	if recentStart < 0 {
		recentStart = 0
	}
	prevStart := recentStart - trendWindow
	if prevStart < 0 {
		prevStart = 0
	}
	recent := daily[recentStart:]
	previous := daily[prevStart:recentStart]

	tracking.AttemptsTrend = trend(previous, recent, func(d DailyProgress) float64 { return float64(d.Attempts) })
	tracking.ScoreTrend = trend(previous, recent, func(d DailyProgress) float64 { return d.AverageScore })
	tracking.CompletionTrend = trend(previous, recent, func(d DailyProgress) float64 { return d.CompletionRate })
	return tracking
}

// trend compares the mean of the recent buckets against the mean of the
// previous ones; an empty or zero-mean previous window yields 0.
func trend(previous, recent []DailyProgress, value func(DailyProgress) float64) float64 {
	prevMean := mean(previous, value)
	if prevMean == 0 {
		return 0
	}
	return round2((mean(recent, value) - prevMean) / prevMean * 100)
}

func mean(days []DailyProgress, value func(DailyProgress) float64) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += value(d)
	}
	return sum / float64(len(days))
}

func scorePercentage(quiz domain.Quiz, totalScore int) float64 {
	if quiz.TotalScore == 0 {
		return 0
	}
	return float64(totalScore) / float64(quiz.TotalScore) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
