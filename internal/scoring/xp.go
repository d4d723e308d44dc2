package scoring

import (
	"fmt"
	"math"

	"quizhub-service/internal/domain"
)

// XP formula constants. These are load-bearing for reproducibility: awarded
// XP is persisted in an append-only ledger, so historical rows must remain
// explainable by the same numbers.
const (
	baseXP           = 50
	scorePointFactor = 2
	timeBonusXP      = 25
	minimumXP        = 10
)

// XPBreakdown exposes every intermediate factor of the XP formula so the UI
// can show learners how an award was assembled.
type XPBreakdown struct {
	Percentage            float64  `json:"percentage"`
	BaseXP                int      `json:"baseXp"`
	ScoreXP               int      `json:"scoreXp"`
	PerformanceMultiplier float64  `json:"performanceMultiplier"`
	DifficultyMultiplier  float64  `json:"difficultyMultiplier"`
	TimeBonus             int      `json:"timeBonus"`
	RawXP                 float64  `json:"rawXp"`
	FinalXP               int      `json:"finalXp"`
	Notes                 []string `json:"notes,omitempty"`
}

// XPAward is the result of the XP formula for one completed attempt.
type XPAward struct {
	XP        int         `json:"xp"`
	Breakdown XPBreakdown `json:"breakdown"`
}

// CalculateXP computes the XP awarded for a completed attempt.
//
//	raw = (base + floor(totalScore*2)) * performance * difficulty + timeBonus
//	xp  = max(10, floor(raw))
//
// Performance multiplier tiers on the percentage of correct answers
// (90/80/70), difficulty multiplier on the quiz's maximum attainable score
// (100/50), and the flat time bonus applies when a timed quiz is completed
// at >= 60%. The function is pure; callers use it both to award XP during
// submission and to preview awards without side effects.
func CalculateXP(quiz domain.Quiz, totalScore, correctCount, totalQuestions int) (XPAward, error) {
	if totalQuestions == 0 {
		return XPAward{}, domain.ErrEmptySubmission
	}

	percentage := float64(correctCount) / float64(totalQuestions) * 100
	scoreXP := int(math.Floor(float64(totalScore) * scorePointFactor))

	var notes []string

	performance := 1.0
	switch {
	case percentage >= 90:
		performance = 1.5
		notes = append(notes, "excellent performance (90%+): 1.5x multiplier")
	case percentage >= 80:
		performance = 1.3
		notes = append(notes, "great performance (80%+): 1.3x multiplier")
	case percentage >= 70:
		performance = 1.1
		notes = append(notes, "good performance (70%+): 1.1x multiplier")
	}

	difficulty := 1.0
	switch {
	case quiz.TotalScore >= 100:
		difficulty = 1.4
		notes = append(notes, "high-value quiz (100+ points): 1.4x multiplier")
	case quiz.TotalScore >= 50:
		difficulty = 1.2
		notes = append(notes, "medium-value quiz (50+ points): 1.2x multiplier")
	}

	timeBonus := 0
	if quiz.TotalTime > 0 && percentage >= 60 {
		timeBonus = timeBonusXP
		notes = append(notes, fmt.Sprintf("timed quiz completed at 60%%+: +%d bonus", timeBonusXP))
	}

	raw := (float64(baseXP)+float64(scoreXP))*performance*difficulty + float64(timeBonus)
	final := int(math.Floor(raw))
	if final < minimumXP {
		final = minimumXP
		notes = append(notes, fmt.Sprintf("minimum award floor applied: %d xp", minimumXP))
	}

	return XPAward{
		XP: final,
		Breakdown: XPBreakdown{
			Percentage:            percentage,
			BaseXP:                baseXP,
			ScoreXP:               scoreXP,
			PerformanceMultiplier: performance,
			DifficultyMultiplier:  difficulty,
			TimeBonus:             timeBonus,
			RawXP:                 raw,
			FinalXP:               final,
			Notes:                 notes,
		},
	}, nil
}
