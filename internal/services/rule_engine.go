package services

import (
	"fmt"
	"strings"
)

// RuleRiskLevel is the binary verdict of the rule engine. The LLM analysis
// path uses a three-level scale instead; the asymmetry is deliberate.
type RuleRiskLevel string

const (
	RuleRiskHigh RuleRiskLevel = "High"
	RuleRiskLow  RuleRiskLevel = "Low"
)

const (
	highRiskScore        = 85
	lowRiskScore         = 10
	highRiskThresholdPct = 50
)

// ScoredAnswer is one answer joined with its catalog metadata, kept for
// audit storage alongside the verdict.
type ScoredAnswer struct {
	QuestionID        string   `json:"questionId"`
	Response          bool     `json:"response"`
	Category          Category `json:"category"`
	QuestionText      string   `json:"questionText"`
	MilestoneAgeMonth int      `json:"milestoneAgeMonths"`
}

// RuleVerdict is the deterministic output of the rule engine.
type RuleVerdict struct {
	Level       RuleRiskLevel
	Score       int
	Summary     string
	Answers     []ScoredAnswer
	NotAchieved int
	Total       int
	DroppedIDs  []string
}

// categoryOrder fixes the ordering of category names in summaries so that
// identical answer maps always produce identical output.
var categoryOrder = []Category{CategoryGrossMotor, CategoryFineMotor, CategoryLanguage, CategoryPersonalSocial}

// ScoreAnswers runs the rule engine over a map of question id to
// achieved/not-achieved. Answers whose identifier does not match the catalog
// are dropped, not stored; their ids are reported in DroppedIDs for logging.
// It errors only when no valid answers remain after filtering.
func ScoreAnswers(answers map[string]bool) (*RuleVerdict, error) {
	if len(answers) == 0 {
		return nil, NewInvalidError("answers cannot be empty")
	}

	v := &RuleVerdict{}
	affected := map[Category]bool{}

	// walk the catalog, not the map, so output ordering is stable
	for _, q := range denverQuestions {
		resp, ok := answers[q.ID]
		if !ok {
			continue
		}
		v.Answers = append(v.Answers, ScoredAnswer{
			QuestionID:        q.ID,
			Response:          resp,
			Category:          q.Category,
			QuestionText:      q.Text,
			MilestoneAgeMonth: q.MilestoneAgeMonth,
		})
		if !resp {
			v.NotAchieved++
			affected[q.Category] = true
		}
	}
	for id := range answers {
		if _, ok := QuestionByID(id); !ok {
			v.DroppedIDs = append(v.DroppedIDs, id)
		}
	}

	v.Total = len(v.Answers)
	if v.Total == 0 {
		return nil, NewInvalidError("no valid answers found")
	}

	pct := float64(v.NotAchieved) / float64(v.Total) * 100
	if pct > highRiskThresholdPct {
		v.Level = RuleRiskHigh
		v.Score = highRiskScore
	} else {
		v.Level = RuleRiskLow
		v.Score = lowRiskScore
	}
	v.Summary = ruleSummary(v.Level, affected)
	return v, nil
}

func ruleSummary(level RuleRiskLevel, affected map[Category]bool) string {
	if level != RuleRiskHigh {
		return "Developmental milestones appear on track."
	}
	names := make([]string, 0, len(affected))
	for _, c := range categoryOrder {
		if affected[c] {
			names = append(names, CategoryName(c))
		}
	}
	return fmt.Sprintf("Concerns detected in %s. Clinical review recommended.", strings.Join(names, ", "))
}
