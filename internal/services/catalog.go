package services

// Category identifies a developmental domain of the Denver II questionnaire.
type Category string

const (
	CategoryGrossMotor     Category = "gross_motor"
	CategoryFineMotor      Category = "fine_motor"
	CategoryLanguage       Category = "language"
	CategoryPersonalSocial Category = "personal_social"
)

// CategoryName maps a category code to its display name.
func CategoryName(c Category) string {
	switch c {
	case CategoryGrossMotor:
		return "Gross Motor"
	case CategoryFineMotor:
		return "Fine Motor"
	case CategoryLanguage:
		return "Language"
	case CategoryPersonalSocial:
		return "Personal-Social"
	}
	return string(c)
}

// Question is an immutable milestone catalog entry.
type Question struct {
	ID                string   `json:"question_id"`
	Text              string   `json:"question_text"`
	Category          Category `json:"category"`
	AgeBand           string   `json:"age_band"`
	MilestoneAgeMonth int      `json:"milestone_age_months"`
}

// ageBands lists the contiguous, non-overlapping age bands in order.
// Each band covers [lower, upper) months; ages at or beyond the last
// upper bound clamp to the final band.
var ageBands = []struct {
	Label string
	Lower int
	Upper int
}{
	{"0-3", 0, 3},
	{"3-6", 3, 6},
	{"6-9", 6, 9},
	{"9-12", 9, 12},
	{"12-15", 12, 15},
	{"15-18", 15, 18},
	{"18-24", 18, 24},
	{"24-30", 24, 30},
	{"30-36", 30, 36},
}

// AssignBand returns the label of the band whose interval contains the age.
// Ages of 36 months and above clamp to the last band.
func AssignBand(ageMonths int) string {
	for _, b := range ageBands {
		if ageMonths < b.Upper {
			return b.Label
		}
	}
	return ageBands[len(ageBands)-1].Label
}

// QuestionsForAge returns the catalog subset for the assigned band plus the
// immediately preceding band. Milestones from one band earlier are still
// checked in case the child has not yet passed them. At the first band there
// is no preceding band and only the first band's questions are returned.
func QuestionsForAge(ageMonths int) []Question {
	band := AssignBand(ageMonths)
	idx := 0
	for i, b := range ageBands {
		if b.Label == band {
			idx = i
			break
		}
	}
	wanted := map[string]bool{band: true}
	if idx > 0 {
		wanted[ageBands[idx-1].Label] = true
	}
	out := make([]Question, 0, len(denverQuestions))
	for _, q := range denverQuestions {
		if wanted[q.AgeBand] {
			out = append(out, q)
		}
	}
	return out
}

// QuestionByID looks up a catalog question. The second return reports
// whether the identifier matched.
func QuestionByID(id string) (Question, bool) {
	for _, q := range denverQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
