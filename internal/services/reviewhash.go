package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ClinicalReviewHashData is the canonical field set a review digest is
// computed over. Field order and defaulting rules are part of the contract:
// the digest must be reproducible byte-for-byte for later verification.
type ClinicalReviewHashData struct {
	ScreeningID     string
	ReviewID        string
	FinalDiagnosis  *string
	Recommendations *string
	SocialScore     *int
	FineMotorScore  *int
	LanguageScore   *int
	GrossMotorScore *int
	ReviewedAt      string
}

// canonicalReview is the exact serialized shape. Absent text fields default
// to "" and absent scores to 0 before hashing.
type canonicalReview struct {
	ScreeningID     string `json:"screeningId"`
	ReviewID        string `json:"reviewId"`
	FinalDiagnosis  string `json:"finalDiagnosis"`
	Recommendations string `json:"recommendations"`
	SocialScore     int    `json:"socialScore"`
	FineMotorScore  int    `json:"fineMotorScore"`
	LanguageScore   int    `json:"languageScore"`
	GrossMotorScore int    `json:"grossMotorScore"`
	ReviewedAt      string `json:"reviewedAt"`
}

// GenerateReviewHash returns the SHA-256 hex digest linking a clinical
// review's content to its screening.
func GenerateReviewHash(data ClinicalReviewHashData) string {
	c := canonicalReview{
		ScreeningID: data.ScreeningID,
		ReviewID:    data.ReviewID,
		ReviewedAt:  data.ReviewedAt,
	}
	if data.FinalDiagnosis != nil {
		c.FinalDiagnosis = *data.FinalDiagnosis
	}
	if data.Recommendations != nil {
		c.Recommendations = *data.Recommendations
	}
	if data.SocialScore != nil {
		c.SocialScore = *data.SocialScore
	}
	if data.FineMotorScore != nil {
		c.FineMotorScore = *data.FineMotorScore
	}
	if data.LanguageScore != nil {
		c.LanguageScore = *data.LanguageScore
	}
	if data.GrossMotorScore != nil {
		c.GrossMotorScore = *data.GrossMotorScore
	}
	// struct marshaling preserves field order, so the payload is canonical
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// VerifyReviewHash recomputes the digest and compares. This is an integrity
// check, not a secret comparison.
func VerifyReviewHash(data ClinicalReviewHashData, hash string) bool {
	return GenerateReviewHash(data) == hash
}
