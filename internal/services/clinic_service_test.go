package services

import (
	"errors"
	"testing"
)

type stubClinicStore struct {
	screenings []*Screening
	settled    []*PaymentIntent
	all        []*PaymentIntent
	reviews    []*ClinicalReview

	settledErr error
	allErr     error
	reviewsErr error

	allCalls int
}

func (s *stubClinicStore) ListScreenings() ([]*Screening, error) { return s.screenings, nil }

func (s *stubClinicStore) ListSettledScreeningIntents() ([]*PaymentIntent, error) {
	if s.settledErr != nil {
		return nil, s.settledErr
	}
	return s.settled, nil
}

func (s *stubClinicStore) ListPaymentIntents() ([]*PaymentIntent, error) {
	s.allCalls++
	if s.allErr != nil {
		return nil, s.allErr
	}
	return s.all, nil
}

func (s *stubClinicStore) ListClinicalReviews() ([]*ClinicalReview, error) {
	if s.reviewsErr != nil {
		return nil, s.reviewsErr
	}
	return s.reviews, nil
}

func clinicScreenings(ids ...string) []*Screening {
	out := make([]*Screening, 0, len(ids))
	for _, id := range ids {
		out = append(out, &Screening{ID: id, ChildName: "Child " + id})
	}
	return out
}

func TestPendingScreenings(t *testing.T) {
	store := &stubClinicStore{
		screenings: clinicScreenings("s1", "s2", "s3", "s4"),
		settled: []*PaymentIntent{
			{ID: "p1", ScreeningID: "s1", Status: IntentSettled},
			{ID: "p3", ScreeningID: "s3", Status: IntentSettled},
		},
		reviews: []*ClinicalReview{{ID: "r1", ScreeningID: "s3"}},
	}
	svc := NewClinicService(store, nil)

	out, err := svc.PendingScreenings()
	if err != nil {
		t.Fatalf("PendingScreenings returned error: %v", err)
	}
	// s1 is paid and unreviewed; s2/s4 unpaid; s3 already reviewed
	if len(out) != 1 || out[0].ID != "s1" {
		t.Fatalf("pending = %v", out)
	}
	if store.allCalls != 0 {
		t.Fatalf("unfiltered fallback should not run on success")
	}
}

func TestPendingScreeningsPreservesOrder(t *testing.T) {
	store := &stubClinicStore{
		screenings: clinicScreenings("s3", "s1", "s2"),
		settled: []*PaymentIntent{
			{ID: "p1", ScreeningID: "s1", Status: IntentSettled},
			{ID: "p2", ScreeningID: "s2", Status: IntentSettled},
			{ID: "p3", ScreeningID: "s3", Status: IntentSettled},
		},
	}
	svc := NewClinicService(store, nil)

	out, err := svc.PendingScreenings()
	if err != nil {
		t.Fatalf("PendingScreenings returned error: %v", err)
	}
	if len(out) != 3 || out[0].ID != "s3" || out[1].ID != "s1" || out[2].ID != "s2" {
		t.Fatalf("order not preserved: %v", out)
	}
}

func TestPendingScreeningsRelationshipFallback(t *testing.T) {
	store := &stubClinicStore{
		screenings: clinicScreenings("s1", "s2"),
		settledErr: errors.New("could not find a relationship between tables in the schema cache"),
		all: []*PaymentIntent{
			{ID: "p1", ScreeningID: "s1", Status: IntentSettled},
			{ID: "p2", ScreeningID: "s2", Status: IntentPending},
			{ID: "p3", ScreeningID: "", Status: IntentSettled},
		},
	}
	svc := NewClinicService(store, nil)

	out, err := svc.PendingScreenings()
	if err != nil {
		t.Fatalf("PendingScreenings returned error: %v", err)
	}
	if store.allCalls != 1 {
		t.Fatalf("unfiltered fallback should run once, ran %d", store.allCalls)
	}
	if len(out) != 1 || out[0].ID != "s1" {
		t.Fatalf("fallback filter wrong: %v", out)
	}
}

func TestPendingScreeningsHardPaymentFailure(t *testing.T) {
	store := &stubClinicStore{
		screenings: clinicScreenings("s1"),
		settledErr: errors.New("connection refused"),
	}
	svc := NewClinicService(store, nil)

	_, err := svc.PendingScreenings()
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if store.allCalls != 0 {
		t.Fatalf("non-relationship failure must not trigger fallback")
	}
}

func TestPendingScreeningsReviewFailureAssumesNone(t *testing.T) {
	store := &stubClinicStore{
		screenings: clinicScreenings("s1"),
		settled:    []*PaymentIntent{{ID: "p1", ScreeningID: "s1", Status: IntentSettled}},
		reviewsErr: errors.New("reviews table unavailable"),
	}
	svc := NewClinicService(store, nil)

	out, err := svc.PendingScreenings()
	if err != nil {
		t.Fatalf("PendingScreenings returned error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("review failure should not hide paid screenings: %v", out)
	}
}
