package services

import (
	"strings"

	"go.uber.org/zap"
)

type ClinicStore interface {
	ListScreenings() ([]*Screening, error)
	// ListSettledScreeningIntents filters server-side to SETTLED intents
	// with a non-null screening reference.
	ListSettledScreeningIntents() ([]*PaymentIntent, error)
	// ListPaymentIntents is the unfiltered fallback for stores whose
	// relationship metadata is not discoverable.
	ListPaymentIntents() ([]*PaymentIntent, error)
	ListClinicalReviews() ([]*ClinicalReview, error)
}

// ClinicService computes the reviewer queue: screenings with a settled
// payment and no clinical review yet. The three tables are queried
// independently and reconciled in memory because the data source's
// relationship metadata may not be discoverable.
type ClinicService struct {
	store ClinicStore
	log   *zap.Logger
}

func NewClinicService(store ClinicStore, log *zap.Logger) *ClinicService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClinicService{store: store, log: log}
}

// isRelationshipError reports whether a payment query failed because the
// store could not resolve table relationships rather than a hard fault.
func isRelationshipError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "relationship") || strings.Contains(msg, "schema cache")
}

// PendingScreenings returns screenings visible to clinical reviewers,
// preserving the newest-first ordering of the screening query.
//
// Failure policy: a relationship-detection failure on the settled-intent
// query is retried once unfiltered with the filter applied locally; a
// failing review query is treated as "no reviews exist". Both choices are
// conservative toward showing more pending screenings, not fewer.
func (s *ClinicService) PendingScreenings() ([]*Screening, error) {
	screenings, err := s.store.ListScreenings()
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screenings: " + err.Error())
	}

	intents, err := s.store.ListSettledScreeningIntents()
	if err != nil {
		if !isRelationshipError(err) {
			return nil, NewUpstreamError("failed to fetch payment intents: " + err.Error())
		}
		s.log.Warn("relationship detection failed, retrying payment query unfiltered", zap.Error(err))
		all, ferr := s.store.ListPaymentIntents()
		if ferr != nil {
			return nil, NewUpstreamError("failed to fetch payment intents: " + ferr.Error())
		}
		intents = intents[:0]
		for _, pi := range all {
			if pi.Status == IntentSettled && pi.ScreeningID != "" {
				intents = append(intents, pi)
			}
		}
	}

	settled := map[string]bool{}
	for _, pi := range intents {
		if pi.ScreeningID != "" {
			settled[pi.ScreeningID] = true
		}
	}

	reviewed := map[string]bool{}
	reviews, err := s.store.ListClinicalReviews()
	if err != nil {
		s.log.Warn("failed to fetch clinical reviews, assuming none", zap.Error(err))
	} else {
		for _, cr := range reviews {
			reviewed[cr.ScreeningID] = true
		}
	}

	out := make([]*Screening, 0, len(screenings))
	for _, sc := range screenings {
		if settled[sc.ID] && !reviewed[sc.ID] {
			out = append(out, sc)
		}
	}
	return out, nil
}
