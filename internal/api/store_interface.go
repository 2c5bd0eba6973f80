package api

import "github.com/rezapearce/kiddyguard-solana-zcash/internal/services"

// Store is the full persistence surface shared by the services. Each service
// sees only its own narrow slice; Store exists so one backing implementation
// (sqlite in production, memory in tests) can be handed to all of them.
type Store interface {
	services.ScreeningStore
	services.SessionStore
	services.AnalysisStore
	services.PaymentStore
	services.ClinicStore
	services.ReviewStore
	services.AuthStore
}

var _ Store = (*MemoryStore)(nil)
