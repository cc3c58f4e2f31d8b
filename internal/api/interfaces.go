package api

import "github.com/parleyhq/parley/internal/domain"

// Handlers depend on the canonical service interfaces; the aliases keep
// handler signatures readable without re-declaring each contract.
type (
	// SessionRepository defines session operations used by SessionHandler.
	SessionRepository = domain.SessionService
	// RoundRepository defines round operations used by RoundHandler.
	RoundRepository = domain.RoundService
	// ChangeRepository defines change operations used by ChangeHandler.
	ChangeRepository = domain.ChangeService
	// AuditRepository defines audit operations used by AuditHandler.
	AuditRepository = domain.AuditService
	// StatsRepository defines aggregate reads used by StatsHandler.
	StatsRepository = domain.StatsService
)
