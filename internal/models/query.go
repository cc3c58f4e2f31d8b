package models

// ListSessionsOpts filters session listings.
type ListSessionsOpts struct {
	DocID  string
	Status SessionStatus
	Limit  int
	Offset int
}

// ListChangesOpts filters change listings within a session.
type ListChangesOpts struct {
	RoundID string
	Status  ChangeStatus
	Limit   int
	Offset  int
}
