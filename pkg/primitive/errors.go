package primitive

// domainError reports a parameter combination that has no valid
// geometric interpretation, raised during primitive construction rather
// than surfacing as a mid-trace panic or a silently degenerate surface.
type domainError string

func (e domainError) Error() string { return string(e) }

func errDomain(msg string) error { return domainError(msg) }
