package session

// Decision is the access guard's verdict for one protected-content entry.
type Decision struct {
	Allow          bool
	RedirectTarget string
}

// Decide is the pure gate policy: authenticated sessions pass, everything
// else is sent to the login entry point. The HTTP layer is only a thin
// adapter over this, see the guard middleware.
func Decide(snap Snapshot, loginPath string) Decision {
	if snap.IsAuthenticated && snap.Identity != nil {
		return Decision{Allow: true}
	}
	return Decision{
		RedirectTarget: loginPath,
	}
}
