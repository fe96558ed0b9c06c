package common

// Session attribute keys written on login and read on verification.
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUserName = "user_name"
)

// SessionCookieName is the default cookie carrying the session id.
const SessionCookieName = "omniguard_session"
