package internal

const (
	COOKIE_SESSION_NAME = "hse_session"
)
