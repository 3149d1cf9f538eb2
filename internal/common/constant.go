package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "podmate_session"

// MaxUploadSize is the largest document the ingestor accepts (10 MiB).
const MaxUploadSize int64 = 10 << 20
