package common

import "time"

// SessionCookieName is the cookie that carries the opaque session token.
const SessionCookieName = "session_id"

// SessionMaxAge is the lifetime of a session and of its cookie.
const SessionMaxAge = 30 * 24 * time.Hour

// MaxUploadBytes is the largest accepted audio upload (1 GiB).
const MaxUploadBytes int64 = 1 << 30
