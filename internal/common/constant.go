package common

import "time"

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "token"

// SessionTTL is the default lifetime of a session token and its cookie.
const SessionTTL = 7 * 24 * time.Hour

// MinPasswordLength is the shortest password accepted on signup.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// InvalidCredentialsMessage is returned for every failed login, regardless
// of whether the email exists.
const InvalidCredentialsMessage = "Invalid email or password"
