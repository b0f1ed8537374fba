package models

import "time"

// User is a row of sandbox.users as seen by the sign-in flow.
type User struct {
	ID           int64
	EmailAddress string
	SigninCode   string
}

// Credentials are the two mutable fields a bearer token is bound to.
// Changing either one invalidates every token minted before the change.
type Credentials struct {
	SigninCode string
	SignoutTS  time.Time
}

// Row is one result row of a read operation, keyed by column name.
type Row map[string]any
