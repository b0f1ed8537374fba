// Package common contains shared constants and the tagged error kinds used
// across democracy365 components.
package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token
// in the form "<userId>.<hexSignature>".
const AuthorizationHeaderName = "Authorization"

// TokenSeparator splits the user id from the hex signature in a bearer token.
// It never appears in the decimal representation of a user id.
const TokenSeparator = "."

// DomainTag prefixes every signed message so a signature issued for a bearer
// token cannot be replayed in another protocol using the same key.
const DomainTag = "democracy365"
