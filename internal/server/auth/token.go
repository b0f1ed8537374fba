// Package auth defines the bearer token format
//
//	<decimal user id>.<lowercase hex signature>
//
// and the message a token signature covers. The token carries no expiry or
// claims: it stays valid exactly as long as the user's sign-in code and
// sign-out timestamp are unchanged.
package auth

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/democracy365/internal/common"
)

var ErrMalformedToken = errors.New("malformed token")

const bearerPrefix = "Bearer "

// SignedMessage builds the byte string a token signature covers: the domain
// tag, the sign-in code and the sign-out timestamp in Unix microseconds.
func SignedMessage(signinCode string, signoutTS time.Time) []byte {
	ts := strconv.FormatInt(signoutTS.UnixMicro(), 10)
	msg := make([]byte, 0, len(common.DomainTag)+len(signinCode)+len(ts))
	msg = append(msg, common.DomainTag...)
	msg = append(msg, signinCode...)
	msg = append(msg, ts...)
	return msg
}

// FormatToken renders a token from a user id and a raw signature.
func FormatToken(userID int64, sig []byte) string {
	return strconv.FormatInt(userID, 10) + common.TokenSeparator + hex.EncodeToString(sig)
}

// ParseToken splits a token into its user id and raw signature. Only the
// canonical form produced by FormatToken is accepted: exactly one
// separator, a positive user id without sign or leading zeros, and a
// non-empty, even-length, lowercase hex signature.
func ParseToken(token string) (int64, []byte, error) {
	if strings.Count(token, common.TokenSeparator) != 1 {
		return 0, nil, ErrMalformedToken
	}
	idPart, sigPart, _ := strings.Cut(token, common.TokenSeparator)

	if !isDigits(idPart) || idPart[0] == '0' {
		return 0, nil, ErrMalformedToken
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, nil, ErrMalformedToken
	}

	if len(sigPart) == 0 || len(sigPart)%2 != 0 || !isLowerHex(sigPart) {
		return 0, nil, ErrMalformedToken
	}
	sig, err := hex.DecodeString(sigPart)
	if err != nil {
		return 0, nil, ErrMalformedToken
	}

	return userID, sig, nil
}

// FromHeader extracts the token from an Authorization header value. The
// bare token is the documented form; a "Bearer " prefix is tolerated.
func FromHeader(value string) string {
	if v, ok := strings.CutPrefix(value, bearerPrefix); ok {
		return v
	}
	return value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
