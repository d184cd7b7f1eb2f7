package auth

import (
	"strconv"
	"strings"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

// CookieName is the session cookie for both admin and portal surfaces.
const CookieName = "vurmz_session"

// LegacyCookieNames are cleared on logout; they belong to credential
// schemes from before the sessions table existed.
var LegacyCookieNames = []string{"vurmz_admin", "vurmz_portal_token"}

type Credential struct {
	PrincipalID   int
	PrincipalType models.PrincipalType
	SessionID     string
}

// EncodeCredential produces the 3-part cookie value
// {principalId}:{principalType}:{sessionId}.
func EncodeCredential(c Credential) string {
	return strconv.Itoa(c.PrincipalID) + ":" + string(c.PrincipalType) + ":" + c.SessionID
}

// DecodeCredential parses the 3-part value, accepting the legacy
// 2-part {principalId}:{sessionId} form (principal type defaults to
// admin). The 2-part form is never newly issued.
func DecodeCredential(value string) (Credential, error) {
	parts := strings.Split(value, ":")
	switch len(parts) {
	case 3:
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return Credential{}, ErrBadCredential
		}
		pt := models.PrincipalType(parts[1])
		if !pt.Valid() {
			return Credential{}, ErrBadCredential
		}
		if parts[2] == "" {
			return Credential{}, ErrBadCredential
		}
		return Credential{PrincipalID: id, PrincipalType: pt, SessionID: parts[2]}, nil
	case 2:
		id, err := strconv.Atoi(parts[0])
		if err != nil || parts[1] == "" {
			return Credential{}, ErrBadCredential
		}
		return Credential{PrincipalID: id, PrincipalType: models.PrincipalAdmin, SessionID: parts[1]}, nil
	default:
		return Credential{}, ErrBadCredential
	}
}
