package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

var errMissingClaims = errors.New("access token is missing required claims")

// requestActor pulls the authenticated user and company out of the
// verified token. AuthRequired already rejected unauthenticated
// requests, so a failure here means a malformed token.
func requestActor(r *http.Request) (userID string, companyID string, err error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", errMissingClaims
	}
	companyID, ok = claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", errMissingClaims
	}

	return userID, companyID, nil
}
