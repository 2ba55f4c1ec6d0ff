// Package token decodes bearer tokens into their claim set so request
// handlers can resolve "which pool, which user". Decoding is deliberately
// unverified: signature verification, when a deployment needs it, must
// happen before or after this resolver using the pool's signing material.
package token

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	emuerrors "github.com/jrsteele09/go-cognito-emulator/internal/errors"
	"github.com/jrsteele09/go-cognito-emulator/internal/utils"
)

// TokenUse values carried in the token_use claim.
const (
	TokenUseAccess = "access"
	TokenUseID     = "id"
)

// Claims is the decoded claim set of a bearer token. Raw holds every claim
// for callers that need more than the standard surface.
type Claims struct {
	Sub      string
	ClientID string
	Username string
	TokenUse string
	Email    string
	Iss      string
	Groups   []string
	Exp      int64
	Iat      int64
	Raw      jwtlib.MapClaims
}

// HasIdentity reports whether the token carries both a subject and a client
// identifier. A structurally valid token missing either is "no identity",
// not an error; callers decide whether that is fatal for their operation.
func (c *Claims) HasIdentity() bool {
	return c.Sub != "" && c.ClientID != ""
}

// Decode extracts the claim set from a bearer token without verifying its
// signature. A token that yields no structured claims is an InvalidParameter
// condition.
func Decode(rawToken string) (*Claims, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, emuerrors.InvalidParameter("unable to decode token")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, emuerrors.InvalidParameter("token carries no structured claims")
	}

	exp, _ := mapClaims["exp"].(float64)
	iat, _ := mapClaims["iat"].(float64)

	var groups []string
	if claimGroups, ok := mapClaims["cognito:groups"].([]any); ok {
		groups = utils.ToStringSlice(claimGroups)
	}

	return &Claims{
		Sub:      utils.StringClaim(mapClaims, "sub"),
		ClientID: utils.StringClaim(mapClaims, "client_id"),
		Username: utils.StringClaim(mapClaims, "username"),
		TokenUse: utils.StringClaim(mapClaims, "token_use"),
		Email:    utils.StringClaim(mapClaims, "email"),
		Iss:      utils.StringClaim(mapClaims, "iss"),
		Groups:   groups,
		Exp:      int64(exp),
		Iat:      int64(iat),
		Raw:      mapClaims,
	}, nil
}
