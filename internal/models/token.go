package models

import "github.com/golang-jwt/jwt/v5"

// Identity is the payload a client presents at sign-in and receives back
// from a verified token. It is claimed by the client, not looked up. Claims
// beyond the named ones are carried in Extra and signed as sent.
type Identity struct {
	Email    string                 `json:"email" validate:"required,email"`
	Name     string                 `json:"name,omitempty"`
	PhotoURL string                 `json:"photoURL,omitempty"`
	Role     UserRole               `json:"role,omitempty" validate:"omitempty,oneof=student instructor admin"`
	Extra    map[string]interface{} `json:"-"`
}

var identityFields = fieldSet{
	"email":    kindString,
	"name":     kindString,
	"photoURL": kindString,
	"role":     kindString,
}

// RegisteredClaimNames are the JWT claims the token service owns.
var RegisteredClaimNames = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

type identityDocument Identity

func (i Identity) MarshalJSON() ([]byte, error) {
	return encodeJSONDocument(identityDocument(i), identityFields, i.Extra)
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	var doc identityDocument
	extra, err := decodeJSONDocument(data, identityFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = extra
	*i = Identity(doc)
	return nil
}

// IdentityClaims is the JWT body for access tokens.
type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

type claimsDocument struct {
	identityDocument
	jwt.RegisteredClaims
}

var claimFields = func() fieldSet {
	fields := fieldSet{}
	for name, kind := range identityFields {
		fields[name] = kind
	}
	for _, name := range RegisteredClaimNames {
		fields[name] = kindAny
	}
	return fields
}()

func (c IdentityClaims) MarshalJSON() ([]byte, error) {
	return encodeJSONDocument(claimsDocument{identityDocument(c.Identity), c.RegisteredClaims}, claimFields, c.Extra)
}

func (c *IdentityClaims) UnmarshalJSON(data []byte) error {
	var doc claimsDocument
	extra, err := decodeJSONDocument(data, claimFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = extra
	c.Identity = Identity(doc.identityDocument)
	c.RegisteredClaims = doc.RegisteredClaims
	return nil
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}
