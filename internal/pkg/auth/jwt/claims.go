package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims issued by the server.
// It includes standard claims required by the JWT specification and the user identifier
// necessary for authorizing both REST requests and realtime sessions.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the account identifier the token was issued for.
	UserID int64 `json:"uid"`
}
