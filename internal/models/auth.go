package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims is the JWT payload for device tokens. A valid token gates the
// history and export routes; the device ID identifies the caller in logs and
// token audits.
type AuthClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}
