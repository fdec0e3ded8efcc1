// Package oauthflow implements the connect/callback protocol shared by every
// platform: state generation, the authorization redirect, callback
// validation and the hand-off of the code to the gateway.
package oauthflow

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const stateBytes = 24

// GenerateState returns a random base64url string bound to one connection attempt
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
