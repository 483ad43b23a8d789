// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package webhook validates incoming video platform webhook requests.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/agentmeet/meeting-service/internal/domain"
)

// HeaderSignature is the request header carrying the webhook signature.
const HeaderSignature = "X-Signature"

// SignatureValidator validates webhook signatures using HMAC-SHA256 over the
// raw request body.
type SignatureValidator struct {
	secret []byte
}

// NewSignatureValidator creates a validator with the shared webhook secret.
func NewSignatureValidator(secret string) *SignatureValidator {
	return &SignatureValidator{secret: []byte(secret)}
}

// ValidateSignature verifies that the signature matches the HMAC-SHA256 hex
// digest of the body. The comparison is constant time.
func (v *SignatureValidator) ValidateSignature(body []byte, signature string) error {
	if signature == "" {
		return domain.NewUnauthorizedError("missing webhook signature")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.NewUnauthorizedError("invalid webhook signature")
	}

	return nil
}
