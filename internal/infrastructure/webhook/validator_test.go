// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmeet/meeting-service/internal/domain"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	validator := NewSignatureValidator("test-secret")
	body := []byte(`{"type":"call.session_started"}`)

	t.Run("valid signature", func(t *testing.T) {
		err := validator.ValidateSignature(body, sign("test-secret", body))
		assert.NoError(t, err)
	})

	t.Run("missing signature", func(t *testing.T) {
		err := validator.ValidateSignature(body, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := validator.ValidateSignature(body, sign("other-secret", body))
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("tampered body", func(t *testing.T) {
		signature := sign("test-secret", body)
		err := validator.ValidateSignature([]byte(`{"type":"call.ended"}`), signature)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})
}
