// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/platform/sec"
)

func newTOTPService(t *testing.T) *sec.TOTPService {
	t.Helper()
	service, err := sec.NewTOTPService(testIssuer)
	require.NoError(t, err)
	return service
}

// generateCode mints a code for the secret at the given time, mirroring what
// an authenticator app would display.
func generateCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

/*
TestTOTPService_GenerateEnrollment checks the onboarding material: secret,
otpauth URI, and a rendered QR code.
*/
func TestTOTPService_GenerateEnrollment(t *testing.T) {
	service := newTOTPService(t)

	enrollment, err := service.GenerateEnrollment("ana@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.Secret)
	assert.True(t, strings.HasPrefix(enrollment.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, enrollment.ProvisioningURI, "domora.app:ana@example.com")
	assert.NotEmpty(t, enrollment.QRCodePNG)

	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, enrollment.QRCodePNG[:4])
}

/*
TestTOTPService_VerifyCode accepts the current code and codes from the
adjacent time-steps, and rejects everything further out.
*/
func TestTOTPService_VerifyCode(t *testing.T) {
	service := newTOTPService(t)

	enrollment, err := service.GenerateEnrollment("ana@example.com")
	require.NoError(t, err)

	now := time.Now().UTC()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"current_step", now, true},
		{"previous_step", now.Add(-30 * time.Second), true},
		{"next_step", now.Add(30 * time.Second), true},
		{"two_steps_behind", now.Add(-90 * time.Second), false},
		{"far_future", now.Add(10 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := generateCode(t, enrollment.Secret, tt.at)
			assert.Equal(t, tt.want, service.VerifyCode(enrollment.Secret, code))
		})
	}
}

/*
TestTOTPService_VerifyCode_Garbage rejects malformed codes and wrong secrets.
*/
func TestTOTPService_VerifyCode_Garbage(t *testing.T) {
	service := newTOTPService(t)

	enrollment, err := service.GenerateEnrollment("ana@example.com")
	require.NoError(t, err)

	assert.False(t, service.VerifyCode(enrollment.Secret, ""))
	assert.False(t, service.VerifyCode(enrollment.Secret, "abcdef"))

	// A code minted for a different secret never validates
	otherEnrollment, err := service.GenerateEnrollment("bob@example.com")
	require.NoError(t, err)
	foreignCode := generateCode(t, otherEnrollment.Secret, time.Now().UTC())
	assert.False(t, service.VerifyCode(enrollment.Secret, foreignCode))
}
