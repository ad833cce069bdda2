// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package sec

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// # Second Factor (TOTP)

const (
	// totpPeriod is the time-step size in seconds (RFC 6238 default).
	totpPeriod = 30

	// totpSkew is how many adjacent time-steps are accepted in each
	// direction to tolerate client clock drift.
	totpSkew = 1

	// totpQRSize is the pixel edge length of the rendered provisioning QR code.
	totpQRSize = 256
)

// TOTPEnrollment carries everything a client needs to onboard an authenticator app.
type TOTPEnrollment struct {
	// Secret is the base32-encoded shared secret to persist server-side.
	Secret string `json:"secret"`

	// ProvisioningURI is the otpauth:// URI for manual entry.
	ProvisioningURI string `json:"provisioning_uri"`

	// QRCodePNG is the provisioning URI rendered as a scannable PNG image.
	QRCodePNG []byte `json:"qr_code_png"`
}

// TOTPService generates and verifies time-based one-time codes.
type TOTPService struct {
	issuer string
}

// NewTOTPService creates a new TOTPService. The issuer appears as the
// account label prefix in authenticator apps.
func NewTOTPService(issuer string) (*TOTPService, error) {
	if issuer == "" {
		return nil, errors.New("sec: totp issuer must not be empty")
	}
	return &TOTPService{issuer: issuer}, nil
}

/*
GenerateEnrollment creates a fresh random shared secret plus onboarding material.

Parameters:
  - accountName: string (the user's email, shown in the authenticator app)

Returns:
  - *TOTPEnrollment: Secret, otpauth URI, and QR code PNG
  - error: Secret generation or image rendering failures
*/
func (service *TOTPService) GenerateEnrollment(accountName string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      service.issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}

	// Render the provisioning URI as a scannable QR image. Purely onboarding
	// UX; verification never touches it.
	image, err := key.Image(totpQRSize, totpQRSize)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to render totp qr image: %w", err)
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, image); err != nil {
		return nil, fmt.Errorf("sec: failed to encode totp qr png: %w", err)
	}

	return &TOTPEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodePNG:       buffer.Bytes(),
	}, nil
}

/*
VerifyCode checks a submitted code against the current time-step and one
adjacent step in each direction.

Parameters:
  - secret: string (the account's stored base32 shared secret)
  - submittedCode: string

Returns:
  - bool: true only if the code matches inside the skew window
*/
func (service *TOTPService) VerifyCode(secret, submittedCode string) bool {
	valid, err := totp.ValidateCustom(submittedCode, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
