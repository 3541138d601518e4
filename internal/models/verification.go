package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationChallenge is a pending one-time code bound to a phone number
type VerificationChallenge struct {
	Address     string    `json:"address"`
	Code        string    `json:"-"`
	DisplayName string    `json:"display_name"`
	Asset       string    `json:"asset,omitempty"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the challenge expiry has elapsed at now
func (c *VerificationChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// VerificationResult is the outcome of a store check
type VerificationResult string

const (
	VerificationVerified        VerificationResult = "verified"
	VerificationNotFound        VerificationResult = "not_found"
	VerificationExpired         VerificationResult = "expired"
	VerificationMismatch        VerificationResult = "mismatch"
	VerificationTooManyAttempts VerificationResult = "too_many_attempts"
)

// DownloadLogEntry records that a verified user obtained a gated asset
type DownloadLogEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone" json:"phone"`
	Asset        string             `bson:"asset,omitempty" json:"asset,omitempty"`
	DownloadedAt time.Time          `bson:"downloaded_at" json:"downloaded_at"`
}

// IssueCodeRequest asks for a verification code to be sent
type IssueCodeRequest struct {
	Address     string `json:"address" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Asset       string `json:"asset"`
}

// IssueCodeResponse is returned after a code is issued
type IssueCodeResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
	Channel   string    `json:"channel,omitempty"`
	// DebugCode is only filled outside production when no channel delivered
	DebugCode string `json:"debug_code,omitempty"`
}

// VerifyCodeRequest submits a received code
type VerifyCodeRequest struct {
	Address string `json:"address" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// VerifyCodeResponse is returned on successful verification
type VerifyCodeResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
	Asset    string `json:"asset,omitempty"`
}
