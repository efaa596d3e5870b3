// Package otp generates short-lived numeric one-time codes.
//
// Codes are drawn uniformly from crypto/rand and zero-padded to a fixed digit
// length when rendered for delivery (email/SMS).
package otp
