// Package sms defines the contracts for sending SMS messages.
//
// Like the mail package, its purpose is to keep the rest of the application
// independent from a specific SMS provider. Use cases work with the SMS
// interface and Message payload; the concrete gateway lives in this package.
package sms
