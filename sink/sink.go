/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package sink records a finished proposal somewhere durable.
package sink

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Submission is created once when the permission form is submitted and never
// modified afterwards.
type Submission struct {
	Person      string    `json:"person"`
	Accepted    bool      `json:"accepted"`
	GiftChoice  string    `json:"giftChoice"`
	CustomGift  string    `json:"customGift"`
	Signature   string    `json:"signature"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Gift is what the summary shows: the custom gift when there is one.
func (s Submission) Gift() string {
	if s.CustomGift != "" {
		return s.CustomGift
	}
	return s.GiftChoice
}

var (
	ErrMissingGift = &Error{
		Message: "Please choose a gift.",
		Err:     errors.New("gift choice is required"),
	}
	ErrMissingSignature = &Error{
		Message: "Please add your signature first.",
		Err:     errors.New("signature is required"),
	}
)

// Validate checks the fields every sink requires.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.GiftChoice) == "" {
		return ErrMissingGift
	}
	if ParseSignature(s.Signature).IsEmpty() {
		return ErrMissingSignature
	}
	return nil
}

type Sink interface {
	Submit(ctx context.Context, s Submission) error
}

// Error is a rejected or failed submission. Message is safe to show the
// user; Err is the cause for logs.
type Error struct {
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage picks the text to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return failedMessage
}
