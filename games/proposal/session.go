/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package proposal holds the state of one proposal: which stage is showing,
// where the decline button has run off to, quiz progress and the final
// submission.
package proposal

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/Seednode/valentine/sink"
)

const (
	DefaultPerson = "Sweetheart"

	otherPrefix = "Other"

	timerQuiz        = "quiz.reaction"
	timerCalcTick    = "calculator.tick"
	timerCalcReveal  = "calculator.reveal"
	timerCalcStep    = "calculator.step"
	fallbackViewport = 1200
)

var DefaultGifts = []string{
	"Jewelry set",
	"Skincare hamper",
	"Chocolate bouquet",
	"Perfume gift box",
	"Other (I'll tell you what I want)",
}

var (
	ErrNoGift          = sink.ErrMissingGift
	ErrEmptyCustomGift = &sink.Error{
		Message: "Please tell me which gift you'd like.",
		Err:     errors.New("custom gift is required"),
	}
	ErrEmptySignature = sink.ErrMissingSignature
)

// IsOther reports whether gift asks for a write-in.
func IsOther(gift string) bool {
	return strings.HasPrefix(gift, otherPrefix)
}

type Options struct {
	Person          string
	Flow            Flow
	Jitter          JitterRange
	Teases          []Message
	Questions       []Question
	Gifts           []string
	LoadingMessages []string

	Sink sink.Sink
	Rand Rand

	// Clock and Dispatch drive the reaction and calculator timers.
	// Dispatch must run its argument under whatever serializes access to
	// the session.
	Clock    Clock
	Dispatch func(func())

	// OnChange is called when state changes without a user action, and
	// just before a submission is handed to the sink.
	OnChange func()

	Now func() time.Time
}

type GiftChoice struct {
	Choice string `json:"choice"`
	Other  string `json:"other,omitempty"`
}

// Session is owned by exactly one controller; it is not safe for
// concurrent use.
type Session struct {
	opts Options

	seq       *Sequencer
	positions *Positioner
	rotation  *Rotation
	timers    *Timers

	viewport Viewport
	decline  Position
	message  *Message
	evaded   bool

	quiz  *Quiz
	calc  *Calculator
	score int

	gift           GiftChoice
	giftError      string
	signatureError string
	submitError    string
	submitting     bool
	submission     *sink.Submission
}

func NewSession(opts Options) *Session {
	if opts.Person == "" {
		opts.Person = DefaultPerson
	}
	if len(opts.Flow) == 0 {
		opts.Flow = FlowFull
	}
	if opts.Jitter == (JitterRange{}) {
		opts.Jitter = DefaultJitter
	}
	if len(opts.Gifts) == 0 {
		opts.Gifts = DefaultGifts
	}
	if opts.Rand == nil {
		opts.Rand = DefaultRand
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		opts:      opts,
		seq:       NewSequencer(opts.Flow, opts.Sink),
		positions: NewPositioner(opts.Rand),
		rotation:  NewRotation(opts.Teases),
		timers:    NewTimers(opts.Clock, opts.Dispatch),
		viewport:  Viewport{Width: fallbackViewport, Height: fallbackViewport * 2 / 3},
	}
}

// Start puts the session on its first stage.
func (s *Session) Start() {
	s.seq.Start()
	s.decline = s.positions.Initial(s.viewport)
	s.enter(s.seq.Current())
}

func (s *Session) Stage() Stage {
	return s.seq.Current()
}

func (s *Session) Close() {
	s.timers.CancelAll()
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

// advance moves to the next stage and sets it up. Only the submission path
// can produce an error.
func (s *Session) advance(ctx context.Context, payload any) (bool, error) {
	ok, err := s.seq.Advance(ctx, s.seq.Next(), payload)
	if !ok || err != nil {
		return false, err
	}

	s.enter(s.seq.Current())

	return true, nil
}

func (s *Session) enter(stage Stage) {
	s.timers.CancelAll()

	switch stage {
	case StageQuiz:
		s.quiz = NewQuiz(s.opts.Questions, s.opts.Rand)
	case StageCalculator:
		s.calc = NewCalculator(s.opts.LoadingMessages)
		s.scheduleTick()
		s.timers.After(timerCalcReveal, CalculatorReveal, s.reveal)
	}
}

// Resize records a new viewport and puts the decline button back at its
// starting spot within it.
func (s *Session) Resize(v Viewport) bool {
	if v.Width <= 0 || v.Height <= 0 {
		return false
	}

	s.viewport = v
	s.decline = s.positions.Initial(v)

	return true
}

// Decline moves the decline button out of reach and shows the next tease.
func (s *Session) Decline() bool {
	return s.DeclineIn(s.viewport)
}

// DeclineIn is Decline as seen on one screen: the jump is measured and
// clamped against v, the viewport of whoever tried to press the button.
// Other screens clamp the shared position into their own viewport with
// Positioner.Clamp.
func (s *Session) DeclineIn(v Viewport) bool {
	if s.Stage() != StageProposal {
		return false
	}

	if v.Width > 0 && v.Height > 0 {
		s.viewport = v
	}

	s.decline = s.positions.Next(s.viewport, s.decline, s.opts.Jitter)
	m := s.rotation.Advance()
	s.message = &m
	s.evaded = true

	return true
}

func (s *Session) Accept() bool {
	if s.Stage() != StageProposal {
		return false
	}

	ok, _ := s.advance(context.Background(), nil)

	return ok
}

func (s *Session) Answer(option int) bool {
	if s.Stage() != StageQuiz {
		return false
	}

	_, delay, ok := s.quiz.Answer(option)
	if !ok {
		return false
	}

	s.timers.After(timerQuiz, delay, s.settleQuiz)

	return true
}

func (s *Session) settleQuiz() {
	finished, score := s.quiz.Settle()
	if finished {
		s.score = score
		s.advance(context.Background(), score)
	}

	s.changed()
}

func (s *Session) scheduleTick() {
	s.timers.After(timerCalcTick, CalculatorTick, func() {
		s.calc.Tick()
		s.scheduleTick()
		s.changed()
	})
}

func (s *Session) reveal() {
	s.timers.Cancel(timerCalcTick)
	s.calc.Reveal()
	s.step()
}

func (s *Session) step() {
	if s.calc.Step() {
		s.timers.After(timerCalcStep, CalculatorStep, s.step)
	}

	s.changed()
}

// Continue leaves the celebration screen.
func (s *Session) Continue() bool {
	if s.Stage() != StageCelebration {
		return false
	}

	ok, _ := s.advance(context.Background(), nil)

	return ok
}

// ChooseGift validates the gift form and moves on when it is complete.
func (s *Session) ChooseGift(choice, other string) error {
	if s.Stage() != StageGift {
		return nil
	}

	s.gift = GiftChoice{Choice: choice, Other: other}

	var err error
	switch {
	case !slices.Contains(s.opts.Gifts, choice):
		err = ErrNoGift
	case IsOther(choice) && strings.TrimSpace(other) == "":
		err = ErrEmptyCustomGift
	}
	if err != nil {
		s.giftError = sink.UserMessage(err)
		return err
	}

	s.giftError = ""
	s.advance(context.Background(), s.gift)

	return nil
}

func (s *Session) ClearSignature() {
	if s.Stage() == StagePermission {
		s.signatureError = ""
	}
}

// SubmitPermission builds the submission and hands it to the sequencer,
// which records it before moving to the final stage. On failure the session
// stays put with the error on display and the form can be sent again.
func (s *Session) SubmitPermission(ctx context.Context, signature string) error {
	if s.Stage() != StagePermission || s.submitting {
		return nil
	}

	s.submitError = ""

	sig := sink.ParseSignature(signature)
	if sig.IsEmpty() {
		s.signatureError = sink.UserMessage(ErrEmptySignature)
		return ErrEmptySignature
	}
	s.signatureError = ""

	sub := sink.Submission{
		Person:      s.opts.Person,
		Accepted:    true,
		GiftChoice:  s.gift.Choice,
		Signature:   sig.String(),
		SubmittedAt: s.opts.Now().UTC(),
	}
	if IsOther(s.gift.Choice) {
		sub.CustomGift = strings.TrimSpace(s.gift.Other)
	}

	s.submitting = true
	s.changed()

	ok, err := s.advance(ctx, sub)
	s.submitting = false

	if err != nil {
		s.submitError = sink.UserMessage(err)
		return err
	}
	if ok {
		s.submission = &sub
	}

	return nil
}
