package proposal

import (
	"context"
	"fmt"
	"slices"

	"github.com/Seednode/valentine/sink"
)

type Stage string

const (
	StageProposal    Stage = "proposal"
	StageQuiz        Stage = "quiz"
	StageCelebration Stage = "celebration"
	StageGift        Stage = "gift"
	StagePermission  Stage = "permission"
	StageCalculator  Stage = "calculator"
	StageSuccess     Stage = "success"
)

// Flow is the fixed stage order of one variant. The last stage is terminal.
type Flow []Stage

var (
	FlowClassic  = Flow{StageProposal, StageQuiz, StageCalculator}
	FlowKeepsake = Flow{StageProposal, StageCelebration, StageGift, StagePermission, StageSuccess}
	FlowFull     = Flow{StageProposal, StageQuiz, StageCelebration, StageGift, StagePermission, StageSuccess}
)

var variants = map[string]Flow{
	"classic":  FlowClassic,
	"keepsake": FlowKeepsake,
	"full":     FlowFull,
}

// Variants lists the accepted variant names.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func FlowFor(variant string) (Flow, error) {
	flow, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (want one of %v)", variant, Variants())
	}
	return flow, nil
}

func (f Flow) Has(s Stage) bool {
	return slices.Contains(f, s)
}

func (f Flow) Terminal() Stage {
	return f[len(f)-1]
}

// Successor reports the stage that follows s, if any.
func (f Flow) Successor(s Stage) (Stage, bool) {
	i := slices.Index(f, s)
	if i < 0 || i == len(f)-1 {
		return "", false
	}
	return f[i+1], true
}

// Sequencer owns the current stage and moves it strictly forward.
type Sequencer struct {
	flow    Flow
	sink    sink.Sink
	current Stage
	payload any
}

func NewSequencer(flow Flow, s sink.Sink) *Sequencer {
	if len(flow) == 0 {
		flow = FlowFull
	}

	return &Sequencer{flow: flow, sink: s}
}

func (s *Sequencer) Start() {
	s.current = s.flow[0]
	s.payload = nil
}

func (s *Sequencer) Current() Stage {
	return s.current
}

func (s *Sequencer) Flow() Flow {
	return s.flow
}

// Payload is whatever the last transition carried into the current stage.
func (s *Sequencer) Payload() any {
	return s.payload
}

// Next is the legal successor of the current stage, or "" at the end.
func (s *Sequencer) Next() Stage {
	next, _ := s.flow.Successor(s.current)
	return next
}

func (s *Sequencer) Terminal() bool {
	return s.current == s.flow.Terminal()
}

// Advance moves to target when it directly follows the current stage and
// reports whether it did. Any other target is ignored.
//
// Success is only entered with a sink.Submission and a sink to record it
// in; without either the call is ignored. The submission is recorded first,
// and if that fails the stage does not change and the sink's error is
// returned.
func (s *Sequencer) Advance(ctx context.Context, target Stage, payload any) (bool, error) {
	if target == "" || target != s.Next() {
		return false, nil
	}

	if target == StageSuccess {
		sub, ok := payload.(sink.Submission)
		if !ok || s.sink == nil {
			return false, nil
		}
		if err := s.sink.Submit(ctx, sub); err != nil {
			return false, err
		}
	}

	s.current = target
	s.payload = payload

	return true, nil
}
