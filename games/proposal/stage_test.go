package proposal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/valentine/sink"
)

func TestFlowFor(t *testing.T) {
	flow, err := FlowFor("classic")
	require.NoError(t, err)
	assert.Equal(t, StageCalculator, flow.Terminal())

	flow, err = FlowFor("full")
	require.NoError(t, err)
	assert.Equal(t, StageSuccess, flow.Terminal())
	assert.True(t, flow.Has(StageQuiz))

	_, err = FlowFor("director's cut")
	assert.Error(t, err)

	assert.Equal(t, []string{"classic", "full", "keepsake"}, Variants())
}

func TestSequencerStartsAtProposal(t *testing.T) {
	for _, flow := range []Flow{FlowClassic, FlowKeepsake, FlowFull} {
		s := NewSequencer(flow, nil)
		s.Start()
		assert.Equal(t, StageProposal, s.Current())
		assert.Nil(t, s.Payload())
	}
}

func TestSequencerRejectsNonAdjacent(t *testing.T) {
	s := NewSequencer(FlowFull, nil)
	s.Start()
	ctx := context.Background()

	for _, target := range []Stage{StageProposal, StageGift, StageSuccess, StageCalculator, ""} {
		ok, err := s.Advance(ctx, target, nil)
		assert.NoError(t, err)
		assert.False(t, ok, "advance to %q", target)
		assert.Equal(t, StageProposal, s.Current())
	}

	ok, err := s.Advance(ctx, StageQuiz, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// No going back.
	ok, _ = s.Advance(ctx, StageProposal, nil)
	assert.False(t, ok)
	assert.Equal(t, StageQuiz, s.Current())
}

func TestSequencerThreadsPayload(t *testing.T) {
	s := NewSequencer(FlowClassic, nil)
	s.Start()
	ctx := context.Background()

	_, _ = s.Advance(ctx, StageQuiz, nil)
	ok, err := s.Advance(ctx, StageCalculator, 3)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 3, s.Payload())
	assert.True(t, s.Terminal())
	assert.Equal(t, Stage(""), s.Next())

	ok, _ = s.Advance(ctx, StageCalculator, 4)
	assert.False(t, ok, "terminal stage is never left")
}

func walkToPermission(t *testing.T, s *Sequencer) {
	t.Helper()

	ctx := context.Background()
	for s.Next() != StageSuccess {
		ok, err := s.Advance(ctx, s.Next(), nil)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestSequencerRecordsBeforeSuccess(t *testing.T) {
	rec := &recordingSink{}
	s := NewSequencer(FlowKeepsake, rec)
	s.Start()
	walkToPermission(t, s)

	sub := sink.Submission{Person: "Sam", Accepted: true, GiftChoice: "Jewelry set", Signature: "mom"}
	ok, err := s.Advance(context.Background(), StageSuccess, sub)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, StageSuccess, s.Current())
	require.Len(t, rec.saved, 1)
	assert.Equal(t, sub, rec.saved[0])
}

func TestSequencerHoldsOnSinkFailure(t *testing.T) {
	rec := &recordingSink{err: &sink.Error{Message: "Submission failed."}}
	s := NewSequencer(FlowKeepsake, rec)
	s.Start()
	walkToPermission(t, s)

	ok, err := s.Advance(context.Background(), StageSuccess, sink.Submission{GiftChoice: "Jewelry set"})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Submission failed.", err.Error())
	assert.Equal(t, StagePermission, s.Current())
	assert.Empty(t, rec.saved)
}

func TestSequencerSuccessNeedsRecordedSubmission(t *testing.T) {
	ctx := context.Background()

	rec := &recordingSink{}
	s := NewSequencer(FlowKeepsake, rec)
	s.Start()
	walkToPermission(t, s)

	for _, payload := range []any{nil, "signed", &sink.Submission{GiftChoice: "Jewelry set"}} {
		ok, err := s.Advance(ctx, StageSuccess, payload)
		require.NoError(t, err)
		assert.False(t, ok, "payload %#v", payload)
		assert.Equal(t, StagePermission, s.Current())
	}
	assert.Zero(t, rec.calls)

	noSink := NewSequencer(FlowKeepsake, nil)
	noSink.Start()
	walkToPermission(t, noSink)

	ok, err := noSink.Advance(ctx, StageSuccess, sink.Submission{GiftChoice: "Jewelry set"})
	require.NoError(t, err)
	assert.False(t, ok, "nothing to record into")
	assert.Equal(t, StagePermission, noSink.Current())
}
