package round

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, parse Parser) (*Session, *recordingRecorder) {
	t.Helper()
	rec := &recordingRecorder{}
	dir := sampleDirectory()
	e := NewEmitter(testLogger(), "game", rec, dir)
	return NewSession(testLogger(), DefaultRules(), e, NewNormalizer(parse), dir), rec
}

func TestSessionAutoCompletesAndEmits(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, nil)

	em, err := s.SetPoint(ctx, A, 5)
	require.NoError(t, err)
	assert.Nil(t, em)
	em, err = s.SetPoint(ctx, B, -5)
	require.NoError(t, err)
	assert.Nil(t, em)
	assert.False(t, s.CanSubmit())

	em, err = s.SetPoint(ctx, C, 10)
	require.NoError(t, err)
	require.NotNil(t, em)

	assert.Equal(t, Round{5, -5, 10, -10}, em.Round)
	assert.Equal(t, SourceEntry, em.Source)
	assert.Equal(t, []Round{{5, -5, 10, -10}}, rec.rounds())
	assert.True(t, s.Partial().IsEmpty())
}

func TestSessionAllZeroStaysOpen(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, nil)

	for _, k := range []PlayerKey{A, B, C} {
		em, err := s.SetPoint(ctx, k, 0)
		require.NoError(t, err)
		assert.Nil(t, em)
	}

	assert.Equal(t, partialOf(ip(0), ip(0), ip(0), ip(0)), s.Partial())
	assert.False(t, s.CanSubmit())
	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, ErrDegenerateRound)
	assert.Empty(t, rec.rounds())
}

func TestSessionWhiteWinBypassesEntry(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, nil)

	_, err := s.SetPoint(ctx, B, 4)
	require.NoError(t, err)

	em, err := s.SetPoint(ctx, A, 39)
	require.NoError(t, err)
	require.NotNil(t, em)

	assert.Equal(t, Round{39, -13, -13, -13}, em.Round)
	assert.Equal(t, SourceWhiteWin, em.Source)
	assert.Equal(t, []Round{{39, -13, -13, -13}}, rec.rounds())
	assert.True(t, s.Partial().IsEmpty())
}

func TestSessionWhiteWinDirect(t *testing.T) {
	s, _ := newTestSession(t, nil)

	em, err := s.WhiteWin(context.Background(), D)
	require.NoError(t, err)
	assert.Equal(t, Round{-13, -13, -13, 39}, em.Round)
	assert.Equal(t, D, em.Winner)
}

func TestSessionShorthandEmits(t *testing.T) {
	s, rec := newTestSession(t, fixedParser(partialOf(ip(5), ip(-5), ip(0), nil), true))

	em, ok, err := s.Shorthand(context.Background(), "an 5 binh -5 chi 0")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, em)

	assert.Equal(t, Round{-5, 5, 0, 0}, em.Round)
	assert.Equal(t, SourceShorthand, em.Source)
	assert.Equal(t, []Round{{-5, 5, 0, 0}}, rec.rounds())
	assert.True(t, s.Partial().IsEmpty())
}

func TestSessionShorthandPartial(t *testing.T) {
	s, rec := newTestSession(t, fixedParser(partialOf(ip(5), nil, nil, ip(2)), true))

	em, ok, err := s.Shorthand(context.Background(), "an 5 dung 2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, em)
	assert.Equal(t, partialOf(ip(-5), nil, nil, ip(-2)), s.Partial())
	assert.Empty(t, rec.rounds())
}

func TestSessionShorthandUnparsedIsNoop(t *testing.T) {
	s, _ := newTestSession(t, fixedParser(PartialRound{}, false))
	_, err := s.SetPoint(context.Background(), A, 3)
	require.NoError(t, err)

	em, ok, err := s.Shorthand(context.Background(), "???")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, em)
	assert.Equal(t, partialOf(ip(3), nil, nil, nil), s.Partial())
}

func TestSessionSubmit(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, nil)

	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, ErrIncompleteRound)

	s.partial = partialOf(ip(1), ip(2), ip(3), ip(-6))
	assert.True(t, s.CanSubmit())
	em, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSubmit, em.Source)
	assert.Equal(t, []Round{{1, 2, 3, -6}}, rec.rounds())

	s.partial = partialOf(ip(1), ip(2), ip(3), ip(-5))
	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrUnbalancedRound)
	assert.Equal(t, partialOf(ip(1), ip(2), ip(3), ip(-5)), s.Partial())
}

func TestSessionClearPoint(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.SetPoint(context.Background(), A, 3)
	require.NoError(t, err)

	s.ClearPoint(A)
	assert.True(t, s.Partial().IsEmpty())
}

func TestSessionResetsEvenWhenRecordFails(t *testing.T) {
	rec := &recordingRecorder{err: errBoom}
	e := NewEmitter(testLogger(), "game", rec, sampleDirectory())
	s := NewSession(testLogger(), DefaultRules(), e, nil, sampleDirectory())
	ctx := context.Background()

	_, err := s.SetPoint(ctx, A, 5)
	require.NoError(t, err)
	_, err = s.SetPoint(ctx, B, -5)
	require.NoError(t, err)
	_, err = s.SetPoint(ctx, C, 1)
	require.ErrorIs(t, err, errBoom)

	assert.True(t, s.Partial().IsEmpty())
}

func TestSessionRejectsInvalidKey(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.SetPoint(context.Background(), PlayerKey(9), 1)
	assert.Error(t, err)
}
