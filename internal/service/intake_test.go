package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bolao/api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

type intakeFixture struct {
	db      *memDB
	round   *models.Round
	matches []*models.Match
	tokens  *TokenService
	intake  *IntakeService
	token   string
}

func newIntakeFixture(t *testing.T, matchCount int, bypass bool) *intakeFixture {
	t.Helper()

	db := newMemDB()
	round := db.addRound(2025, 5, testNow.Add(72*time.Hour))

	var matches []*models.Match
	for i := 0; i < matchCount; i++ {
		matches = append(matches, db.addMatch(round.ID, testNow.Add(time.Duration(24+i)*time.Hour), models.StatusScheduled))
	}

	tokens := NewTokenService(fakeRounds{db}, fakeTokens{db})
	tokens.cost = bcrypt.MinCost
	tokens.now = func() time.Time { return testNow }

	intake := NewIntakeService(db.stores(), tokens, bypass)
	intake.now = func() time.Time { return testNow }

	f := &intakeFixture{db: db, round: round, matches: matches, tokens: tokens, intake: intake}
	if !bypass {
		issued, err := tokens.Issue(context.Background(), round.ID)
		require.NoError(t, err)
		f.token = issued.Token
	}
	return f
}

func (f *intakeFixture) request(name string) SubmissionRequest {
	req := SubmissionRequest{
		RoundID:         int64p(f.round.ID),
		ParticipantName: name,
		SubmissionToken: f.token,
	}
	for _, m := range f.matches {
		req.Predictions = append(req.Predictions, PickInput{MatchID: m.ID, Home: intp(2), Away: intp(1)})
	}
	return req
}

func TestSubmitPersistsUnscoredPredictions(t *testing.T) {
	f := newIntakeFixture(t, 3, false)
	ctx := context.Background()

	res, err := f.intake.Submit(ctx, f.request("  Ana "))
	require.NoError(t, err)
	assert.Equal(t, f.round.ID, res.RoundID)
	assert.Equal(t, "Ana", res.ParticipantName)
	assert.Equal(t, 3, res.Count)

	rows := f.db.predictionsOf(f.round.ID)
	require.Len(t, rows, 3)
	for _, p := range rows {
		assert.Equal(t, "Ana", p.ParticipantName)
		assert.Zero(t, p.Points)
	}
}

func TestSubmitRejectsReusedName(t *testing.T) {
	f := newIntakeFixture(t, 3, false)
	ctx := context.Background()

	_, err := f.intake.Submit(ctx, f.request("Ana"))
	require.NoError(t, err)

	_, err = f.intake.Submit(ctx, f.request("Ana"))
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Len(t, f.db.predictionsOf(f.round.ID), 3)
}

func TestSubmitLockedMatchRejectsWholeBatch(t *testing.T) {
	f := newIntakeFixture(t, 10, false)
	f.matches[4].KickoffAt = testNow.Add(-time.Minute)

	_, err := f.intake.Submit(context.Background(), f.request("Ana"))
	require.Error(t, err)
	assert.Equal(t, KindLocked, KindOf(err))
	assert.Equal(t, "One or more matches already started", err.Error())
	assert.Empty(t, f.db.predictionsOf(f.round.ID))
}

func TestSubmitNonSchedulableStatusLocks(t *testing.T) {
	f := newIntakeFixture(t, 2, false)
	f.matches[1].Status = models.StatusPostponed

	_, err := f.intake.Submit(context.Background(), f.request("Ana"))
	assert.Equal(t, KindLocked, KindOf(err))
}

func TestSubmitMatchFromOtherRound(t *testing.T) {
	f := newIntakeFixture(t, 2, false)
	other := f.db.addRound(2025, 6, testNow.Add(200*time.Hour))
	stray := f.db.addMatch(other.ID, testNow.Add(100*time.Hour), models.StatusScheduled)

	req := f.request("Ana")
	req.Predictions = append(req.Predictions, PickInput{MatchID: stray.ID, Home: intp(0), Away: intp(0)})

	_, err := f.intake.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "One or more matches are invalid for this round", err.Error())
}

func TestSubmitInvalidPayloads(t *testing.T) {
	f := newIntakeFixture(t, 2, false)

	tests := []struct {
		name   string
		mutate func(*SubmissionRequest)
	}{
		{"short name", func(r *SubmissionRequest) { r.ParticipantName = " A " }},
		{"no predictions", func(r *SubmissionRequest) { r.Predictions = nil }},
		{"negative score", func(r *SubmissionRequest) { r.Predictions[0].Home = intp(-1) }},
		{"missing score", func(r *SubmissionRequest) { r.Predictions[1].Away = nil }},
		{"duplicate match", func(r *SubmissionRequest) { r.Predictions[1].MatchID = r.Predictions[0].MatchID }},
		{"zero match id", func(r *SubmissionRequest) { r.Predictions[0].MatchID = 0 }},
		{"negative round", func(r *SubmissionRequest) { r.RoundID = int64p(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request("Ana")
			tt.mutate(&req)

			_, err := f.intake.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, "Invalid payload", err.Error())
		})
	}
	assert.Empty(t, f.db.predictions)
}

func TestSubmitResolvesRoundFromFirstMatch(t *testing.T) {
	f := newIntakeFixture(t, 2, false)
	req := f.request("Bruno")
	req.RoundID = nil

	res, err := f.intake.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, f.round.ID, res.RoundID)
}

func TestSubmitUnknownRound(t *testing.T) {
	f := newIntakeFixture(t, 1, false)
	req := f.request("Ana")
	req.RoundID = int64p(9999)

	_, err := f.intake.Submit(context.Background(), req)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Round not found", err.Error())
}

func TestSubmitTokenChecks(t *testing.T) {
	f := newIntakeFixture(t, 1, false)
	ctx := context.Background()

	req := f.request("Ana")
	req.SubmissionToken = "short"
	_, err := f.intake.Submit(ctx, req)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "Submission token required", err.Error())

	req.SubmissionToken = "definitely-not-the-token"
	_, err = f.intake.Submit(ctx, req)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.True(t, errors.Is(err, ErrTokenMismatch))

	assert.Empty(t, f.db.predictions)
}

func TestSubmitBypassSkipsToken(t *testing.T) {
	f := newIntakeFixture(t, 2, true)
	req := f.request("Ana")
	req.SubmissionToken = ""

	res, err := f.intake.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestSubmitRollsBackMarkerOnInsertFailure(t *testing.T) {
	f := newIntakeFixture(t, 3, false)
	f.db.failInsert = errors.New("connection reset")

	_, err := f.intake.Submit(context.Background(), f.request("Ana"))
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Empty(t, f.db.predictions)
	assert.Empty(t, f.db.submissions)

	f.db.failInsert = nil
	_, err = f.intake.Submit(context.Background(), f.request("Ana"))
	require.NoError(t, err)
}
