package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"bolao/api/internal/models"
	"bolao/api/internal/repository"
)

type participantKey struct {
	roundID int64
	name    string
}

// memDB is an in-memory store with the same uniqueness and transaction
// behaviour the services rely on from PostgreSQL
type memDB struct {
	rounds      map[int64]*models.Round
	matches     map[int64]*models.Match
	predictions []*models.Prediction
	scores      map[participantKey]int
	submissions map[participantKey]bool
	tokens      map[int64]*models.SubmissionToken
	nextID      int64

	// failInsert makes InsertPredictions fail after inserting its rows
	failInsert error
}

func newMemDB() *memDB {
	return &memDB{
		rounds:      make(map[int64]*models.Round),
		matches:     make(map[int64]*models.Match),
		scores:      make(map[participantKey]int),
		submissions: make(map[participantKey]bool),
		tokens:      make(map[int64]*models.SubmissionToken),
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) stores() Stores {
	return Stores{
		Rounds:      fakeRounds{db},
		Matches:     fakeMatches{db},
		Predictions: fakePredictions{db},
		Tokens:      fakeTokens{db},
		Tx:          db,
	}
}

func (db *memDB) addRound(season, number int, cutoff time.Time) *models.Round {
	r := &models.Round{ID: db.id(), Season: season, RoundNumber: number, CutoffAt: cutoff}
	db.rounds[r.ID] = r
	return r
}

func (db *memDB) addMatch(roundID int64, kickoff time.Time, status string) *models.Match {
	m := &models.Match{
		ID:         db.id(),
		RoundID:    roundID,
		ExternalID: 1000 + db.nextID,
		KickoffAt:  kickoff,
		Status:     status,
		HomeTeam:   "Home",
		AwayTeam:   "Away",
	}
	db.matches[m.ID] = m
	return m
}

func (db *memDB) predictionsOf(roundID int64) []*models.Prediction {
	var out []*models.Prediction
	for _, p := range db.predictions {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}
	return out
}

type memSnapshot struct {
	rounds      map[int64]models.Round
	matches     map[int64]models.Match
	predictions []models.Prediction
	scores      map[participantKey]int
	submissions map[participantKey]bool
	nextID      int64
}

func (db *memDB) snapshot() memSnapshot {
	s := memSnapshot{
		rounds:      make(map[int64]models.Round, len(db.rounds)),
		matches:     make(map[int64]models.Match, len(db.matches)),
		scores:      make(map[participantKey]int, len(db.scores)),
		submissions: make(map[participantKey]bool, len(db.submissions)),
		nextID:      db.nextID,
	}
	for k, v := range db.rounds {
		s.rounds[k] = *v
	}
	for k, v := range db.matches {
		s.matches[k] = *v
	}
	for _, p := range db.predictions {
		s.predictions = append(s.predictions, *p)
	}
	for k, v := range db.scores {
		s.scores[k] = v
	}
	for k, v := range db.submissions {
		s.submissions[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.rounds = make(map[int64]*models.Round, len(s.rounds))
	for k, v := range s.rounds {
		v := v
		db.rounds[k] = &v
	}
	db.matches = make(map[int64]*models.Match, len(s.matches))
	for k, v := range s.matches {
		v := v
		db.matches[k] = &v
	}
	db.predictions = nil
	for _, p := range s.predictions {
		p := p
		db.predictions = append(db.predictions, &p)
	}
	db.scores = s.scores
	db.submissions = s.submissions
	db.nextID = s.nextID
}

// InTx rolls every change back when fn fails
func (db *memDB) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	snap := db.snapshot()
	if err := fn(db); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) CreateSubmission(ctx context.Context, roundID int64, name string) error {
	key := participantKey{roundID, name}
	if db.submissions[key] {
		return repository.ErrConflict
	}
	db.submissions[key] = true
	return nil
}

func (db *memDB) InsertPredictions(ctx context.Context, preds []*models.Prediction) error {
	for _, p := range preds {
		for _, existing := range db.predictions {
			if existing.RoundID == p.RoundID && existing.MatchID == p.MatchID && existing.ParticipantName == p.ParticipantName {
				return repository.ErrConflict
			}
		}
		p.ID = db.id()
		db.predictions = append(db.predictions, p)
	}
	return db.failInsert
}

func (db *memDB) MatchesForRound(ctx context.Context, roundID int64) ([]*models.Match, error) {
	return fakeMatches{db}.ListByRound(ctx, roundID)
}

func (db *memDB) UpdateMatchResult(ctx context.Context, res models.MatchResult) error {
	m, ok := db.matches[res.MatchID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = res.Status
	m.HomeScore = models.NullScore(res.HomeScore)
	m.AwayScore = models.NullScore(res.AwayScore)
	return nil
}

func (db *memDB) PredictionsForMatch(ctx context.Context, matchID int64) ([]*models.Prediction, error) {
	var out []*models.Prediction
	for _, p := range db.predictions {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (db *memDB) SetPredictionPoints(ctx context.Context, id int64, points int) error {
	for _, p := range db.predictions {
		if p.ID == id {
			p.Points = points
			return nil
		}
	}
	return repository.ErrNotFound
}

func (db *memDB) ReplaceRoundScores(ctx context.Context, roundID int64) (int64, error) {
	for k := range db.scores {
		if k.roundID == roundID {
			delete(db.scores, k)
		}
	}
	seen := make(map[participantKey]bool)
	for _, p := range db.predictionsOf(roundID) {
		key := participantKey{roundID, p.ParticipantName}
		db.scores[key] += p.Points
		seen[key] = true
	}
	return int64(len(seen)), nil
}

func (db *memDB) DeleteParticipant(ctx context.Context, roundID int64, name string) (*models.DeleteResult, error) {
	res := &models.DeleteResult{}
	kept := db.predictions[:0]
	for _, p := range db.predictions {
		if p.RoundID == roundID && p.ParticipantName == name {
			res.DeletedPredictions++
			continue
		}
		kept = append(kept, p)
	}
	db.predictions = kept

	key := participantKey{roundID, name}
	if _, ok := db.scores[key]; ok {
		res.DeletedScoreRows = 1
		delete(db.scores, key)
	}
	delete(db.submissions, key)
	return res, nil
}

type fakeRounds struct{ db *memDB }

func (f fakeRounds) Upsert(ctx context.Context, round *models.Round) error {
	for _, r := range f.db.rounds {
		if r.Season == round.Season && r.RoundNumber == round.RoundNumber {
			r.CutoffAt = round.CutoffAt
			r.LastSyncAt = round.LastSyncAt
			round.ID = r.ID
			return nil
		}
	}
	stored := *round
	stored.ID = f.db.id()
	f.db.rounds[stored.ID] = &stored
	round.ID = stored.ID
	return nil
}

func (f fakeRounds) GetByID(ctx context.Context, id int64) (*models.Round, error) {
	r, ok := f.db.rounds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f fakeRounds) GetBySeasonNumber(ctx context.Context, season, number int) (*models.Round, error) {
	for _, r := range f.db.rounds {
		if r.Season == season && r.RoundNumber == number {
			out := *r
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeRounds) History(ctx context.Context, includeActive bool) ([]*models.RoundSummary, error) {
	var out []*models.RoundSummary
	for _, r := range f.db.rounds {
		out = append(out, &models.RoundSummary{ID: r.ID, Season: r.Season, RoundNumber: r.RoundNumber, CutoffAt: r.CutoffAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season > out[j].Season
		}
		return out[i].RoundNumber > out[j].RoundNumber
	})
	return out, nil
}

type fakeMatches struct{ db *memDB }

func (f fakeMatches) Upsert(ctx context.Context, match *models.Match) error {
	for _, m := range f.db.matches {
		if m.ExternalID == match.ExternalID {
			id := m.ID
			*m = *match
			m.ID = id
			match.ID = id
			return nil
		}
	}
	stored := *match
	stored.ID = f.db.id()
	f.db.matches[stored.ID] = &stored
	match.ID = stored.ID
	return nil
}

func (f fakeMatches) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	m, ok := f.db.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (f fakeMatches) GetByExternalID(ctx context.Context, externalID int64) (*models.Match, error) {
	for _, m := range f.db.matches {
		if m.ExternalID == externalID {
			out := *m
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeMatches) ListByRound(ctx context.Context, roundID int64) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.db.matches {
		if m.RoundID == roundID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f fakeMatches) ListByIDsInRound(ctx context.Context, roundID int64, ids []int64) ([]*models.Match, error) {
	var out []*models.Match
	for _, id := range ids {
		if m, ok := f.db.matches[id]; ok && m.RoundID == roundID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakePredictions struct{ db *memDB }

func (f fakePredictions) ExistsForParticipant(ctx context.Context, roundID int64, name string) (bool, error) {
	for _, p := range f.db.predictions {
		if p.RoundID == roundID && p.ParticipantName == name {
			return true, nil
		}
	}
	return false, nil
}

func (f fakePredictions) ListByRound(ctx context.Context, roundID int64) ([]*models.RoundPrediction, error) {
	var out []*models.RoundPrediction
	for _, p := range f.db.predictionsOf(roundID) {
		m := f.db.matches[p.MatchID]
		out = append(out, &models.RoundPrediction{
			ParticipantName: p.ParticipantName,
			PredHomeScore:   p.PredHomeScore,
			PredAwayScore:   p.PredAwayScore,
			Points:          p.Points,
			MatchID:         p.MatchID,
			HomeTeam:        m.HomeTeam,
			AwayTeam:        m.AwayTeam,
			HomeScore:       m.HomeScore,
			AwayScore:       m.AwayScore,
			KickoffAt:       m.KickoffAt,
		})
	}
	return out, nil
}

func (f fakePredictions) RankingForRound(ctx context.Context, roundID int64) ([]*models.RankingEntry, error) {
	return rank(f.db.predictionsOf(roundID)), nil
}

func (f fakePredictions) GlobalRanking(ctx context.Context) ([]*models.RankingEntry, error) {
	return rank(f.db.predictions), nil
}

func rank(preds []*models.Prediction) []*models.RankingEntry {
	totals := make(map[string]int)
	for _, p := range preds {
		totals[p.ParticipantName] += p.Points
	}
	out := make([]*models.RankingEntry, 0, len(totals))
	for name, pts := range totals {
		out = append(out, &models.RankingEntry{Name: name, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type fakeTokens struct{ db *memDB }

func (f fakeTokens) Upsert(ctx context.Context, token *models.SubmissionToken) error {
	stored := *token
	f.db.tokens[token.RoundID] = &stored
	return nil
}

func (f fakeTokens) GetByRound(ctx context.Context, roundID int64) (*models.SubmissionToken, error) {
	t, ok := f.db.tokens[roundID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// fakeProvider serves canned provider responses and counts calls
type fakeProvider struct {
	competition *models.FootballCompetitionResponse
	matches     *models.FootballMatchesResponse
	finished    *models.FootballMatchesResponse
	err         error
	calls       map[string]int
}

func (p *fakeProvider) record(name string) {
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[name]++
}

func (p *fakeProvider) FetchCompetition(ctx context.Context) (*models.FootballCompetitionResponse, error) {
	p.record("competition")
	if p.err != nil {
		return nil, p.err
	}
	return p.competition, nil
}

func (p *fakeProvider) FetchMatches(ctx context.Context) (*models.FootballMatchesResponse, error) {
	p.record("matches")
	if p.err != nil {
		return nil, p.err
	}
	return p.matches, nil
}

func (p *fakeProvider) FetchMatchesByMatchday(ctx context.Context, matchday int) (*models.FootballMatchesResponse, error) {
	p.record("matchday")
	if p.err != nil {
		return nil, p.err
	}
	return p.matches, nil
}

func (p *fakeProvider) FetchFinishedMatches(ctx context.Context) (*models.FootballMatchesResponse, error) {
	p.record("finished")
	if p.err != nil {
		return nil, p.err
	}
	return p.finished, nil
}

// memCache is a map-backed Cache storing values as-is
type memCache struct {
	values map[string]interface{}
	sets   int
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	comp, ok := v.(*models.FootballCompetitionResponse)
	target, tok := dest.(*models.FootballCompetitionResponse)
	if !ok || !tok {
		return false, errors.New("unsupported cache value")
	}
	*target = *comp
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	c.values[key] = value
	c.sets++
	return nil
}

func intp(v int) *int { return &v }

func int64p(v int64) *int64 { return &v }

func score(home, away int) (sql.NullInt32, sql.NullInt32) {
	return models.NullScore(&home), models.NullScore(&away)
}
