package matching

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

type fakeRecordStore struct {
	records []models.CustomerRecord
}

func (f *fakeRecordStore) List(ctx context.Context) ([]models.CustomerRecord, error) {
	return f.records, nil
}

type fakeMatchStore struct {
	candidates map[string]*models.MatchCandidate
	seq        int
	// pair keys whose insert loses the unique-index race
	conflictPairs map[string]bool
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{candidates: make(map[string]*models.MatchCandidate)}
}

func (f *fakeMatchStore) Get(ctx context.Context, id string) (*models.MatchCandidate, error) {
	c, ok := f.candidates[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "match candidate not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeMatchStore) Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error) {
	if f.conflictPairs[models.PairKey(candidate.RecordAID, candidate.RecordBID)] {
		return nil, httperror.NewHTTPError(http.StatusConflict, "an active match already exists for this record pair")
	}
	f.seq++
	candidate.ID = string(rune('a' + f.seq))
	f.candidates[candidate.ID] = candidate
	return candidate, nil
}

func (f *fakeMatchStore) ListPairKeys(ctx context.Context) (map[string]string, error) {
	keys := make(map[string]string)
	for _, c := range f.candidates {
		keys[models.PairKey(c.RecordAID, c.RecordBID)] = c.Status
	}
	return keys, nil
}

func (f *fakeMatchStore) TransitionFromPending(ctx context.Context, id, status string, notes, reviewedBy *string) (bool, error) {
	c, ok := f.candidates[id]
	if !ok || c.Status != models.MatchStatusPending {
		return false, nil
	}
	c.Status = status
	c.Notes = notes
	c.ReviewedBy = reviewedBy
	return true, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testEngine(records []models.CustomerRecord) (*Engine, *fakeMatchStore) {
	matches := newFakeMatchStore()
	engine := NewEngine(testLogger(), &fakeRecordStore{records: records}, matches, DefaultConfig())
	return engine, matches
}

func dupRecords() []models.CustomerRecord {
	return []models.CustomerRecord{
		{ID: "r1", SourceID: "s1", Email: "a@x.com", CompanyName: "Acme"},
		{ID: "r2", SourceID: "s2", Email: "a@x.com", CompanyName: "Acme Inc"},
		{ID: "r3", SourceID: "s2", Email: "other@x.com", CompanyName: "Globex"},
	}
}

func TestEngine_Run(t *testing.T) {
	t.Run("creates pending matches above threshold", func(t *testing.T) {
		engine, matches := testEngine(dupRecords())

		created, err := engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		for _, c := range matches.candidates {
			assert.Equal(t, models.MatchStatusPending, c.Status)
			assert.Equal(t, "rule_based_v1", c.MatchMethod)
			assert.Less(t, c.RecordAID, c.RecordBID)
			assert.GreaterOrEqual(t, c.OverallScore, 0.75)
			assert.NotEmpty(t, c.FieldScores)
		}
	})

	t.Run("repeat runs create nothing new", func(t *testing.T) {
		engine, _ := testEngine(dupRecords())

		created, err := engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		require.Equal(t, 1, created)

		created, err = engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})

	t.Run("rejected pairs are never recreated", func(t *testing.T) {
		engine, matches := testEngine(dupRecords())

		created, err := engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		require.Equal(t, 1, created)

		for id := range matches.candidates {
			moved, err := matches.TransitionFromPending(context.Background(), id, models.MatchStatusRejected, nil, nil)
			require.NoError(t, err)
			require.True(t, moved)
		}

		created, err = engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})

	t.Run("losing an insert race skips the pair and continues", func(t *testing.T) {
		records := []models.CustomerRecord{
			{ID: "r1", SourceID: "s1", Email: "a@x.com", CompanyName: "Acme"},
			{ID: "r2", SourceID: "s2", Email: "a@x.com", CompanyName: "Acme Inc"},
			{ID: "r3", SourceID: "s1", Email: "b@y.com", CompanyName: "Globex"},
			{ID: "r4", SourceID: "s2", Email: "b@y.com", CompanyName: "Globex Corp"},
		}
		engine, matches := testEngine(records)
		matches.conflictPairs = map[string]bool{models.PairKey("r1", "r2"): true}

		created, err := engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		for _, c := range matches.candidates {
			assert.Equal(t, models.PairKey("r3", "r4"), models.PairKey(c.RecordAID, c.RecordBID))
		}
	})

	t.Run("threshold out of range is rejected", func(t *testing.T) {
		engine, _ := testEngine(nil)

		for _, threshold := range []float64{-0.5, 1.5} {
			_, err := engine.Run(context.Background(), ScopeAll(), threshold, nil)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		}
	})

	t.Run("empty scoped source id is rejected", func(t *testing.T) {
		engine, _ := testEngine(nil)

		empty := ""
		_, err := engine.Run(context.Background(), Scope{SourceID: &empty}, 0, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("unknown weight field is rejected", func(t *testing.T) {
		engine, _ := testEngine(nil)

		_, err := engine.Run(context.Background(), ScopeAll(), 0, map[string]float64{"nonsense": 1.0})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		engine, matches := testEngine(dupRecords())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.Run(ctx, ScopeAll(), 0, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, matches.candidates)
	})

	t.Run("below threshold creates nothing", func(t *testing.T) {
		records := []models.CustomerRecord{
			{ID: "r1", CompanyName: "Acme"},
			{ID: "r2", CompanyName: "Acme Global Holdings International"},
		}
		engine, _ := testEngine(records)

		created, err := engine.Run(context.Background(), ScopeAll(), 0.99, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})
}

func TestEngine_Review(t *testing.T) {
	setup := func(t *testing.T) (*Engine, string) {
		engine, matches := testEngine(dupRecords())
		created, err := engine.Run(context.Background(), ScopeAll(), 0, nil)
		require.NoError(t, err)
		require.Equal(t, 1, created)

		for id := range matches.candidates {
			return engine, id
		}
		t.Fatal("no candidate created")
		return nil, ""
	}

	t.Run("approves a pending match", func(t *testing.T) {
		engine, id := setup(t)

		notes := "same company"
		reviewed, err := engine.Review(context.Background(), id, models.MatchStatusApproved, &notes)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusApproved, reviewed.Status)
		assert.Equal(t, &notes, reviewed.Notes)
	})

	t.Run("second review conflicts", func(t *testing.T) {
		engine, id := setup(t)

		_, err := engine.Review(context.Background(), id, models.MatchStatusRejected, nil)
		require.NoError(t, err)

		_, err = engine.Review(context.Background(), id, models.MatchStatusApproved, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		engine, _ := setup(t)

		_, err := engine.Review(context.Background(), "missing", models.MatchStatusApproved, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})

	t.Run("only approved and rejected are valid", func(t *testing.T) {
		engine, id := setup(t)

		_, err := engine.Review(context.Background(), id, models.MatchStatusMerged, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}
