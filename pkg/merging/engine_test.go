package merging

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

// world is an in-memory stand-in for the relational store. One struct backs
// all three store interfaces so cross-entity state stays consistent.
type world struct {
	records map[string]*models.CustomerRecord
	goldens map[string]*models.GoldenRecord
	matches map[string]*models.MatchCandidate
	clock   time.Time
	seq     int
}

func newWorld() *world {
	return &world{
		records: make(map[string]*models.CustomerRecord),
		goldens: make(map[string]*models.GoldenRecord),
		matches: make(map[string]*models.MatchCandidate),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (w *world) tick() time.Time {
	w.clock = w.clock.Add(time.Minute)
	return w.clock
}

func (w *world) addRecord(id string, fields map[string]string) *models.CustomerRecord {
	rec := &models.CustomerRecord{ID: id, CreatedAt: w.tick()}
	for k, v := range fields {
		rec.SetField(k, v)
	}
	w.records[id] = rec
	return rec
}

func (w *world) addMatch(aID, bID, status string) *models.MatchCandidate {
	w.seq++
	m := &models.MatchCandidate{
		ID:        fmt.Sprintf("m%d", w.seq),
		RecordAID: aID,
		RecordBID: bID,
		Status:    status,
	}
	w.matches[m.ID] = m
	return m
}

// MatchStore

func (w *world) GetExpanded(ctx context.Context, id string) (*models.MatchCandidateExpanded, error) {
	m, ok := w.matches[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "match candidate not found")
	}
	return &models.MatchCandidateExpanded{
		MatchCandidate: *m,
		RecordA:        w.records[m.RecordAID],
		RecordB:        w.records[m.RecordBID],
	}, nil
}

func (w *world) TransitionToMerged(ctx context.Context, id string) (bool, error) {
	m, ok := w.matches[id]
	if !ok || (m.Status != models.MatchStatusPending && m.Status != models.MatchStatusApproved) {
		return false, nil
	}
	m.Status = models.MatchStatusMerged
	return true, nil
}

// RecordStore

func (w *world) ListByGolden(ctx context.Context, goldenID string) ([]models.CustomerRecord, error) {
	var out []models.CustomerRecord
	for _, r := range w.records {
		if r.GoldenRecordID != nil && *r.GoldenRecordID == goldenID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (w *world) AssignGolden(ctx context.Context, recordID, goldenID string) error {
	r, ok := w.records[recordID]
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "customer record not found")
	}
	r.GoldenRecordID = &goldenID
	return nil
}

func (w *world) RelinkGolden(ctx context.Context, fromGoldenID, toGoldenID string) (int, error) {
	moved := 0
	for _, r := range w.records {
		if r.GoldenRecordID != nil && *r.GoldenRecordID == fromGoldenID {
			id := toGoldenID
			r.GoldenRecordID = &id
			moved++
		}
	}
	return moved, nil
}

// GoldenStore

func (w *world) Get(ctx context.Context, id string) (*models.GoldenRecord, error) {
	g, ok := w.goldens[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "golden record not found")
	}
	copied := *g
	return &copied, nil
}

func (w *world) Create(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error) {
	w.seq++
	golden.ID = fmt.Sprintf("g%d", w.seq)
	golden.CreatedAt = w.tick()
	golden.UpdatedAt = golden.CreatedAt
	copied := *golden
	w.goldens[golden.ID] = &copied
	return golden, nil
}

func (w *world) Update(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error) {
	if _, ok := w.goldens[golden.ID]; !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "golden record not found")
	}
	golden.UpdatedAt = w.tick()
	copied := *golden
	w.goldens[golden.ID] = &copied
	return golden, nil
}

func (w *world) Delete(ctx context.Context, id string) error {
	if _, ok := w.goldens[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "golden record not found")
	}
	delete(w.goldens, id)
	return nil
}

// TxRunner

func (w *world) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testEngine(w *world) *Engine {
	return NewEngine(testLogger(), w, w, w, w, nil, nil)
}

func TestEngine_Merge(t *testing.T) {
	t.Run("two new records become one golden record", func(t *testing.T) {
		w := newWorld()
		a := w.addRecord("r1", map[string]string{"email": "a@x.com", "company_name": "Acme"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com", "company_name": "Acme Inc"})
		m := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)

		golden, err := testEngine(w).Merge(context.Background(), &models.MergeRequest{MatchID: m.ID})
		require.NoError(t, err)

		assert.Equal(t, 2, golden.SourceCount)
		assert.Equal(t, "a@x.com", golden.Email)
		assert.Equal(t, "Acme Inc", golden.CompanyName)
		assert.Equal(t, models.MatchStatusMerged, w.matches[m.ID].Status)
		require.NotNil(t, a.GoldenRecordID)
		require.NotNil(t, b.GoldenRecordID)
		assert.Equal(t, *a.GoldenRecordID, *b.GoldenRecordID)
		assert.Equal(t, golden.ID, *a.GoldenRecordID)
	})

	t.Run("surviving values pin reviewer choices", func(t *testing.T) {
		w := newWorld()
		a := w.addRecord("r1", map[string]string{"email": "a@x.com", "company_name": "Acme"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com", "company_name": "Acme Inc"})
		m := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)

		golden, err := testEngine(w).Merge(context.Background(), &models.MergeRequest{
			MatchID:         m.ID,
			SurvivingValues: map[string]string{"company_name": "Acme"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", golden.CompanyName)
	})

	t.Run("pending match merges without prior approval", func(t *testing.T) {
		w := newWorld()
		a := w.addRecord("r1", map[string]string{"email": "a@x.com", "company_name": "Acme"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com"})
		m := w.addMatch(a.ID, b.ID, models.MatchStatusPending)

		golden, err := testEngine(w).Merge(context.Background(), &models.MergeRequest{MatchID: m.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, golden.SourceCount)
		assert.Equal(t, "Acme", golden.CompanyName)
		assert.Equal(t, models.MatchStatusMerged, m.Status)
	})

	t.Run("decided matches conflict", func(t *testing.T) {
		for _, status := range []string{models.MatchStatusRejected, models.MatchStatusMerged} {
			w := newWorld()
			a := w.addRecord("r1", nil)
			b := w.addRecord("r2", nil)
			m := w.addMatch(a.ID, b.ID, status)

			_, err := testEngine(w).Merge(context.Background(), &models.MergeRequest{MatchID: m.ID})
			require.Error(t, err, "status %s", status)
			assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err), "status %s", status)
		}
	})

	t.Run("missing match is not found", func(t *testing.T) {
		w := newWorld()
		_, err := testEngine(w).Merge(context.Background(), &models.MergeRequest{MatchID: "missing"})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})

	t.Run("record with a golden record absorbs the other", func(t *testing.T) {
		w := newWorld()
		engine := testEngine(w)

		a := w.addRecord("r1", map[string]string{"email": "a@x.com"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com"})
		m1 := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)
		first, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m1.ID})
		require.NoError(t, err)

		c := w.addRecord("r3", map[string]string{"email": "a@x.com", "phone": "555-123-4567"})
		m2 := w.addMatch(b.ID, c.ID, models.MatchStatusApproved)
		second, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m2.ID})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 3, second.SourceCount)
		assert.Equal(t, "555-123-4567", second.Phone)
		require.NotNil(t, c.GoldenRecordID)
		assert.Equal(t, first.ID, *c.GoldenRecordID)
		assert.Len(t, w.goldens, 1)
	})

	t.Run("pair already sharing a golden record closes the match", func(t *testing.T) {
		w := newWorld()
		engine := testEngine(w)

		a := w.addRecord("r1", map[string]string{"email": "a@x.com"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com"})
		m1 := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)
		first, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m1.ID})
		require.NoError(t, err)

		m2 := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)
		second, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m2.ID})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 2, second.SourceCount)
		assert.Equal(t, models.MatchStatusMerged, w.matches[m2.ID].Status)
	})

	t.Run("two golden records consolidate into the older one", func(t *testing.T) {
		w := newWorld()
		engine := testEngine(w)

		a := w.addRecord("r1", map[string]string{"email": "a@x.com"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com"})
		m1 := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)
		older, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m1.ID})
		require.NoError(t, err)

		c := w.addRecord("r3", map[string]string{"email": "c@x.com"})
		d := w.addRecord("r4", map[string]string{"email": "c@x.com", "city": "Portland"})
		m2 := w.addMatch(c.ID, d.ID, models.MatchStatusApproved)
		younger, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m2.ID})
		require.NoError(t, err)
		require.NotEqual(t, older.ID, younger.ID)

		m3 := w.addMatch(b.ID, c.ID, models.MatchStatusApproved)
		kept, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m3.ID})
		require.NoError(t, err)

		assert.Equal(t, older.ID, kept.ID)
		assert.Equal(t, 4, kept.SourceCount)
		assert.Equal(t, "Portland", kept.City)
		assert.Len(t, w.goldens, 1)
		for _, r := range w.records {
			require.NotNil(t, r.GoldenRecordID, "record %s dangling", r.ID)
			assert.Equal(t, kept.ID, *r.GoldenRecordID, "record %s", r.ID)
		}
	})

	t.Run("transitive merges end in one cluster", func(t *testing.T) {
		w := newWorld()
		engine := testEngine(w)

		a := w.addRecord("r1", map[string]string{"email": "a@x.com"})
		b := w.addRecord("r2", map[string]string{"email": "a@x.com"})
		c := w.addRecord("r3", map[string]string{"email": "a@x.com"})
		m1 := w.addMatch(a.ID, b.ID, models.MatchStatusApproved)
		m2 := w.addMatch(b.ID, c.ID, models.MatchStatusApproved)

		_, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m1.ID})
		require.NoError(t, err)
		golden, err := engine.Merge(context.Background(), &models.MergeRequest{MatchID: m2.ID})
		require.NoError(t, err)

		assert.Len(t, w.goldens, 1)
		assert.Equal(t, 3, golden.SourceCount)
		for _, r := range []*models.CustomerRecord{a, b, c} {
			require.NotNil(t, r.GoldenRecordID)
			assert.Equal(t, golden.ID, *r.GoldenRecordID)
		}
	})
}
