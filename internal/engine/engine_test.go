package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
	"github.com/Veraticus/loanrecon/internal/service"
	"github.com/Veraticus/loanrecon/internal/testutil"
)

// scriptedResolver applies a per-round decision function and records what it was asked.
type scriptedResolver struct {
	decide func(round int, v model.Variance) (reconcile.Action, bool)
	err    error
	calls  [][]string
}

func (s *scriptedResolver) ResolveVariances(_ context.Context, session *reconcile.Session, pending []model.Variance) error {
	round := len(s.calls)
	fields := make([]string, 0, len(pending))
	for _, v := range pending {
		fields = append(fields, v.Field)
	}
	s.calls = append(s.calls, fields)
	if s.err != nil {
		return s.err
	}
	for _, v := range pending {
		if s.decide == nil {
			continue
		}
		if action, ok := s.decide(round, v); ok {
			if err := session.Resolve(v.Field, action); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeExtractor struct {
	err    error
	record *model.LoanRecord
	names  []string
}

func (f *fakeExtractor) Extract(_ context.Context, name string, document io.Reader) (*model.Extraction, error) {
	f.names = append(f.names, name)
	if _, err := io.ReadAll(document); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Extraction{
		Record:       f.record,
		DocumentName: name,
		DocumentType: "loan_application",
		Confidence:   0.88,
	}, nil
}

var _ service.Extractor = (*fakeExtractor)(nil)

func seedLoan(t *testing.T, db *testutil.TestDB) *model.LoanRecord {
	t.Helper()
	loan := db.MustSaveLoan(testutil.SampleApplication())
	db.MustSaveExtraction(loan.ID, testutil.SampleExtraction())
	return loan
}

func TestReviewer_Preview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := seedLoan(t, db)

	r := New(db.Storage, nil, nil)
	result, err := r.Preview(ctx, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, loan.ID, result.Loan.ID)
	assert.Nil(t, result.Record)
	sum := result.Session.Summary()
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 1, sum.Critical)
	assert.Equal(t, 1, sum.Warning)
	assert.Equal(t, 3, sum.Info)
	assert.False(t, sum.Blocked)

	recs, err := db.Storage.GetReconciliations(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReviewer_Preview_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := db.MustSaveLoan(testutil.SampleApplication())
	r := New(db.Storage, nil, nil)

	_, err := r.Preview(ctx, loan.ID)
	assert.True(t, errors.Is(err, common.ErrNoExtraction), "error = %v", err)

	_, err = r.Preview(ctx, 999)
	assert.True(t, errors.Is(err, common.ErrNotFound), "error = %v", err)
}

func TestReviewer_Review_AcceptAllExtracted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := seedLoan(t, db)

	r := NewWithConfig(db.Storage, nil, AcceptAllExtracted(), Config{Operator: "jdoe"})
	result, err := r.Review(ctx, loan.ID, ReviewOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Equal(t, "jdoe", result.Record.Operator)
	assert.Equal(t, 5, result.Record.VarianceCount)
	assert.Equal(t, 1, result.Record.CriticalCount)
	assert.Equal(t, result.Session.ID, result.Record.SessionID)

	stored, err := db.Storage.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "44500", stored.LoanAmount.Literal())
	assert.True(t, stored.LoanAmount.IsNumber())
	assert.Equal(t, "5.9", stored.InterestRate.Literal())
	assert.Equal(t, "John Smith", stored.PrimaryBorrower().FullName.Literal())
	assert.Equal(t, "725", stored.PrimaryBorrower().CreditScore.Literal())
	assert.Equal(t, "52600", stored.CoBorrower().AnnualIncome.Literal())
	assert.Equal(t, "Mary Doe", stored.CoBorrower().FullName.Literal())
	assert.Equal(t, "Toyota", stored.Vehicle.Make.Literal())
	assert.Equal(t, "APP-1001", stored.ApplicationNumber)

	recs, err := db.Storage.GetReconciliations(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Outcomes, 5)

	timeline, err := db.Storage.GetTimeline(ctx, loan.ID)
	require.NoError(t, err)
	require.NotEmpty(t, timeline)
	assert.Contains(t, timeline[len(timeline)-1].Event, "5 fields updated")
}

func TestReviewer_Review_KeepAllOriginal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := seedLoan(t, db)

	r := New(db.Storage, nil, KeepAllOriginal())
	result, err := r.Review(ctx, loan.ID, ReviewOptions{})
	require.NoError(t, err)
	assert.True(t, result.Record.Patch.IsEmpty())

	stored, err := db.Storage.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "40000", stored.LoanAmount.Literal())
	assert.Equal(t, "John Doe", stored.PrimaryBorrower().FullName.Literal())
}

func TestReviewer_Review_RepromptsBlockingFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := seedLoan(t, db)
	db.MustSaveRules(map[string]model.Rule{
		"borrower_full_name": {MismatchSeverity: model.SeverityCritical, BlockProgress: true},
	})

	resolver := &scriptedResolver{
		decide: func(round int, v model.Variance) (reconcile.Action, bool) {
			if round == 0 {
				// Skip everything the first time round.
				return reconcile.Action{}, false
			}
			return reconcile.Edit(model.Text("John A. Doe")), true
		},
	}

	r := New(db.Storage, nil, resolver)
	result, err := r.Review(ctx, loan.ID, ReviewOptions{})
	require.NoError(t, err)

	require.Len(t, resolver.calls, 2)
	assert.Len(t, resolver.calls[0], 5)
	assert.Equal(t, []string{"borrower_full_name"}, resolver.calls[1])

	patch := result.Record.Patch
	require.NotNil(t, patch)
	require.Len(t, patch.Borrowers, 1)
	assert.Equal(t, "John A. Doe", patch.Borrowers[0].FullName.Literal())
	assert.Nil(t, patch.LoanAmount)

	stored, err := db.Storage.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "John A. Doe", stored.PrimaryBorrower().FullName.Literal())
	assert.Equal(t, "40000", stored.LoanAmount.Literal())
}

func TestReviewer_Review_Aborted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := seedLoan(t, db)
	db.MustSaveRules(map[string]model.Rule{
		"loan_amount": {BlockProgress: true},
	})

	t.Run("blocked past max rounds", func(t *testing.T) {
		resolver := &scriptedResolver{}
		r := NewWithConfig(db.Storage, nil, resolver, Config{MaxRounds: 2})

		_, err := r.Review(ctx, loan.ID, ReviewOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrReviewAborted))
		assert.True(t, errors.Is(err, reconcile.ErrBlocked))
		assert.Len(t, resolver.calls, 2)
	})

	t.Run("resolver gives up", func(t *testing.T) {
		resolver := &scriptedResolver{err: ErrReviewAborted}
		r := New(db.Storage, nil, resolver)

		_, err := r.Review(ctx, loan.ID, ReviewOptions{})
		assert.ErrorIs(t, err, ErrReviewAborted)
	})

	recs, err := db.Storage.GetReconciliations(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	stored, err := db.Storage.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "40000", stored.LoanAmount.Literal())
}

func TestReviewer_Review_WithDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := db.MustSaveLoan(testutil.SampleApplication())

	extractor := &fakeExtractor{record: testutil.MatchingExtraction()}
	r := New(db.Storage, extractor, KeepAllOriginal())

	result, err := r.Review(ctx, loan.ID, ReviewOptions{
		DocumentName: "scan.pdf",
		Document:     strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scan.pdf"}, extractor.names)
	assert.Empty(t, result.Session.Variances())
	assert.Equal(t, loan.ID, result.Extraction.LoanID)
	assert.NotZero(t, result.Extraction.ID)
	assert.Equal(t, result.Extraction.ID, result.Record.ExtractionID)

	timeline, err := db.Storage.GetTimeline(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Contains(t, timeline[0].Event, "scan.pdf")
	assert.Contains(t, timeline[1].Event, "no changes")
}

func TestReviewer_Extract_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	loan := db.MustSaveLoan(testutil.SampleApplication())

	t.Run("no extractor", func(t *testing.T) {
		r := New(db.Storage, nil, nil)
		_, err := r.Extract(ctx, loan.ID, "a.pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})

	t.Run("service error is propagated", func(t *testing.T) {
		r := New(db.Storage, &fakeExtractor{err: common.ErrExtractionService}, KeepAllOriginal())
		_, err := r.Review(ctx, loan.ID, ReviewOptions{DocumentName: "a.pdf", Document: strings.NewReader("x")})
		assert.ErrorIs(t, err, common.ErrExtractionService)
	})

	t.Run("unknown loan", func(t *testing.T) {
		extractor := &fakeExtractor{record: testutil.SampleExtraction()}
		r := New(db.Storage, extractor, nil)
		_, err := r.Extract(ctx, 404, "a.pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.Empty(t, extractor.names)
	})
}

func TestReviewer_Batch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	varied := seedLoan(t, db)

	matching := testutil.SampleApplication()
	matching.ApplicationNumber = "APP-1002"
	db.MustSaveLoan(matching)
	db.MustSaveExtraction(matching.ID, testutil.MatchingExtraction())

	pending := testutil.SampleApplication()
	pending.ApplicationNumber = "APP-1003"
	db.MustSaveLoan(pending)

	var progress []int
	r := New(db.Storage, nil, nil)
	report, err := r.Batch(ctx, service.LoanFilter{}, func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, 2, report.Reviewed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.WithVariance)
	require.Len(t, report.Items, 3)
	assert.Equal(t, varied.ID, report.Items[0].Loan.ID)
	assert.ErrorIs(t, report.Items[2].Err, common.ErrNoExtraction)
}

func TestReviewer_LoadRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := New(db.Storage, nil, nil)

	rs, err := r.LoadRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Len())

	db.MustSaveRules(map[string]model.Rule{"loan_amount": {BlockProgress: true}})
	rs, err = r.LoadRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, rs.Len())
	assert.True(t, rs.Lookup("loan_amount", model.TypeCurrency).BlockProgress)
}
