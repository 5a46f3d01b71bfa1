package session

import (
	"context"
	"testing"

	"expenses/internal/core"
	"expenses/internal/kv/memory"
	"expenses/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Session, *store.Store, core.Record) {
	t.Helper()
	st := store.New(memory.New())
	r, err := st.Create(context.Background(), core.Input{Title: "Rent", Amount: "1200", Category: "bills", Date: "2024-03-01"})
	require.NoError(t, err)
	return New(st, nil), st, r
}

func TestSubmitCreatesWithoutEditTarget(t *testing.T) {
	s, st, _ := setup(t)
	rec, created, err := s.Submit(context.Background(), core.Input{Title: "Tea", Amount: "3", Category: "food", Date: "2024-03-02"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Tea", rec.Title)
	assert.Equal(t, 2, st.Len())
}

func TestSubmitUpdatesEditTarget(t *testing.T) {
	s, st, r := setup(t)
	got, err := s.BeginEdit(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", got.Input().Amount)

	id, ok := s.Editing()
	assert.True(t, ok)
	assert.Equal(t, r.ID, id)

	rec, created, err := s.Submit(context.Background(), core.Input{Title: "Rent", Amount: "1300", Category: "bills", Date: "2024-03-01"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r.ID, rec.ID)
	assert.Equal(t, 1, st.Len())

	_, ok = s.Editing()
	assert.False(t, ok, "edit target cleared after update")
}

func TestSubmitValidationKeepsEditTarget(t *testing.T) {
	s, _, r := setup(t)
	_, err := s.BeginEdit(r.ID)
	require.NoError(t, err)

	_, _, err = s.Submit(context.Background(), core.Input{Title: "", Amount: "1", Category: "bills", Date: "2024-03-01"})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, ok := s.Editing()
	assert.True(t, ok)
}

func TestBeginEditUnknown(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.BeginEdit(42)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, ok := s.Editing()
	assert.False(t, ok)
}

func TestCancelEdit(t *testing.T) {
	s, st, r := setup(t)
	_, _ = s.BeginEdit(r.ID)
	s.CancelEdit()

	_, created, err := s.Submit(context.Background(), core.Input{Title: "New", Amount: "1", Category: "other", Date: "2024-03-01"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, st.Len())
}

func TestTwoPhaseDelete(t *testing.T) {
	s, st, r := setup(t)

	c, err := s.StageDelete(r.ID)
	require.NoError(t, err)
	assert.Equal(t, Confirmation{ID: r.ID, Description: "Rent - $1200.00"}, c)
	assert.Equal(t, 1, st.Len(), "staging does not delete")

	deleted, err := s.ConfirmDelete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, r.ID, deleted)
	assert.Zero(t, st.Len())

	deleted, err = s.ConfirmDelete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted, "nothing staged")
}

func TestConfirmDeleteReportsLatestStaged(t *testing.T) {
	s, st, first := setup(t)
	second, err := st.Create(context.Background(), core.Input{Title: "Bus", Amount: "2.5", Category: "transport", Date: "2024-03-02"})
	require.NoError(t, err)

	_, err = s.StageDelete(first.ID)
	require.NoError(t, err)
	_, err = s.StageDelete(second.ID)
	require.NoError(t, err)

	deleted, err := s.ConfirmDelete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, deleted)
	_, err = st.Get(first.ID)
	assert.NoError(t, err, "restaging replaces the earlier target")
}

func TestCancelDelete(t *testing.T) {
	s, st, r := setup(t)
	_, err := s.StageDelete(r.ID)
	require.NoError(t, err)
	s.CancelDelete()

	_, ok := s.Staged()
	assert.False(t, ok)
	deleted, err := s.ConfirmDelete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, 1, st.Len())
}

func TestStageDeleteUnknown(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.StageDelete(7)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestConfirmDeleteClearsStagingOnError(t *testing.T) {
	s, st, r := setup(t)
	_, err := s.StageDelete(r.ID)
	require.NoError(t, err)
	require.NoError(t, st.Delete(context.Background(), r.ID))

	_, err = s.ConfirmDelete(context.Background())
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, ok := s.Staged()
	assert.False(t, ok)
}

func TestConfirmDeleteClearsMatchingEditTarget(t *testing.T) {
	s, _, r := setup(t)
	_, _ = s.BeginEdit(r.ID)
	_, _ = s.StageDelete(r.ID)
	_, err := s.ConfirmDelete(context.Background())
	require.NoError(t, err)
	_, ok := s.Editing()
	assert.False(t, ok)
}
