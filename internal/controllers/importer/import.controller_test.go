package importController

import (
	"context"
	"strings"
	"testing"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestController(t *testing.T) (*ImportController, repositories.ContractRepository, repositories.HistoryRepository) {
	t.Helper()

	db := database.NewTestDB(t)
	contracts := repositories.NewContract(db)
	controller := New(contracts, services.NewTransactionService(db)).
		WithClock(func() time.Time { return fixedNow })

	return controller, contracts, repositories.NewHistory(db)
}

func manager() Actor {
	return Actor{Login: "ona", Role: RoleManager}
}

func sampleRows() []map[string]any {
	return []map[string]any{
		{"Poliso nr.": "POL-1", "Klientas": "Jonas", "Valstybinis nr.": "ABC123", "Galioja iki": "2027-01-01", "Metinė įmoka": "100,00"},
		{"Poliso nr.": "POL-2", "Klientas": "Ona", "Valstybinis nr.": "XYZ999", "Galioja iki": 46388.0, "Išmoka": 5000.0},
		{"Poliso nr.": "POL-1", "Klientas": "Jonas", "Valstybinis nr.": "", "Galioja iki": "01.02.2027"},
		{"Klientas": "no policy number"},
	}
}

func TestImportBatch_InsertsAndSkips(t *testing.T) {
	controller, contracts, history := newTestController(t)
	ctx := context.Background()

	result, err := controller.ImportBatch(ctx, manager(), sampleRows())
	require.NoError(t, err)
	assert.Equal(t, ImportResult{SuccessCount: 3, SkippedCount: 1, Errors: []string{}}, result)

	got, found, err := contracts.FindByBusinessKey(ctx, "POL-2", "XYZ999")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ona", got.ClientName)
	assert.Equal(t, 5000.0, got.PayoutValue)
	assert.True(t, got.ValidUntil.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, got.IsArchived)
	assert.Empty(t, got.Notes)

	count, err := history.CountByContractID(ctx, got.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "imports are not audited")
}

func TestImportBatch_RerunUpdatesInsteadOfDuplicating(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	_, err := controller.ImportBatch(ctx, manager(), sampleRows())
	require.NoError(t, err)
	first, err := contracts.Count(ctx)
	require.NoError(t, err)

	result, err := controller.ImportBatch(ctx, manager(), sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount)

	second, err := contracts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(3), second)
}

func TestImportBatch_UpdateKeepsNotesAndArchivedFlag(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	existing := &Contract{
		ClientName:     "Old name",
		PolicyNo:       "POL-1",
		RegistrationNr: "ABC123",
		ValidFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Notes:          []Note{{Text: "keep me", Author: "ona"}},
		LastUpdated:    fixedNow,
	}
	require.NoError(t, contracts.Create(ctx, existing))
	require.NoError(t, contracts.SetArchived(ctx, existing.ID, true, fixedNow))

	result, err := controller.ImportBatch(ctx, manager(), sampleRows()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	got, err := contracts.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jonas", got.ClientName)
	assert.Equal(t, 100.0, got.YearlyPremium)
	assert.True(t, got.ValidUntil.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.IsArchived)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "keep me", got.Notes[0].Text)
}

func TestImportBatch_RowFailureIsIsolated(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	rows := []map[string]any{
		{"policyNo": "POL-1", "klientas": "A", "galiojaIki": "2027-01-01"},
		{"policyNo": "POL-2", "klientas": "B", "galiojaIki": "2027-01-01"},
		{"policyNo": "POL-3", "klientas": "C", "galiojaIki": "2027-01-01", "metineIsmoka": -50.0},
		{"policyNo": "POL-4", "klientas": "D", "galiojaIki": "2027-01-01"},
		{"policyNo": "POL-5", "klientas": "E", "galiojaIki": "2027-01-01", "ismoka": "not a number"},
	}

	result, err := controller.ImportBatch(ctx, manager(), rows)
	require.NoError(t, err)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "row 3: "), result.Errors[0])
	assert.Contains(t, result.Errors[0], "yearly premium")

	count, err := contracts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	_, found, err := contracts.FindByBusinessKey(ctx, "POL-3", "")
	require.NoError(t, err)
	assert.False(t, found)

	unparsed, found, err := contracts.FindByBusinessKey(ctx, "POL-5", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Zero(t, unparsed.PayoutValue)
}

func TestImportBatch_RequiresManager(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	_, err := controller.ImportBatch(ctx, Actor{Login: "guest", Role: RoleViewer}, sampleRows())
	assert.ErrorIs(t, err, common.ErrPermission)

	_, err = controller.ImportFile(ctx, Actor{Login: "guest", Role: RoleViewer}, "x.csv", strings.NewReader("policyNo\nPOL-1\n"))
	assert.ErrorIs(t, err, common.ErrPermission)

	count, err := contracts.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportFile_CSV(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	csv := "Poliso nr.;Klientas;Galioja iki;Metinė įmoka\n" +
		"POL-1;Jonas;2027-01-01;120,50\n" +
		"POL-2;Ona;46388;80\n"

	result, err := controller.ImportFile(ctx, manager(), "contracts.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	got, found, err := contracts.FindByBusinessKey(ctx, "POL-1", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 120.5, got.YearlyPremium)

	second, found, err := contracts.FindByBusinessKey(ctx, "POL-2", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, second.ValidUntil.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = controller.ImportFile(ctx, manager(), "contracts.doc", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestImportBatch_UnpaddedDates(t *testing.T) {
	controller, contracts, _ := newTestController(t)
	ctx := context.Background()

	rows := []map[string]any{
		{"Poliso nr.": "POL-1", "Galioja nuo": "5.3.2026", "Galioja iki": "1/2/2027"},
		{"Poliso nr.": "POL-2", "Galioja nuo": "2026-1-5", "Galioja iki": "3/25/2027"},
	}

	result, err := controller.ImportBatch(ctx, manager(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	tests := []struct {
		policy    string
		wantFrom  time.Time
		wantUntil time.Time
	}{
		{"POL-1", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"POL-2", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2027, 3, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			got, found, err := contracts.FindByBusinessKey(ctx, tt.policy, "")
			require.NoError(t, err)
			require.True(t, found)
			assert.True(t, got.ValidFrom.Equal(tt.wantFrom), "validFrom %s", got.ValidFrom)
			assert.True(t, got.ValidUntil.Equal(tt.wantUntil), "validUntil %s", got.ValidUntil)
			assert.Equal(t, StatusValid, ClassifyStatus(got.ValidUntil, fixedNow))
		})
	}
}
