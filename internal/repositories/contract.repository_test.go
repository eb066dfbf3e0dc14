package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	. "policybook/internal/models"
	"policybook/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newContract(policyNo, registrationNr string, validUntil time.Time) *Contract {
	return &Contract{
		ClientName:     "Jonas Jonaitis",
		Salesperson:    "ona",
		InsuranceType:  "KASKO",
		PolicyNo:       policyNo,
		RegistrationNr: registrationNr,
		ValidFrom:      validUntil.AddDate(-1, 0, 0),
		ValidUntil:     validUntil,
		YearlyPremium:  100,
		PayoutValue:    5000,
		LastUpdated:    date(2026, 1, 1),
	}
}

func TestContractRepository_CreateAndGet(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	contract := newContract("POL-1", "ABC123", date(2027, 1, 1))
	contract.Notes = []Note{{Text: "called client", Author: "ona", CreatedAt: date(2026, 1, 2)}}
	require.NoError(t, repo.Create(ctx, contract))
	assert.NotZero(t, contract.ID)

	got, err := repo.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "POL-1", got.PolicyNo)
	assert.Equal(t, "ABC123", got.RegistrationNr)
	assert.True(t, got.ValidUntil.Equal(date(2027, 1, 1)))
	assert.Equal(t, 100.0, got.YearlyPremium)
	assert.False(t, got.IsArchived)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "called client", got.Notes[0].Text)
	assert.Equal(t, "ona", got.Notes[0].Author)
}

func TestContractRepository_CreateAssignsFreshIDs(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	first := newContract("POL-1", "A", date(2027, 1, 1))
	second := newContract("POL-2", "B", date(2027, 1, 1))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotNil(t, first.Notes)
}

func TestContractRepository_GetByID_NotFound(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestContractRepository_FindByBusinessKey(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newContract("POL-1", "ABC123", date(2027, 1, 1))))
	require.NoError(t, repo.Create(ctx, newContract("POL-1", "", date(2027, 1, 1))))

	tests := []struct {
		name           string
		policyNo       string
		registrationNr string
		found          bool
	}{
		{"exact match", "POL-1", "ABC123", true},
		{"empty registration is its own key", "POL-1", "", true},
		{"other registration", "POL-1", "XYZ999", false},
		{"other policy", "POL-2", "ABC123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract, found, err := repo.FindByBusinessKey(ctx, tt.policyNo, tt.registrationNr)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.registrationNr, contract.RegistrationNr)
			} else {
				assert.Nil(t, contract)
			}
		})
	}
}

func TestContractRepository_DuplicateKeyRejectedByStore(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newContract("POL-1", "ABC123", date(2027, 1, 1))))
	assert.Error(t, repo.Create(ctx, newContract("POL-1", "ABC123", date(2028, 1, 1))))
}

func TestContractRepository_Update(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	contract := newContract("POL-1", "ABC123", date(2027, 1, 1))
	require.NoError(t, repo.Create(ctx, contract))

	replacement := *contract
	replacement.ID = 0
	replacement.Salesperson = ""
	replacement.YearlyPremium = 150
	replacement.Notes = nil
	replacement.LastUpdated = date(2026, 2, 1)
	require.NoError(t, repo.Update(ctx, contract.ID, &replacement))

	got, err := repo.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Salesperson)
	assert.Equal(t, 150.0, got.YearlyPremium)
	assert.Empty(t, got.Notes)
	assert.True(t, got.LastUpdated.Equal(date(2026, 2, 1)))

	err = repo.Update(ctx, 999, &replacement)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestContractRepository_ListOrdering(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	late := newContract("POL-LATE", "", date(2027, 6, 1))
	early := newContract("POL-EARLY", "", date(2026, 2, 1))
	archivedOld := newContract("POL-ARCH-OLD", "", date(2026, 1, 1))
	archivedNew := newContract("POL-ARCH-NEW", "", date(2028, 1, 1))
	for _, c := range []*Contract{late, early, archivedOld, archivedNew} {
		require.NoError(t, repo.Create(ctx, c))
	}
	require.NoError(t, repo.SetArchived(ctx, archivedOld.ID, true, date(2026, 3, 1)))
	require.NoError(t, repo.SetArchived(ctx, archivedNew.ID, true, date(2026, 4, 1)))

	active, err := repo.List(ctx, ContractFilter{Archived: false, Sort: SortValidUntilAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"POL-EARLY", "POL-LATE"}, policies(active))

	archived, err := repo.List(ctx, ContractFilter{Archived: true, Sort: SortLastUpdatedDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"POL-ARCH-NEW", "POL-ARCH-OLD"}, policies(archived))
}

func TestContractRepository_ListSearch(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	one := newContract("POL-1", "ABC123", date(2027, 1, 1))
	two := newContract("POL-2", "XYZ", date(2027, 1, 1))
	two.ClientName = "Petras"
	require.NoError(t, repo.Create(ctx, one))
	require.NoError(t, repo.Create(ctx, two))

	tests := []struct {
		search string
		want   []string
	}{
		{"petr", []string{"POL-2"}},
		{"abc", []string{"POL-1"}},
		{"pol-", []string{"POL-1", "POL-2"}},
		{"  ", []string{"POL-1", "POL-2"}},
		{"nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got, err := repo.List(ctx, ContractFilter{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, tt.want, policies(got))
		})
	}
}

func TestContractRepository_SetArchivedAndDelete(t *testing.T) {
	repo := NewContract(database.NewTestDB(t))
	ctx := context.Background()

	contract := newContract("POL-1", "", date(2027, 1, 1))
	require.NoError(t, repo.Create(ctx, contract))

	require.NoError(t, repo.SetArchived(ctx, contract.ID, true, date(2026, 5, 5)))
	got, err := repo.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	require.NoError(t, repo.Delete(ctx, contract.ID))
	_, err = repo.GetByID(ctx, contract.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, contract.ID), common.ErrNotFound)
	assert.ErrorIs(t, repo.SetArchived(ctx, contract.ID, false, date(2026, 5, 6)), common.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func policies(contracts []Contract) []string {
	var out []string
	for _, c := range contracts {
		out = append(out, c.PolicyNo)
	}
	return out
}

func TestContractRepository_EvictsAfterCommit(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewContract(db)
	txService := services.NewTransactionService(db)
	ctx := context.Background()

	contract := newContract("POL-1", "ABC123", date(2027, 1, 1))
	require.NoError(t, repo.Create(ctx, contract))

	// each eviction records what a reader outside the transaction would load
	var evicted []string
	repo.(*contractRepository).evictNow = func(_ context.Context, id int) {
		var committed Contract
		if err := db.SQL.First(&committed, "id = ?", id).Error; err != nil {
			evicted = append(evicted, "gone")
			return
		}
		evicted = append(evicted, committed.ClientName)
	}

	tests := []struct {
		name  string
		write func(txCtx context.Context) error
		want  string
	}{
		{
			name: "update",
			write: func(txCtx context.Context) error {
				changed := *contract
				changed.ClientName = "Ona Onaitė"
				return repo.Update(txCtx, contract.ID, &changed)
			},
			want: "Ona Onaitė",
		},
		{
			name: "archive",
			write: func(txCtx context.Context) error {
				return repo.SetArchived(txCtx, contract.ID, true, date(2026, 2, 1))
			},
			want: "Ona Onaitė",
		},
		{
			name: "delete",
			write: func(txCtx context.Context) error {
				return repo.Delete(txCtx, contract.ID)
			},
			want: "gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evicted = nil
			err := txService.Execute(ctx, func(txCtx context.Context) error {
				if err := tt.write(txCtx); err != nil {
					return err
				}
				assert.Empty(t, evicted, "evicted before commit")
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, evicted)
		})
	}
}

func TestContractRepository_RollbackKeepsCache(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewContract(db)
	txService := services.NewTransactionService(db)
	ctx := context.Background()

	contract := newContract("POL-1", "ABC123", date(2027, 1, 1))
	require.NoError(t, repo.Create(ctx, contract))

	evictions := 0
	repo.(*contractRepository).evictNow = func(context.Context, int) { evictions++ }

	err := txService.Execute(ctx, func(txCtx context.Context) error {
		if err := repo.Delete(txCtx, contract.ID); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Zero(t, evictions)

	require.NoError(t, repo.SetArchived(ctx, contract.ID, true, date(2026, 2, 1)))
	assert.Equal(t, 1, evictions, "writes outside a transaction evict immediately")
}
