package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
	"github.com/mamadbah2/kitledger/internal/repository/memory"
)

func sampleTable() models.StockTable {
	return models.StockTable{Equipment: catalog.Illumina, Entries: []models.StockEntry{
		{Kit: "P1 300", Quantity: 0},
		{Kit: "P1 600", Quantity: 7},
		{Kit: "P2 200", Quantity: 3},
	}}
}

func TestAddThenDeductScenario(t *testing.T) {
	table := sampleTable()

	table, err := Add(table, "P1 300", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, table.Entries[0].Quantity)

	table, err = Deduct(table, "P1 300", 20)
	require.NoError(t, err)
	assert.Equal(t, 30, table.Entries[0].Quantity)

	after, err := Deduct(table, "P1 300", 100)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, table, after)
	assert.Equal(t, 30, table.Entries[0].Quantity)
}

func TestDeductRejectsWithoutModifyingInput(t *testing.T) {
	table := sampleTable()
	before := table.Clone()

	_, err := Deduct(table, "P2 200", 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, before, table)

	_, err = Deduct(table, "Nonexistent Kit", 1)
	assert.ErrorIs(t, err, ErrKitNotFound)
	assert.Equal(t, before, table)

	_, err = Deduct(table, "P2 200", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, before, table)
}

func TestDeductExactQuantityReachesZero(t *testing.T) {
	table, err := Deduct(sampleTable(), "P2 200", 3)
	require.NoError(t, err)
	assert.Zero(t, table.Entries[2].Quantity)
}

func TestSuccessfulMutationsDoNotAliasInput(t *testing.T) {
	table := sampleTable()

	next, err := Deduct(table, "P1 600", 2)
	require.NoError(t, err)
	assert.Equal(t, 7, table.Entries[1].Quantity)
	assert.Equal(t, 5, next.Entries[1].Quantity)
	assert.Equal(t, table.Kits(), next.Kits(), "order preserved")
}

func TestDeductAddRoundTrip(t *testing.T) {
	base := sampleTable()
	for _, entry := range base.Entries {
		for amount := 1; amount <= 8; amount++ {
			deducted, err := Deduct(base, entry.Kit, amount)
			if amount > entry.Quantity {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				continue
			}
			require.NoError(t, err)

			restored, err := Add(deducted, entry.Kit, amount)
			require.NoError(t, err)
			assert.Equal(t, base, restored, "kit %s amount %d", entry.Kit, amount)
		}
	}
}

func TestAddIncreasesTotalByAmount(t *testing.T) {
	table := sampleTable()
	before := Total(table)
	assert.Equal(t, 10, before)

	table, err := Add(table, "P2 200", 15)
	require.NoError(t, err)
	assert.Equal(t, before+15, Total(table))
}

func TestAddRejections(t *testing.T) {
	table := sampleTable()

	_, err := Add(table, "Nonexistent Kit", 1)
	assert.ErrorIs(t, err, ErrKitNotFound)

	_, err = Add(table, "P1 600", -3)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	table.Entries[1].Quantity = math.MaxInt - 1
	_, err = Add(table, "P1 600", 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLoadSeedsWhenNothingPersisted(t *testing.T) {
	svc := NewService(memory.NewStore(), catalog.Default(), nil, nil)

	table, err := svc.Load(context.Background(), catalog.Illumina)
	require.NoError(t, err)

	kits, err := catalog.Default().Kits(catalog.Illumina)
	require.NoError(t, err)
	assert.Equal(t, kits, table.Kits())
	assert.Zero(t, Total(table))
}

func TestLoadTrustsPersistedTable(t *testing.T) {
	store := memory.NewStore()
	store.PutRaw(repository.TableStock, catalog.PacBio, [][]string{{"Kit", "Quantidade"}, {"Custom Kit", "4"}, {"MagBeads", "0"}})
	svc := NewService(store, nil, nil, nil)

	table, err := svc.Load(context.Background(), catalog.PacBio)
	require.NoError(t, err)
	assert.Equal(t, catalog.PacBio, table.Equipment)
	assert.Equal(t, []models.StockEntry{{Kit: "Custom Kit", Quantity: 4}, {Kit: "MagBeads", Quantity: 0}}, table.Entries)
}

func TestLoadFallsBackOnBackendFailure(t *testing.T) {
	store := memory.NewStore()
	store.FailReads(repository.TableStock, errors.New("connection refused"))
	svc := NewService(store, nil, nil, nil)

	table, err := svc.Load(context.Background(), catalog.Illumina)
	require.NoError(t, err)
	assert.Len(t, table.Entries, 10)
}

func TestLoadUnknownEquipment(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil, nil)

	_, err := svc.Load(context.Background(), "Nanopore")
	assert.ErrorIs(t, err, catalog.ErrUnknownEquipment)
}

func TestLoadForUpdateDistinguishesMalformedFromUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil, nil, nil)

	store.PutRaw(repository.TableStock, catalog.Illumina, [][]string{{"Reagente", "Qtd"}, {"P1 300", "5"}})
	table, err := svc.LoadForUpdate(ctx, catalog.Illumina)
	require.NoError(t, err)
	assert.Zero(t, Total(table))
	assert.Len(t, table.Entries, 10)

	cause := errors.New("timeout")
	store.FailReads(repository.TableStock, cause)
	_, err = svc.LoadForUpdate(ctx, catalog.Illumina)
	assert.ErrorIs(t, err, repository.ErrUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestLoadForUpdateRefusesBadCell(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil, nil, nil)
	store.PutRaw(repository.TableStock, catalog.Illumina, [][]string{{"Kit", "Quantidade"}, {"P1 300", "40"}, {"P2 200", ""}})

	_, err := svc.LoadForUpdate(ctx, catalog.Illumina)
	assert.ErrorIs(t, err, repository.ErrInvalidCell)
	assert.ErrorIs(t, err, repository.ErrUnavailable)

	table, err := svc.Load(ctx, catalog.Illumina)
	require.NoError(t, err)
	assert.Len(t, table.Entries, 10, "read path falls back to the seed")
}

func TestSaveOverwritesAndStampsEquipment(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil, nil, nil)

	table, err := svc.Load(ctx, catalog.Illumina)
	require.NoError(t, err)
	table, err = Add(table, "P3 300", 2)
	require.NoError(t, err)
	table.Equipment = ""

	require.NoError(t, svc.Save(ctx, catalog.Illumina, table))

	reloaded, err := svc.Load(ctx, catalog.Illumina)
	require.NoError(t, err)
	assert.Equal(t, catalog.Illumina, reloaded.Equipment)
	assert.Equal(t, 2, reloaded.Entries[reloaded.Index("P3 300")].Quantity)
}
