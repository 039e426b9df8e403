package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
	"github.com/mamadbah2/kitledger/internal/repository/memory"
)

func TestRecordDeductionCountsEachCall(t *testing.T) {
	var table models.UsageHistoryTable

	for i := 0; i < 4; i++ {
		table = RecordDeduction(table, "P1 300")
	}
	table = RecordDeduction(table, "P2 200")

	freq, ok := table.Frequency("P1 300")
	require.True(t, ok)
	assert.Equal(t, 4, freq)

	freq, ok = table.Frequency("P2 200")
	require.True(t, ok)
	assert.Equal(t, 1, freq)

	_, ok = table.Frequency("P3 200")
	assert.False(t, ok, "a kit never deducted has no record")
	assert.Equal(t, []string{"P1 300", "P2 200"}, []string{table.Records[0].Kit, table.Records[1].Kit})
}

func TestRecordDeductionLeavesInputUntouched(t *testing.T) {
	table := models.UsageHistoryTable{Records: []models.UsageRecord{{Kit: "A", Frequency: 2}}}

	next := RecordDeduction(table, "A")
	assert.Equal(t, 2, table.Records[0].Frequency)
	assert.Equal(t, 3, next.Records[0].Frequency)
}

func TestLoadEmptyWhenNothingPersisted(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)

	table := svc.Load(context.Background(), "Illumina")
	assert.Empty(t, table.Records)
	assert.Equal(t, models.Equipment("Illumina"), table.Equipment)
}

func TestLoadDiscardsTableMissingColumn(t *testing.T) {
	store := memory.NewStore()
	store.PutRaw(repository.TableHistory, "Illumina", [][]string{{"Kit", "Usos"}, {"P1 300", "3"}})
	svc := NewService(store, nil, nil)

	assert.Empty(t, svc.Load(context.Background(), "Illumina").Records)

	table, err := svc.LoadForUpdate(context.Background(), "Illumina")
	require.NoError(t, err)
	assert.Empty(t, table.Records)
}

func TestLoadForUpdateReportsUnavailable(t *testing.T) {
	store := memory.NewStore()
	store.FailReads(repository.TableHistory, errors.New("503"))
	svc := NewService(store, nil, nil)

	assert.Empty(t, svc.Load(context.Background(), "PacBio").Records)

	_, err := svc.LoadForUpdate(context.Background(), "PacBio")
	assert.ErrorIs(t, err, repository.ErrUnavailable)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), nil, nil)

	table := RecordDeduction(svc.Load(ctx, "PacBio"), "MagBeads")
	require.NoError(t, svc.Save(ctx, "PacBio", table))

	reloaded := svc.Load(ctx, "PacBio")
	assert.Equal(t, []models.UsageRecord{{Kit: "MagBeads", Frequency: 1}}, reloaded.Records)
}
