package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
)

// fakeSpreadsheet mimics the Sheets API for a single spreadsheet.
type fakeSpreadsheet struct {
	sheets  map[string][][]interface{}
	order   []string
	calls   []string
	failGet error
}

func newFakeSpreadsheet() *fakeSpreadsheet {
	return &fakeSpreadsheet{sheets: make(map[string][][]interface{})}
}

func (f *fakeSpreadsheet) SheetTitles(_ context.Context) ([]string, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	return append([]string(nil), f.order...), nil
}

func (f *fakeSpreadsheet) AddSheet(_ context.Context, title string) error {
	f.calls = append(f.calls, "add:"+title)
	f.order = append(f.order, title)
	f.sheets[title] = nil
	return nil
}

func (f *fakeSpreadsheet) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	return f.sheets[titleOf(sheetRange)], nil
}

func (f *fakeSpreadsheet) ClearRange(_ context.Context, sheetRange string) error {
	f.calls = append(f.calls, "clear:"+sheetRange)
	f.sheets[titleOf(sheetRange)] = nil
	return nil
}

func (f *fakeSpreadsheet) WriteRange(_ context.Context, sheetRange string, values [][]interface{}) error {
	f.calls = append(f.calls, "write:"+sheetRange)
	f.sheets[titleOf(sheetRange)] = values
	return nil
}

func titleOf(sheetRange string) string {
	title := sheetRange[:strings.LastIndex(sheetRange, "!")]
	return strings.ReplaceAll(strings.Trim(title, "'"), "''", "'")
}

func TestReadWithoutWorksheetIsEmpty(t *testing.T) {
	s := NewStore(newFakeSpreadsheet(), nil)

	stock, err := s.ReadStock(context.Background(), "Illumina")
	require.NoError(t, err)
	assert.Empty(t, stock.Entries)
}

func TestWriteCreatesWorksheetThenClearsAndRewrites(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSpreadsheet()
	s := NewStore(fake, nil)

	table := models.StockTable{Entries: []models.StockEntry{{Kit: "P1 300", Quantity: 50}}}
	require.NoError(t, s.WriteStock(ctx, "Illumina", table))

	assert.Equal(t, []string{
		"add:Estoque_Illumina",
		"clear:'Estoque_Illumina'!A:Z",
		"write:'Estoque_Illumina'!A1",
	}, fake.calls)

	got, err := s.ReadStock(ctx, "Illumina")
	require.NoError(t, err)
	assert.Equal(t, []models.StockEntry{{Kit: "P1 300", Quantity: 50}}, got.Entries)

	require.NoError(t, s.WriteStock(ctx, "Illumina", table))
	assert.Len(t, fake.calls, 5, "existing worksheet must not be re-added")
}

func TestWriteSendsQuantitiesAsNumbers(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSpreadsheet()
	s := NewStore(fake, nil)

	table := models.StockTable{Entries: []models.StockEntry{{Kit: "P1 300", Quantity: 50}}}
	require.NoError(t, s.WriteStock(ctx, "Illumina", table))
	history := models.UsageHistoryTable{Records: []models.UsageRecord{{Kit: "P1 300", Frequency: 2}}}
	require.NoError(t, s.WriteHistory(ctx, "Illumina", history))

	stock := fake.sheets["Estoque_Illumina"]
	assert.Equal(t, []interface{}{"Kit", "Quantidade"}, stock[0])
	assert.IsType(t, "", stock[1][0])
	assert.IsType(t, 0, stock[1][1])
	assert.Equal(t, 50, stock[1][1])
	assert.Equal(t, []interface{}{"P1 300", 2}, fake.sheets["Historico_Illumina"][1])
}

func TestReadHistoryDecodesNumericCells(t *testing.T) {
	fake := newFakeSpreadsheet()
	require.NoError(t, fake.AddSheet(context.Background(), "Historico_PacBio"))
	fake.sheets["Historico_PacBio"] = [][]interface{}{{"Kit", "Frequencia"}, {"MagBeads", float64(4)}}
	s := NewStore(fake, nil)

	got, err := s.ReadHistory(context.Background(), "PacBio")
	require.NoError(t, err)
	assert.Equal(t, []models.UsageRecord{{Kit: "MagBeads", Frequency: 4}}, got.Records)
}

func TestReadHistoryLegacyWorksheetIsMalformed(t *testing.T) {
	fake := newFakeSpreadsheet()
	require.NoError(t, fake.AddSheet(context.Background(), "Historico_PacBio"))
	fake.sheets["Historico_PacBio"] = [][]interface{}{{"Kit"}, {"MagBeads"}}

	_, err := NewStore(fake, nil).ReadHistory(context.Background(), "PacBio")
	assert.ErrorIs(t, err, repository.ErrMalformed)
}

func TestReadPropagatesAPIFailure(t *testing.T) {
	fake := newFakeSpreadsheet()
	fake.failGet = errors.New("quota exceeded")

	_, err := NewStore(fake, nil).ReadStock(context.Background(), "Illumina")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrMalformed)
}

func TestWorksheetTitle(t *testing.T) {
	assert.Equal(t, "Estoque_PacBio", WorksheetTitle(repository.TableStock, "PacBio"))
	assert.Equal(t, "Historico_PacBio", WorksheetTitle(repository.TableHistory, "PacBio"))
	assert.Equal(t, "'O''Brien'!A1", quoteRange("O'Brien", "A1"))
}
