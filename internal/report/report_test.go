package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pable/go-nrl-stats/internal/model"
)

func sampleRows() ([]string, []model.PlayerRecord) {
	a := model.PlayerRecord{Round: "1", Name: "Nathan Cleary", Position1: "HLF"}
	a.Stats.Set("TCK", model.Number(21))
	a.Stats.Set("MT", model.DashValue())

	b := model.PlayerRecord{Round: "1", Name: "Cleary, Nathan", Position1: "HLF", Position2: "WFB"}
	b.Stats.Set("TCK", model.Number(3))
	b.Stats.Set("KM", model.Number(412.5))

	headers := []string{model.ColRound, model.ColPlayer, model.ColPosition1, model.ColPosition2, "TCK", "MT", "KM"}
	return headers, []model.PlayerRecord{a, b}
}

func TestRenderCSV_Quoted(t *testing.T) {
	headers, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, headers, rows, DefaultCSVOptions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)
	for _, r := range records {
		assert.Len(t, r, len(headers))
	}
	assert.Equal(t, headers, records[0])
	assert.Equal(t, []string{"1", "Nathan Cleary", "HLF", "", "21", "-", ""}, records[1])
	assert.Equal(t, "Cleary, Nathan", records[2][1])
	assert.Equal(t, "412.5", records[2][6])
}

func TestRenderCSV_RawJoin(t *testing.T) {
	headers, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, headers, rows[:1], CSVOptions{Delimiter: ';'}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Round;Player;Position 1;Position 2;TCK;MT;KM", lines[0])
	assert.Equal(t, "1;Nathan Cleary;HLF;;21;-;", lines[1])
}

func TestRenderCSV_TabDelimited(t *testing.T) {
	headers, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, headers, rows, CSVOptions{Delimiter: '\t', Quote: true}))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "Cleary, Nathan", records[2][1])
}

func TestRenderCSV_QuotesNewlines(t *testing.T) {
	rec := model.PlayerRecord{Name: "line\nbreak"}
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, []string{model.ColPlayer}, []model.PlayerRecord{rec}, DefaultCSVOptions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "line\nbreak", records[1][0])
}

func TestRenderCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, []string{"Player"}, nil, DefaultCSVOptions()))
	assert.Equal(t, "Player\n", buf.String())
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": ',', "tab": '\t', ";": ';', "|": '|', "pipe": '|'}
	for in, want := range cases {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{`"`, "ab", "\n"} {
		_, err := ParseDelimiter(bad)
		assert.Error(t, err, bad)
	}
}

func TestWriteFile_ReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.csv")
	require.NoError(t, os.WriteFile(path, []byte("old contents\n"), 0o644))

	headers, rows := sampleRows()
	require.NoError(t, WriteFile(path, headers, rows, DefaultCSVOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Round,Player,"))
	assertNoTempFiles(t, dir)
}

func TestWriteFile_FailureLeavesPriorFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	headers, rows := sampleRows()
	err := WriteFile(path, headers, rows, CSVOptions{Delimiter: '"', Quote: true})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(data))
	assertNoTempFiles(t, dir)
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	headers, rows := sampleRows()
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "stats.csv"), headers, rows, DefaultCSVOptions())
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	headers, rows := sampleRows()
	require.NoError(t, WriteXLSX(path, headers, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, "21", got[1][4])
	assert.Equal(t, "-", got[1][5])
	assert.Equal(t, "412.5", got[2][6])
}

func TestCommitAll_RenamesEveryOutput(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "stats.csv")
	bookPath := filepath.Join(dir, "stats.xlsx")
	require.NoError(t, os.WriteFile(csvPath, []byte("previous\n"), 0o644))

	headers, rows := sampleRows()
	book, err := StageXLSX(bookPath, headers, rows)
	require.NoError(t, err)
	table, err := StageCSV(csvPath, headers, rows, DefaultCSVOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data), "staging must not touch the destination")
	assert.NoFileExists(t, bookPath)

	require.NoError(t, CommitAll(book, table))
	assert.FileExists(t, bookPath)
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Round,Player,"))
	assertNoTempFiles(t, dir)
}

func TestStage_DiscardLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	headers, rows := sampleRows()
	st, err := StageCSV(path, headers, rows, DefaultCSVOptions())
	require.NoError(t, err)
	st.Discard()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
	assertNoTempFiles(t, dir)
}

func TestStageXLSX_MissingDirectory(t *testing.T) {
	headers, rows := sampleRows()
	_, err := StageXLSX(filepath.Join(t.TempDir(), "nope", "stats.xlsx"), headers, rows)
	assert.Error(t, err)
}

func TestPrintTable_Limit(t *testing.T) {
	headers, rows := sampleRows()
	var buf bytes.Buffer
	PrintTable(&buf, headers, rows, 1)

	out := buf.String()
	assert.Contains(t, out, "Nathan Cleary")
	assert.NotContains(t, out, "Cleary, Nathan")
	assert.Contains(t, out, "1 more rows")
}

func TestPrintStatDefs(t *testing.T) {
	var buf bytes.Buffer
	PrintStatDefs(&buf, model.StatDefs)
	assert.Contains(t, buf.String(), "FDO")
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "leftover temp file %s", e.Name())
	}
}

func TestCountUnsafe(t *testing.T) {
	headers, rows := sampleRows()
	assert.Equal(t, 1, CountUnsafe(headers, rows, ','))
	assert.Equal(t, 0, CountUnsafe(headers, rows, ';'))
}
