package etl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
	"disaster-response-go/internal/model"
	"disaster-response-go/internal/repository"
	"disaster-response-go/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDataInnerJoin(t *testing.T) {
	dir := t.TempDir()
	messages := writeFile(t, dir, "messages.csv", `id,message,original,genre
1,first,,direct
2,second,deuxieme,news
3,orphan message,,social
`)
	categories := writeFile(t, dir, "categories.csv", `id,categories
2,related-1;water-0
1,related-0;water-0
9,related-1;water-1
`)

	rows, err := LoadData(messages, categories)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(2), rows[1].ID)
	assert.Equal(t, "deuxieme", rows[1].Original)
	assert.Equal(t, "related-1;water-0", rows[1].Categories)
}

func TestLoadDataManyToMany(t *testing.T) {
	dir := t.TempDir()
	messages := writeFile(t, dir, "messages.csv", "id,message,genre\n5,dup,news\n")
	categories := writeFile(t, dir, "categories.csv", "id,categories\n5,related-1\n5,related-1\n")

	rows, err := LoadData(messages, categories)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Empty(t, rows[0].Original)
}

func TestLoadDataMissingFile(t *testing.T) {
	dir := t.TempDir()
	categories := writeFile(t, dir, "categories.csv", "id,categories\n1,related-1\n")

	_, err := LoadData(filepath.Join(dir, "nope.csv"), categories)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInputNotFound))
}

func TestLoadDataMissingColumn(t *testing.T) {
	dir := t.TempDir()
	messages := writeFile(t, dir, "messages.csv", "id,text,genre\n1,hello,direct\n")
	categories := writeFile(t, dir, "categories.csv", "id,categories\n1,related-1\n")

	_, err := LoadData(messages, categories)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSchemaMismatch))
}

func TestLoadDataRaggedRow(t *testing.T) {
	dir := t.TempDir()
	messages := writeFile(t, dir, "messages.csv", "id,message,genre\n1,hello,direct\n2,short\n")
	categories := writeFile(t, dir, "categories.csv", "id,categories\n1,related-1\n")

	_, err := LoadData(messages, categories)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSchemaMismatch)
	assert.Equal(t, 4, apperr.ExitCode(err))
}

func TestCleanDataRejectsFixedColumnNames(t *testing.T) {
	for _, name := range []string{"id", "genre", "Message", "genre_news"} {
		t.Run(name, func(t *testing.T) {
			rows := []RawRow{{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;" + name + "-0"}}

			_, err := CleanData(rows)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrSchemaMismatch)
		})
	}
}

func TestCleanDataTwoRowScenario(t *testing.T) {
	rows := []RawRow{
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-0"},
		{ID: 2, Message: "B", Genre: "news", Categories: "related-1;water-1"},
	}

	table, err := CleanData(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"related", "water"}, table.Categories)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []uint8{1, 0}, table.Records[0].Labels)
	assert.Equal(t, []uint8{1, 1}, table.Records[1].Labels)
	assert.Equal(t, model.GenreIndicators{Direct: 1}, table.Records[0].GenreIndicators)
	assert.Equal(t, model.GenreIndicators{News: 1}, table.Records[1].GenreIndicators)
}

func TestCleanDataCollapsesRelated(t *testing.T) {
	rows := []RawRow{
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-2;water-0"},
		{ID: 2, Message: "B", Genre: "social", Categories: "related-0;water-1"},
	}

	table, err := CleanData(rows)
	require.NoError(t, err)
	for _, rec := range table.Records {
		for _, v := range rec.Labels {
			assert.LessOrEqual(t, v, uint8(1))
		}
	}
	assert.Equal(t, uint8(1), table.Records[0].Labels[0])
}

func TestCleanDataRejectsNonBinaryLabel(t *testing.T) {
	rows := []RawRow{{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-2"}}

	_, err := CleanData(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSchemaMismatch))
}

func TestCleanDataValidatesAgainstFirstRow(t *testing.T) {
	tests := []struct {
		name   string
		second string
	}{
		{"renamed", "related-1;food-1"},
		{"reordered", "water-1;related-1"},
		{"missing", "related-1"},
		{"extra", "related-1;water-0;food-0"},
		{"empty", ""},
		{"no value", "related;water-0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []RawRow{
				{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-0"},
				{ID: 2, Message: "B", Genre: "direct", Categories: tt.second},
			}
			_, err := CleanData(rows)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrSchemaMismatch))
			assert.Contains(t, err.Error(), "消息 2")
		})
	}
}

func TestCleanDataDropsDuplicates(t *testing.T) {
	rows := []RawRow{
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-0"},
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-0"},
		// 归并 related 之后与第一行相同
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-2;water-0"},
		{ID: 1, Message: "A", Genre: "direct", Categories: "related-1;water-1"},
	}

	table, err := CleanData(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	// 幂等：对清洗结果再去重不会删除任何行
	assert.Zero(t, Deduplicate(table))
	assert.Equal(t, 2, table.Len())
}

func TestCleanDataUnknownGenre(t *testing.T) {
	rows := []RawRow{{ID: 1, Message: "A", Genre: "radio", Categories: "related-1"}}

	table, err := CleanData(rows)
	require.NoError(t, err)
	assert.Equal(t, model.GenreIndicators{}, table.Records[0].GenreIndicators)
	assert.Equal(t, "radio", table.Records[0].Genre)
}

type recordingIndexer struct {
	indexed int
}

func (r *recordingIndexer) IndexMessages(_ context.Context, table *model.MessageTable) error {
	r.indexed += table.Len()
	return nil
}

func TestProcessorRun(t *testing.T) {
	dir := t.TempDir()
	messages := writeFile(t, dir, "messages.csv", "id,message,original,genre\n1,A,,direct\n2,B,,news\n")
	categories := writeFile(t, dir, "categories.csv", "id,categories\n1,related-1;water-0\n2,related-1;water-1\n")
	dbPath := filepath.Join(dir, "DisasterResponse.db")

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dbPath})
	require.NoError(t, err)
	defer database.Close(db)

	repo := repository.NewMessageRepository(db, "Disaster")
	indexer := &recordingIndexer{}
	var out bytes.Buffer

	_, err = NewProcessor(repo, indexer).Run(context.Background(), Paths{
		Messages: messages, Categories: categories, Database: dbPath,
	}, &out)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.String(), "Loading data..."))
	assert.Contains(t, out.String(), "Cleaning data...")
	assert.Contains(t, out.String(), "DATABASE: "+dbPath)
	assert.Contains(t, out.String(), "Cleaned data saved to database!")
	assert.Equal(t, 2, indexer.indexed)

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, []uint8{1, 1}, loaded.Records[1].Labels)
}
