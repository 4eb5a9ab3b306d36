package es

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disaster-response-go/internal/model"
)

func sampleTable() *model.MessageTable {
	return &model.MessageTable{
		Categories: []string{"related", "water"},
		Records: []model.MessageRecord{
			{ID: 5, Message: "need water", Original: "bezwen dlo", Genre: "direct", Labels: []uint8{1, 1}},
			{ID: 9, Message: "weather report", Genre: "news", Labels: []uint8{0, 0}},
		},
	}
}

func TestDocuments(t *testing.T) {
	docs := Documents(sampleTable())
	require.Len(t, docs, 2)
	assert.Equal(t, MessageDocument{
		ID: 5, Message: "need water", Original: "bezwen dlo", Genre: "direct",
		Categories: []string{"related", "water"},
	}, docs[0])
	assert.Equal(t, []string{}, docs[1].Categories)
}

func TestBulkBody(t *testing.T) {
	body, err := bulkBody("disaster_messages", Documents(sampleTable()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	require.Len(t, lines, 4)

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "disaster_messages", meta["index"]["_index"])
	assert.Equal(t, "5", meta["index"]["_id"])

	var doc MessageDocument
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &doc))
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, "news", doc.Genre)
	assert.NotContains(t, lines[3], "original")
}
