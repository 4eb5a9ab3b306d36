package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFeatureRow(t *testing.T) {
	tests := []struct {
		genre string
		want  GenreIndicators
	}{
		{"direct", GenreIndicators{Direct: 1}},
		{"news", GenreIndicators{News: 1}},
		{"social", GenreIndicators{Social: 1}},
		{"radio", GenreIndicators{}},
		{"", GenreIndicators{}},
	}
	for _, tt := range tests {
		t.Run(tt.genre, func(t *testing.T) {
			row := NewFeatureRow("we need water", tt.genre)
			assert.Equal(t, "we need water", row.Message)
			assert.Equal(t, tt.want, row.GenreIndicators)

			var set float64
			for _, v := range row.Values() {
				set += v
			}
			if tt.want == (GenreIndicators{}) {
				assert.Zero(t, set)
			} else {
				assert.Equal(t, 1.0, set)
			}
		})
	}
}

func TestRecordKeyDistinguishesLabels(t *testing.T) {
	a := MessageRecord{ID: 1, Message: "m", Genre: "news", Labels: []uint8{1, 0}}
	b := a
	b.Labels = []uint8{1, 1}

	assert.Equal(t, a.Key(), a.Key())
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestTableColumns(t *testing.T) {
	table := MessageTable{Categories: []string{"related", "water"}}
	assert.Equal(t, []string{
		"id", "message", "original", "genre",
		"genre_direct", "genre_news", "genre_social",
		"related", "water",
	}, table.Columns())
}
