// Package model 定义了消息记录、结构化数据表与特征行等核心数据结构。
package model

import (
	"strconv"
	"strings"
)

// Genre 是消息的来源渠道。
type Genre string

const (
	GenreDirect Genre = "direct"
	GenreNews   Genre = "news"
	GenreSocial Genre = "social"
)

// Genres 是封闭的来源集合，顺序与独热列一致。
var Genres = []Genre{GenreDirect, GenreNews, GenreSocial}

// 结构化数据表的固定列。类别列紧随其后。
const (
	ColumnID          = "id"
	ColumnMessage     = "message"
	ColumnOriginal    = "original"
	ColumnGenre       = "genre"
	ColumnGenreDirect = "genre_direct"
	ColumnGenreNews   = "genre_news"
	ColumnGenreSocial = "genre_social"
)

// FixedColumns 按存储顺序列出固定列。
var FixedColumns = []string{
	ColumnID, ColumnMessage, ColumnOriginal, ColumnGenre,
	ColumnGenreDirect, ColumnGenreNews, ColumnGenreSocial,
}

// GenreColumns 是作为特征透传的三个来源指示列。
var GenreColumns = []string{ColumnGenreDirect, ColumnGenreNews, ColumnGenreSocial}

// GenreIndicators 是来源的独热表示。
type GenreIndicators struct {
	Direct uint8 `json:"genre_direct"`
	News   uint8 `json:"genre_news"`
	Social uint8 `json:"genre_social"`
}

// IndicatorsFor 返回 genre 对应的独热表示；未知来源返回全零，第二个返回值为 false。
func IndicatorsFor(genre string) (GenreIndicators, bool) {
	switch Genre(genre) {
	case GenreDirect:
		return GenreIndicators{Direct: 1}, true
	case GenreNews:
		return GenreIndicators{News: 1}, true
	case GenreSocial:
		return GenreIndicators{Social: 1}, true
	default:
		return GenreIndicators{}, false
	}
}

// Values 按 GenreColumns 的顺序返回指示值。
func (g GenreIndicators) Values() [3]float64 {
	return [3]float64{float64(g.Direct), float64(g.News), float64(g.Social)}
}

// MessageRecord 是结构化数据表中的一行。
type MessageRecord struct {
	ID       int64
	Message  string
	Original string
	Genre    string
	GenreIndicators
	// Labels 与 MessageTable.Categories 一一对应，取值为 0 或 1。
	Labels []uint8
}

// Features 返回该记录的特征行。
func (r MessageRecord) Features() FeatureRow {
	return FeatureRow{Message: r.Message, GenreIndicators: r.GenreIndicators}
}

// Key 返回整行内容的唯一表示，用于去重。
func (r MessageRecord) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.ID, 10))
	for _, s := range []string{r.Message, r.Original, r.Genre} {
		b.WriteByte(0)
		b.WriteString(s)
	}
	b.WriteByte(0)
	b.WriteByte('0' + r.Direct)
	b.WriteByte('0' + r.News)
	b.WriteByte('0' + r.Social)
	b.WriteByte(0)
	for _, l := range r.Labels {
		b.WriteString(strconv.Itoa(int(l)))
		b.WriteByte(',')
	}
	return b.String()
}

// MessageTable 是清洗后的结构化数据表，行序即存储顺序。
type MessageTable struct {
	Categories []string
	Records    []MessageRecord
}

// Columns 返回数据表的完整列名，固定列在前，类别列在后。
func (t *MessageTable) Columns() []string {
	cols := make([]string, 0, len(FixedColumns)+len(t.Categories))
	cols = append(cols, FixedColumns...)
	return append(cols, t.Categories...)
}

// Len 返回行数。
func (t *MessageTable) Len() int {
	return len(t.Records)
}

// Features 返回全部行的特征。
func (t *MessageTable) Features() []FeatureRow {
	rows := make([]FeatureRow, len(t.Records))
	for i, r := range t.Records {
		rows[i] = r.Features()
	}
	return rows
}

// Labels 返回全部行的标签矩阵，行对应记录，列对应类别。
func (t *MessageTable) Labels() [][]uint8 {
	labels := make([][]uint8, len(t.Records))
	for i, r := range t.Records {
		labels[i] = r.Labels
	}
	return labels
}

// FeatureRow 是分类流水线的一行输入：文本列加三个来源指示列。
type FeatureRow struct {
	Message string
	GenreIndicators
}

// NewFeatureRow 由用户输入构建单行特征；未知来源得到全零指示。
func NewFeatureRow(message, genre string) FeatureRow {
	g, _ := IndicatorsFor(genre)
	return FeatureRow{Message: message, GenreIndicators: g}
}
