package pipeline

import (
	"errors"
	"math"
	"sort"

	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/forest"
	"disaster-response-go/pkg/nlp"
)

// ErrNotFitted 表示在 Fit 之前调用了 Transform 或 Predict。
var ErrNotFitted = errors.New("pipeline: step is not fitted")

// TextVectorizer 对 message 列做切词、词频计数与 TF-IDF 加权：
// idf = ln((1+n)/(1+df)) + 1，每行再做 L2 归一化。
type TextVectorizer struct {
	tokenizer *nlp.Tokenizer
	terms     []string
	vocab     map[string]int32
	idf       []float64
}

// NewTextVectorizer 创建一个未拟合的 TextVectorizer。
func NewTextVectorizer(tokenizer *nlp.Tokenizer) *TextVectorizer {
	return &TextVectorizer{tokenizer: tokenizer}
}

// Columns 实现 Transformer。
func (v *TextVectorizer) Columns() []string {
	return []string{model.ColumnMessage}
}

// Dim 实现 Transformer。
func (v *TextVectorizer) Dim() int {
	return len(v.terms)
}

// vocabulary 返回按字母序排列的词表。
func (v *TextVectorizer) vocabulary() []string {
	return v.terms
}

// Fit 建立词表（按字母序编号）并计算逆文档频率。
func (v *TextVectorizer) Fit(rows []model.FeatureRow) error {
	df := make(map[string]int)
	for _, r := range rows {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenizer.Tokenize(r.Message) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(rows))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	v.restore(terms, idf)
	return nil
}

func (v *TextVectorizer) restore(terms []string, idf []float64) {
	v.terms = terms
	v.idf = idf
	v.vocab = make(map[string]int32, len(terms))
	for i, t := range terms {
		v.vocab[t] = int32(i)
	}
}

// Transform 实现 Transformer。词表外的词被忽略，没有任何词表内词的行输出空向量。
func (v *TextVectorizer) Transform(rows []model.FeatureRow) ([]forest.Sample, error) {
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	out := make([]forest.Sample, len(rows))
	for i, r := range rows {
		out[i] = v.transformOne(r.Message)
	}
	return out, nil
}

func (v *TextVectorizer) transformOne(text string) forest.Sample {
	counts := make(map[int32]float64)
	for _, tok := range v.tokenizer.Tokenize(text) {
		if idx, ok := v.vocab[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return forest.Sample{}
	}

	s := forest.Sample{
		Indices: make([]int32, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		s.Indices = append(s.Indices, idx)
	}
	sort.Slice(s.Indices, func(a, b int) bool { return s.Indices[a] < s.Indices[b] })

	norm := 0.0
	for _, idx := range s.Indices {
		w := counts[idx] * v.idf[idx]
		s.Values = append(s.Values, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range s.Values {
		s.Values[i] /= norm
	}
	return s
}
