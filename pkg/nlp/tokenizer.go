// Package nlp 提供分类流水线使用的文本切词。
package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// NormalizerGolemEnglish 是默认的词形归一方式，写入模型产物用于兼容性校验。
const NormalizerGolemEnglish = "golem-english-lemma"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// 英文词典较大，进程内只解压一次。
var englishLemmatizer = sync.OnceValue(func() *golem.Lemmatizer {
	l, err := golem.New(en.New())
	if err != nil {
		panic(fmt.Sprintf("nlp: load english lemma dictionary: %v", err))
	}
	return l
})

// Tokenizer 把一段文本切分为归一化后的词列表：
// 小写、非字母数字替换为空格、按空白切分、去停用词、词形还原。
type Tokenizer struct {
	stopWords map[string]struct{}
	normalize func(string) string
}

// NewTokenizer 使用英文停用词表与英文词形还原词典创建 Tokenizer。
func NewTokenizer() *Tokenizer {
	stop := make(map[string]struct{}, len(englishStopWords))
	for _, w := range englishStopWords {
		stop[w] = struct{}{}
	}
	lemmatizer := englishLemmatizer()
	return &Tokenizer{
		stopWords: stop,
		normalize: func(word string) string {
			return strings.TrimSpace(lemmatizer.Lemma(word))
		},
	}
}

// Name 返回归一化方式的名称。
func (t *Tokenizer) Name() string {
	return NormalizerGolemEnglish
}

// Tokenize 返回 text 的词列表，可能为空。
func (t *Tokenizer) Tokenize(text string) []string {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), " ")
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if t.isStopWord(w) {
			continue
		}
		if tok := t.normalize(w); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func (t *Tokenizer) isStopWord(word string) bool {
	_, ok := t.stopWords[word]
	return ok
}
