// Package etl 把原始的消息与类别 CSV 合并、清洗为结构化数据表。
package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/pkg/log"
)

// RawRow 是合并后、清洗前的一行。
type RawRow struct {
	ID         int64
	Message    string
	Original   string
	Genre      string
	Categories string
}

type messageRow struct {
	id       int64
	message  string
	original string
	genre    string
}

// LoadData 读取两个 CSV 文件并按 id 内连接。任一侧未匹配的 id 会被丢弃；
// 一对多匹配时每一对都产生一行，输出顺序跟随消息文件。
func LoadData(messagesPath, categoriesPath string) ([]RawRow, error) {
	messages, err := readMessages(messagesPath)
	if err != nil {
		return nil, err
	}
	categories, err := readCategories(categoriesPath)
	if err != nil {
		return nil, err
	}
	return merge(messages, categories), nil
}

// merge 执行内连接。
func merge(messages []messageRow, categories map[int64][]string) []RawRow {
	merged := make([]RawRow, 0, len(messages))
	dropped := 0
	for _, m := range messages {
		cats, ok := categories[m.id]
		if !ok {
			dropped++
			continue
		}
		for _, c := range cats {
			merged = append(merged, RawRow{
				ID:         m.id,
				Message:    m.message,
				Original:   m.original,
				Genre:      m.genre,
				Categories: c,
			})
		}
	}
	if dropped > 0 {
		log.Debugf("[ETL] %d 条消息在类别文件中没有匹配的 id，已丢弃", dropped)
	}
	return merged
}

func readMessages(path string) ([]messageRow, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idIdx, err := findColIndex(header, "id", path)
	if err != nil {
		return nil, err
	}
	msgIdx, err := findColIndex(header, "message", path)
	if err != nil {
		return nil, err
	}
	genreIdx, err := findColIndex(header, "genre", path)
	if err != nil {
		return nil, err
	}
	// original 列可选
	origIdx, _ := findColIndex(header, "original", path)

	rows := make([]messageRow, 0, len(records))
	for line, rec := range records {
		id, err := parseID(rec[idIdx], path, line+2)
		if err != nil {
			return nil, err
		}
		row := messageRow{id: id, message: rec[msgIdx], genre: rec[genreIdx]}
		if origIdx >= 0 {
			row.original = rec[origIdx]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readCategories(path string) (map[int64][]string, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idIdx, err := findColIndex(header, "id", path)
	if err != nil {
		return nil, err
	}
	catIdx, err := findColIndex(header, "categories", path)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64][]string, len(records))
	for line, rec := range records {
		id, err := parseID(rec[idIdx], path, line+2)
		if err != nil {
			return nil, err
		}
		byID[id] = append(byID[id], rec[catIdx])
	}
	return byID, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%s: %w", path, apperr.ErrInputNotFound)
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("%s 为空文件: %w", path, apperr.ErrSchemaMismatch)
		}
		return nil, nil, fmt.Errorf("读取 %s 表头失败: %w", path, parseErr(err))
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("解析 %s 失败: %w", path, parseErr(err))
	}
	return header, records, nil
}

// parseErr 把 CSV 格式错误（包括字段数与表头不一致的行）归为结构不匹配。
func parseErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", err, apperr.ErrSchemaMismatch)
	}
	return err
}

// findColIndex 在表头中查找列名，大小写不敏感；找不到时返回 -1。
func findColIndex(header []string, target, path string) (int, error) {
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), target) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s 缺少列 %q: %w", path, target, apperr.ErrSchemaMismatch)
}

func parseID(raw, path string, line int) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s 第 %d 行 id %q 不是整数: %w", path, line, raw, apperr.ErrSchemaMismatch)
	}
	return id, nil
}
