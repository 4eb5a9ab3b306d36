package etl

import (
	"fmt"
	"strings"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/log"
)

const (
	categorySeparator = ";"
	// relatedCategory 的原始数据偶尔出现三态取值 2，清洗时归并为 1。
	relatedCategory = "related"
)

// CleanData 把合并后的原始行整理为结构化数据表：
//  1. 来源独热展开为 genre_direct/genre_news/genre_social；
//  2. 类别字符串展开为每个类别一列，列名取自第一行，其余行必须与之一致；
//  3. related 列的 2 归并为 1，其余类别必须是二值；
//  4. 删除完全重复的行，保留首次出现。
func CleanData(rows []RawRow) (*model.MessageTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("合并结果为空，没有任何匹配的 id: %w", apperr.ErrSchemaMismatch)
	}

	categories, err := categoryNames(rows[0].Categories)
	if err != nil {
		return nil, fmt.Errorf("消息 %d: %w", rows[0].ID, err)
	}
	relatedIdx := indexOf(categories, relatedCategory)

	table := &model.MessageTable{
		Categories: categories,
		Records:    make([]model.MessageRecord, 0, len(rows)),
	}
	unknownGenres := make(map[string]int)

	for _, row := range rows {
		labels, err := expandCategories(row.Categories, categories)
		if err != nil {
			return nil, fmt.Errorf("消息 %d: %w", row.ID, err)
		}
		if relatedIdx >= 0 && labels[relatedIdx] == 2 {
			labels[relatedIdx] = 1
		}
		for i, v := range labels {
			if v > 1 {
				return nil, fmt.Errorf("消息 %d 的类别 %s 取值 %d 非二值: %w", row.ID, categories[i], v, apperr.ErrSchemaMismatch)
			}
		}

		genre, ok := model.IndicatorsFor(row.Genre)
		if !ok {
			unknownGenres[row.Genre]++
		}

		table.Records = append(table.Records, model.MessageRecord{
			ID:              row.ID,
			Message:         row.Message,
			Original:        row.Original,
			Genre:           row.Genre,
			GenreIndicators: genre,
			Labels:          labels,
		})
	}
	duplicates := Deduplicate(table)

	for g, n := range unknownGenres {
		log.Warnf("[ETL] 未知来源 %q 出现 %d 次，来源指示列全部置 0", g, n)
	}
	log.Infof("[ETL] 清洗完成: 输入 %d 行, 删除重复 %d 行, 输出 %d 行, 类别 %d 个",
		len(rows), duplicates, table.Len(), len(categories))
	return table, nil
}

// Deduplicate 删除完全重复的记录，保留首次出现。对已清洗的表重复调用不会再删除任何行。
func Deduplicate(table *model.MessageTable) int {
	seen := make(map[string]struct{}, len(table.Records))
	kept := table.Records[:0]
	removed := 0
	for _, rec := range table.Records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, rec)
	}
	table.Records = kept
	return removed
}

// categoryNames 从形如 "related-1;request-0" 的字符串中取出类别名。
func categoryNames(raw string) ([]string, error) {
	parts, err := splitCategories(raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(parts))
	seen := make(map[string]bool, len(parts))
	for i, p := range parts {
		name := p[:strings.Index(p, "-")]
		if seen[name] {
			return nil, fmt.Errorf("类别 %q 重复: %w", name, apperr.ErrSchemaMismatch)
		}
		if isFixedColumn(name) {
			return nil, fmt.Errorf("类别 %q 与固定列同名: %w", name, apperr.ErrSchemaMismatch)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

// 存储层的列名不区分大小写。
func isFixedColumn(name string) bool {
	for _, c := range model.FixedColumns {
		if strings.EqualFold(name, c) {
			return true
		}
	}
	return false
}

// expandCategories 按 names 的顺序解析一行类别取值，名称或数量不一致即报错。
func expandCategories(raw string, names []string) ([]uint8, error) {
	parts, err := splitCategories(raw)
	if err != nil {
		return nil, err
	}
	if len(parts) != len(names) {
		return nil, fmt.Errorf("类别数量 %d 与首行的 %d 不一致: %w", len(parts), len(names), apperr.ErrSchemaMismatch)
	}
	labels := make([]uint8, len(parts))
	for i, p := range parts {
		name := p[:strings.Index(p, "-")]
		if name != names[i] {
			return nil, fmt.Errorf("第 %d 个类别为 %q，首行为 %q: %w", i+1, name, names[i], apperr.ErrSchemaMismatch)
		}
		last := p[len(p)-1]
		if last < '0' || last > '9' {
			return nil, fmt.Errorf("类别 %q 的取值不是数字: %w", p, apperr.ErrSchemaMismatch)
		}
		labels[i] = last - '0'
	}
	return labels, nil
}

func splitCategories(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("类别字符串为空: %w", apperr.ErrSchemaMismatch)
	}
	parts := strings.Split(raw, categorySeparator)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.Index(p, "-") <= 0 || len(p) < 3 {
			return nil, fmt.Errorf("类别项 %q 格式应为 名称-取值: %w", p, apperr.ErrSchemaMismatch)
		}
		parts[i] = p
	}
	return parts, nil
}

func indexOf(items []string, target string) int {
	for i, it := range items {
		if it == target {
			return i
		}
	}
	return -1
}
