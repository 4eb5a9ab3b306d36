// Package service 提供了看板与分类相关的业务逻辑。
package service

import (
	"fmt"
	"slices"
	"sort"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/model"
)

// 首页两个图的标题。
const (
	GenreChartTitle    = "Distribution of Message Genres"
	CategoryChartTitle = "Distribution of Kind of Disaster"
)

// Classifier 是服务阶段使用的已拟合流水线。
type Classifier interface {
	ID() string
	Categories() []string
	Predict(rows []model.FeatureRow) ([][]uint8, error)
}

// Runtime 是服务启动时构建的只读上下文：结构化数据表的快照、已拟合的流水线
// 以及预先计算好的首页聚合。构建后不再修改，可被多个请求并发读取。
type Runtime struct {
	table      *model.MessageTable
	classifier Classifier
	overview   model.Overview
}

// NewRuntime 校验数据表与流水线的类别一致后构建 Runtime。
func NewRuntime(table *model.MessageTable, classifier Classifier) (*Runtime, error) {
	if table == nil || classifier == nil {
		return nil, fmt.Errorf("runtime requires both a table and a classifier")
	}
	if !slices.Equal(table.Categories, classifier.Categories()) {
		return nil, fmt.Errorf("table categories %v differ from model categories %v: %w",
			table.Categories, classifier.Categories(), apperr.ErrSchemaMismatch)
	}
	return &Runtime{
		table:      table,
		classifier: classifier,
		overview:   buildOverview(table),
	}, nil
}

// Categories 返回类别列表，顺序与数据表一致。
func (r *Runtime) Categories() []string {
	return r.classifier.Categories()
}

// Classifier 返回已拟合的流水线。
func (r *Runtime) Classifier() Classifier {
	return r.classifier
}

// Overview 返回首页的聚合图。
func (r *Runtime) Overview() model.Overview {
	return r.overview
}

// MessageCount 返回数据表的行数。
func (r *Runtime) MessageCount() int {
	return r.table.Len()
}

func buildOverview(table *model.MessageTable) model.Overview {
	genreCounts := make(map[string]int)
	categoryCounts := make([]int, len(table.Categories))
	for _, rec := range table.Records {
		genreCounts[rec.Genre]++
		for c, l := range rec.Labels {
			if l == 1 {
				categoryCounts[c]++
			}
		}
	}

	genres := make([]string, 0, len(genreCounts))
	for g := range genreCounts {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	counts := make([]int, len(genres))
	for i, g := range genres {
		counts[i] = genreCounts[g]
	}

	return model.Overview{
		GenreCounts: model.Series{
			Title: GenreChartTitle, XTitle: "Genre", YTitle: "Count",
			X: genres, Y: counts,
		},
		CategoryCounts: model.Series{
			Title: CategoryChartTitle, XTitle: "Disaster", YTitle: "Count",
			X: append([]string(nil), table.Categories...), Y: categoryCounts,
		},
	}
}
