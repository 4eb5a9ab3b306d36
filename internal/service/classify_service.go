package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"

	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/log"
)

// PredictionCache 缓存单条查询的预测标签，为可选依赖。
type PredictionCache interface {
	Get(ctx context.Context, key string) ([]uint8, bool, error)
	Set(ctx context.Context, key string, labels []uint8) error
}

// ClassifyService 接口定义了查询分类操作。
type ClassifyService interface {
	// Classify 返回 query 在每个类别上的标签，按标签降序、类别名升序排列。
	// query 为空白时所有类别为 0，按类别顺序返回，不调用模型。
	Classify(ctx context.Context, query, genre string) (*model.Classification, error)
}

type classifyService struct {
	runtime *Runtime
	cache   PredictionCache
}

// NewClassifyService 创建一个新的 ClassifyService 实例。cache 可以为 nil。
func NewClassifyService(runtime *Runtime, cache PredictionCache) ClassifyService {
	return &classifyService{runtime: runtime, cache: cache}
}

func (s *classifyService) Classify(ctx context.Context, query, genre string) (*model.Classification, error) {
	categories := s.runtime.Categories()
	result := &model.Classification{Query: query, Genre: genre}

	if query == "" {
		result.Results = make([]model.CategoryLabel, len(categories))
		for i, c := range categories {
			result.Results[i] = model.CategoryLabel{Category: c}
		}
		return result, nil
	}

	if _, known := model.IndicatorsFor(genre); !known {
		log.Warnf("[ClassifyService] 未知的来源 '%s'，来源特征全部置 0", genre)
	}

	labels, err := s.predict(ctx, query, genre)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(categories) {
		return nil, fmt.Errorf("model returned %d labels for %d categories", len(labels), len(categories))
	}

	result.Results = make([]model.CategoryLabel, len(categories))
	for i, c := range categories {
		result.Results[i] = model.CategoryLabel{Category: c, Label: labels[i]}
	}
	sort.SliceStable(result.Results, func(a, b int) bool {
		ra, rb := result.Results[a], result.Results[b]
		if ra.Label != rb.Label {
			return ra.Label > rb.Label
		}
		return ra.Category < rb.Category
	})
	return result, nil
}

func (s *classifyService) predict(ctx context.Context, query, genre string) ([]uint8, error) {
	key := s.cacheKey(query, genre)
	if s.cache != nil {
		labels, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warnf("[ClassifyService] 读取预测缓存失败: %v", err)
		} else if ok {
			return labels, nil
		}
	}

	pred, err := s.runtime.Classifier().Predict([]model.FeatureRow{model.NewFeatureRow(query, genre)})
	if err != nil {
		log.Errorf("[ClassifyService] 模型预测失败: %v", err)
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(pred) != 1 {
		return nil, fmt.Errorf("model returned %d rows for one query", len(pred))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, pred[0]); err != nil {
			log.Warnf("[ClassifyService] 写入预测缓存失败: %v", err)
		}
	}
	return pred[0], nil
}

// cacheKey 形如 dr:predict:<模型ID>:<来源>:<sha1(query)>，模型更新后旧缓存自然失效。
func (s *classifyService) cacheKey(query, genre string) string {
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("dr:predict:%s:%s:%s", s.runtime.Classifier().ID(), genre, hex.EncodeToString(sum[:]))
}
