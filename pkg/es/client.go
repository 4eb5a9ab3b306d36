// Package es 提供了与 Elasticsearch 交互的客户端功能：把清洗后的消息写入检索索引。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"disaster-response-go/internal/config"
	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// bulkBatchSize 是单个 _bulk 请求包含的文档数。
const bulkBatchSize = 500

// messageMapping 是消息索引的结构。
const messageMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "long" },
			"message": { "type": "text", "analyzer": "english" },
			"original": { "type": "text" },
			"genre": { "type": "keyword" },
			"categories": { "type": "keyword" }
		}
	}
}`

// MessageDocument 是索引中的一条消息。
type MessageDocument struct {
	ID         int64    `json:"id"`
	Message    string   `json:"message"`
	Original   string   `json:"original,omitempty"`
	Genre      string   `json:"genre"`
	Categories []string `json:"categories"`
}

// MessageIndexer 把结构化数据表写入 Elasticsearch 索引。
type MessageIndexer struct {
	client    *elasticsearch.Client
	indexName string
}

// NewMessageIndexer 初始化 Elasticsearch 客户端并确保索引存在。
func NewMessageIndexer(esCfg config.ElasticsearchConfig) (*MessageIndexer, error) {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	idx := &MessageIndexer{client: client, indexName: esCfg.IndexName}
	if err := idx.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return idx, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (i *MessageIndexer) createIndexIfNotExists() error {
	res, err := i.client.Indices.Exists([]string{i.indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", i.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithBody(strings.NewReader(messageMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", i.indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", i.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", i.indexName)
	return nil
}

// IndexMessages 实现 etl.MessageIndexer，分批使用 _bulk 写入，文档 ID 为消息 ID。
// 同一 ID 出现多次时后写入的覆盖先写入的。
func (i *MessageIndexer) IndexMessages(ctx context.Context, table *model.MessageTable) error {
	docs := Documents(table)
	for start := 0; start < len(docs); start += bulkBatchSize {
		end := min(start+bulkBatchSize, len(docs))
		body, err := bulkBody(i.indexName, docs[start:end])
		if err != nil {
			return err
		}
		req := esapi.BulkRequest{
			Body:    bytes.NewReader(body),
			Refresh: "false",
		}
		res, err := req.Do(ctx, i.client)
		if err != nil {
			return err
		}
		failed, err := bulkFailed(res)
		if err != nil {
			return err
		}
		if failed {
			return fmt.Errorf("bulk 写入第 %d-%d 条消息时出现失败条目", start, end)
		}
	}
	return nil
}

func bulkFailed(res *esapi.Response) (bool, error) {
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("bulk 请求返回错误: %s", res.String())
	}
	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("解析 bulk 响应失败: %w", err)
	}
	return parsed.Errors, nil
}

// Documents 把数据表转换为索引文档，categories 为标签为 1 的类别。
func Documents(table *model.MessageTable) []MessageDocument {
	docs := make([]MessageDocument, len(table.Records))
	for r, rec := range table.Records {
		d := MessageDocument{
			ID:         rec.ID,
			Message:    rec.Message,
			Original:   rec.Original,
			Genre:      rec.Genre,
			Categories: []string{},
		}
		for c, l := range rec.Labels {
			if l == 1 {
				d.Categories = append(d.Categories, table.Categories[c])
			}
		}
		docs[r] = d
	}
	return docs
}

// bulkBody 生成 _bulk 请求的 NDJSON 正文。
func bulkBody(indexName string, docs []MessageDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		meta := map[string]map[string]string{
			"index": {"_index": indexName, "_id": strconv.FormatInt(d.ID, 10)},
		}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		if err := enc.Encode(d); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
