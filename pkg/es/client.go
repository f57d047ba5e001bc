// Package es 提供了与 Elasticsearch 交互的客户端功能。
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

	"pastpapers-go/internal/config"
	"pastpapers-go/internal/model"
	"pastpapers-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
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
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

const paperMapping = `{
	"mappings": {
		"properties": {
			"paper_id": { "type": "long" },
			"title": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"course_code": { "type": "keyword" },
			"department": { "type": "keyword" },
			"year": { "type": "integer" },
			"semester": { "type": "keyword" },
			"text_content": { "type": "text", "analyzer": "english" }
		}
	}
}`

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(paperMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// PaperIndex 封装对论文索引的读写。
type PaperIndex struct {
	client    *elasticsearch.Client
	indexName string
}

// NewPaperIndex 创建 PaperIndex。
func NewPaperIndex(client *elasticsearch.Client, indexName string) *PaperIndex {
	return &PaperIndex{client: client, indexName: indexName}
}

// IndexPaper 以论文 ID 作为文档 ID 写入（或覆盖）一篇论文。
func (p *PaperIndex) IndexPaper(ctx context.Context, doc model.PaperDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      p.indexName,
		DocumentID: strconv.FormatUint(uint64(doc.PaperID), 10),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// DeletePaper 删除一篇论文的索引文档，文档不存在时视为成功。
func (p *PaperIndex) DeletePaper(ctx context.Context, paperID uint) error {
	req := esapi.DeleteRequest{
		Index:      p.indexName,
		DocumentID: strconv.FormatUint(uint64(paperID), 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除索引文档失败: %s", res.String())
	}
	return nil
}

// Search 在标题、课程号与正文上做全文检索。
func (p *PaperIndex) Search(ctx context.Context, query string, size int) ([]model.SearchResponseDTO, error) {
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "course_code^2", "text_content"},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"text_content": map[string]interface{}{"fragment_size": 150, "number_of_fragments": 3},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.indexName),
		p.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch 检索失败: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score     float64             `json:"_score"`
				Source    model.PaperDocument `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析检索结果失败: %w", err)
	}

	results := make([]model.SearchResponseDTO, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, model.SearchResponseDTO{
			PaperID:    hit.Source.PaperID,
			Title:      hit.Source.Title,
			CourseCode: hit.Source.CourseCode,
			Department: hit.Source.Department,
			Year:       hit.Source.Year,
			Semester:   hit.Source.Semester,
			Score:      hit.Score,
			Highlights: hit.Highlight["text_content"],
		})
	}
	return results, nil
}
