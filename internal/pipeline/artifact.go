package pipeline

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/pkg/forest"
	"disaster-response-go/pkg/nlp"
)

// 模型产物格式标记。结构不兼容的改动需要递增 ArtifactVersion。
const (
	ArtifactFormat  = "disaster-response-pipeline"
	ArtifactVersion = 2
)

// ArtifactInfo 是模型产物的头部，加载时先于模型主体读取并校验。
type ArtifactInfo struct {
	Format         string
	Version        int
	ID             string
	CreatedAt      time.Time
	Tokenizer      string
	Categories     []string
	FeatureColumns []string
	Dim            int
	NEstimators    int
}

type artifactBody struct {
	Terms   []string
	IDF     []float64
	Params  forest.Params
	Forests []*forest.Forest
}

// Info 返回流水线的产物头部。未拟合的流水线 ID 为空。
func (p *Pipeline) Info() ArtifactInfo {
	return ArtifactInfo{
		Format:         ArtifactFormat,
		Version:        ArtifactVersion,
		ID:             p.id,
		CreatedAt:      p.createdAt,
		Tokenizer:      p.tokenizer.Name(),
		Categories:     p.categories,
		FeatureColumns: p.FeatureColumns(),
		Dim:            p.Dim(),
		NEstimators:    p.classifier.Params.NEstimators,
	}
}

// ID 返回本次拟合生成的产物 ID。
func (p *Pipeline) ID() string {
	return p.id
}

func (p *Pipeline) stamp() {
	p.id = uuid.NewString()
	p.createdAt = time.Now().UTC()
}

// Save 以 gob 编码、zstd 压缩写出拟合好的流水线。
func Save(w io.Writer, p *Pipeline) error {
	if p.id == "" {
		return ErrNotFitted
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := gob.NewEncoder(zw)
	body := artifactBody{
		Terms:   p.text.vocabulary(),
		IDF:     p.text.idf,
		Params:  p.classifier.Params,
		Forests: p.classifier.Forests,
	}
	if err := enc.Encode(p.Info()); err != nil {
		zw.Close()
		return fmt.Errorf("encode artifact header: %w", err)
	}
	if err := enc.Encode(body); err != nil {
		zw.Close()
		return fmt.Errorf("encode artifact body: %w", err)
	}
	return zw.Close()
}

// Load 读取 Save 写出的流水线。格式、版本或词形归一方式不匹配时返回 ErrModelIncompatible。
func Load(r io.Reader) (*Pipeline, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %v: %w", err, apperr.ErrModelIncompatible)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var info ArtifactInfo
	if err := dec.Decode(&info); err != nil {
		return nil, fmt.Errorf("decode artifact header: %v: %w", err, apperr.ErrModelIncompatible)
	}
	if info.Format != ArtifactFormat || info.Version != ArtifactVersion {
		return nil, fmt.Errorf("artifact %q version %d, want %q version %d: %w",
			info.Format, info.Version, ArtifactFormat, ArtifactVersion, apperr.ErrModelIncompatible)
	}
	if info.Tokenizer != nlp.NormalizerGolemEnglish {
		return nil, fmt.Errorf("artifact tokenizer %q, want %q: %w",
			info.Tokenizer, nlp.NormalizerGolemEnglish, apperr.ErrModelIncompatible)
	}

	var body artifactBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode artifact body: %v: %w", err, apperr.ErrModelIncompatible)
	}
	if len(body.Terms) != len(body.IDF) || len(body.Forests) != len(info.Categories) {
		return nil, fmt.Errorf("artifact body is inconsistent with header: %w", apperr.ErrModelIncompatible)
	}

	p := New(info.Categories, body.Params)
	p.text.restore(body.Terms, body.IDF)
	p.classifier.Forests = body.Forests
	p.id = info.ID
	p.createdAt = info.CreatedAt
	if p.Dim() != info.Dim {
		return nil, fmt.Errorf("artifact feature dim %d, rebuilt %d: %w", info.Dim, p.Dim(), apperr.ErrModelIncompatible)
	}
	return p, nil
}

// SaveFile 先写临时文件再原子替换 path，必要时创建父目录。
func SaveFile(path string, p *Pipeline) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile 从 path 读取流水线，文件不存在时返回 ErrInputNotFound。
func LoadFile(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model %s: %w", path, apperr.ErrInputNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
