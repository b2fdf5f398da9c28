package service

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/sirupsen/logrus"

	"hrassist/tools"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
	topKChunks   = 3
	embedBatch   = 64
)

// Embedder is the slice of the LLM client the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type docChunk struct {
	content string
	source  string
	page    int
	vector  []float64
}

// DocRetriever serves top-K semantic lookups over policy documents loaded
// into memory at startup.
type DocRetriever struct {
	embedder Embedder
	chunks   []docChunk
	logger   *logrus.Logger
}

func NewDocRetriever(embedder Embedder, logger *logrus.Logger) *DocRetriever {
	return &DocRetriever{embedder: embedder, logger: logger}
}

// LoadDir indexes every markdown/text/HTML document in dir. A missing or
// empty directory leaves the corpus empty; searches then return no
// matches instead of failing.
func (r *DocRetriever) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warnf("policy docs dir %s unreadable, serving empty corpus: %s", dir, err)
		return nil
	}

	var chunks []docChunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" && ext != ".html" && ext != ".htm" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			r.logger.Warnf("failed to read %s: %s", entry.Name(), err)
			continue
		}

		text := string(raw)
		if ext == ".html" || ext == ".htm" {
			converted, err := htmltomarkdown.ConvertString(text)
			if err != nil {
				r.logger.Warnf("failed to convert %s to markdown: %s", entry.Name(), err)
				continue
			}
			text = converted
		}

		pieces := splitText(text, chunkSize, chunkOverlap)
		for i, piece := range pieces {
			chunks = append(chunks, docChunk{content: piece, source: entry.Name(), page: i + 1})
		}
		r.logger.Infof("indexed %s: %d chunks", entry.Name(), len(pieces))
	}

	if len(chunks) == 0 {
		r.logger.Warnf("no policy documents found in %s", dir)
		return nil
	}

	for start := 0; start < len(chunks); start += embedBatch {
		end := start + embedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.content)
		}
		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed policy chunks: %w", err)
		}
		for i := range vectors {
			chunks[start+i].vector = vectors[i]
		}
	}

	r.chunks = chunks
	r.logger.Infof("policy corpus ready: %d chunks total", len(chunks))
	return nil
}

// Search returns the top-K chunks by cosine similarity. An empty corpus
// yields an empty result, not an error.
func (r *DocRetriever) Search(ctx context.Context, query string) ([]tools.Reference, error) {
	if len(r.chunks) == 0 || strings.TrimSpace(query) == "" {
		return []tools.Reference{}, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVector := vectors[0]

	type scored struct {
		chunk docChunk
		score float64
	}
	ranked := make([]scored, 0, len(r.chunks))
	for _, c := range r.chunks {
		ranked = append(ranked, scored{chunk: c, score: cosine(queryVector, c.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	k := topKChunks
	if k > len(ranked) {
		k = len(ranked)
	}
	refs := make([]tools.Reference, 0, k)
	for i := 0; i < k; i++ {
		refs = append(refs, tools.Reference{
			Content: ranked[i].chunk.content,
			Source:  ranked[i].chunk.source,
			Page:    ranked[i].chunk.page,
			Index:   i + 1,
		})
	}
	return refs, nil
}

// splitText cuts text into rune-safe windows with overlap.
func splitText(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	step := size - overlap
	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
