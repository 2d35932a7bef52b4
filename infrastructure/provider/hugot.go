package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// hugotBatchMax caps the number of texts per pipeline run. Embed splits
// larger requests into batches of this size.
const hugotBatchMax = 10

// ortShared holds the process-wide ONNX Runtime session and pipeline.
// ORT allows one active session per process, so every HugotEmbedding
// shares this one. The mutex serializes loading and inference because
// ORT is not thread-safe.
var ortShared struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	loaded   bool
}

// HugotEmbedding generates embeddings locally with the all-MiniLM-L6-v2
// sentence-transformer model through the hugot runtime.
//
// Model files are looked up in two places, in order: a subdirectory of
// cacheDir holding tokenizer.json, then the copy compiled into the binary
// (build tag embed_model), which is unpacked into cacheDir on first use.
type HugotEmbedding struct {
	cacheDir string
}

// NewHugotEmbedding creates an embedder that keeps its model files under
// cacheDir.
func NewHugotEmbedding(cacheDir string) *HugotEmbedding {
	return &HugotEmbedding{cacheDir: cacheDir}
}

// Available reports whether a usable model exists, on disk or compiled in.
func (h *HugotEmbedding) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := h.modelOnDisk()
	return err == nil
}

// Embed generates embeddings for the given texts with the local model,
// splitting oversized requests into pipeline-sized batches.
func (h *HugotEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}
	if err := h.ensurePipeline(); err != nil {
		return EmbeddingResponse{}, fmt.Errorf("initialize hugot: %w", err)
	}

	embeddings := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += hugotBatchMax {
		if err := ctx.Err(); err != nil {
			return EmbeddingResponse{}, err
		}
		end := min(start+hugotBatchMax, len(texts))
		batch, err := h.embedBatch(texts[start:end])
		if err != nil {
			return EmbeddingResponse{}, err
		}
		embeddings = append(embeddings, batch...)
	}

	return NewEmbeddingResponse(embeddings, NewUsage(0, 0, 0)), nil
}

func (h *HugotEmbedding) embedBatch(texts []string) ([][]float64, error) {
	// Inference runs under the shared mutex; ORT is not thread-safe.
	ortShared.mu.Lock()
	defer ortShared.mu.Unlock()

	result, err := ortShared.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}

	vectors := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		vectors[i] = vec64
	}
	return vectors, nil
}

// Close is a no-op. The runtime session is process-global and torn down
// with the process.
func (h *HugotEmbedding) Close() error { return nil }

// ensurePipeline loads the shared session and feature-extraction pipeline
// on first use.
func (h *HugotEmbedding) ensurePipeline() error {
	ortShared.mu.Lock()
	defer ortShared.mu.Unlock()

	if ortShared.loaded {
		return nil
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	modelPath, err := h.locateModel()
	if err != nil {
		_ = session.Destroy()
		return err
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "builtin-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortShared.session = session
	ortShared.pipeline = pipeline
	ortShared.loaded = true
	return nil
}

// locateModel returns a usable model directory, preferring files already
// on disk over the compiled-in copy.
func (h *HugotEmbedding) locateModel() (string, error) {
	if diskPath, err := h.modelOnDisk(); err == nil {
		return diskPath, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model found in %s and no embedded model compiled in (build with -tags embed_model)", h.cacheDir)
	}
	if err := os.MkdirAll(h.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return unpackEmbeddedModel(embeddedModelFS, h.cacheDir)
}

// modelOnDisk scans cacheDir for a subdirectory containing tokenizer.json.
func (h *HugotEmbedding) modelOnDisk() (string, error) {
	entries, err := os.ReadDir(h.cacheDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", h.cacheDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.cacheDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", h.cacheDir)
}

// unpackEmbeddedModel copies the compiled-in model files under targetDir
// and returns the resulting model directory. A previously unpacked model
// is left untouched.
func unpackEmbeddedModel(embedded fs.FS, targetDir string) (string, error) {
	modelsFS, err := fs.Sub(embedded, "models")
	if err != nil {
		return "", fmt.Errorf("access embedded models: %w", err)
	}

	name, err := embeddedModelName(modelsFS)
	if err != nil {
		return "", err
	}

	modelPath := filepath.Join(targetDir, name)
	if _, statErr := os.Stat(filepath.Join(modelPath, "tokenizer.json")); statErr == nil {
		return modelPath, nil
	}

	modelFS, err := fs.Sub(modelsFS, name)
	if err != nil {
		return "", fmt.Errorf("access model subdirectory: %w", err)
	}
	if err := copyFSOverwriting(modelFS, modelPath); err != nil {
		return "", fmt.Errorf("extract embedded model: %w", err)
	}
	return modelPath, nil
}

// embeddedModelName returns the single model directory under models/.
func embeddedModelName(modelsFS fs.FS) (string, error) {
	entries, err := fs.ReadDir(modelsFS, ".")
	if err != nil {
		return "", fmt.Errorf("read embedded models: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("no model directory found in embedded models")
}

// copyFSOverwriting mirrors src onto dst, replacing existing files so a
// partial extraction can be repaired. os.CopyFS refuses to overwrite.
func copyFSOverwriting(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		target := filepath.Join(dst, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return fmt.Errorf("read embedded file %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
		return os.WriteFile(target, data, 0o644)
	})
}

var _ Embedder = (*HugotEmbedding)(nil)
