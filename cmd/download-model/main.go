// Standalone tool that downloads the all-MiniLM-L6-v2 sentence-transformer
// model in ONNX format for the local embedding provider.
//
// Point the server at the destination directory via MODELS_DIR (or the
// default {data_dir}/models) and set EMBEDDING_ENDPOINT_MODEL=local.
//
// Usage: download-model <dest>
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knights-analytics/hugot"
)

const modelName = "sentence-transformers/all-MiniLM-L6-v2"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: download-model <dest>")
		os.Exit(1)
	}
	dest := os.Args[1]

	if dir, ok := existingModel(dest); ok {
		fmt.Printf("Model already present at %s\n", dir)
		return
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading %s to %s...\n", modelName, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"

	var modelPath string
	var err error
	delay := 2 * time.Second
	for i := range 4 {
		if i > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}

		if modelPath, err = hugot.DownloadModel(modelName, dest, opts); err == nil {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model ready at %s\n", modelPath)
}

// existingModel looks for a subdirectory of dest that already holds the
// tokenizer and ONNX weights, matching what the embedding provider loads.
func existingModel(dest string) (string, bool) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(dest, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "tokenizer.json")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "onnx", "model.onnx")); err != nil {
			continue
		}
		return dir, true
	}
	return "", false
}
