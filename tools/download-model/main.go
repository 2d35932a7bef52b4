// Build-time tool that fetches the all-MiniLM-L6-v2 sentence-transformer
// model into infrastructure/provider/models/ so it can be compiled into
// the binary with the embed_model build tag.
//
// Usage: go run ./tools/download-model [dest]
package main

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"
)

const modelRepo = "sentence-transformers/all-MiniLM-L6-v2"

func main() {
	dest := "infrastructure/provider/models"
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	if err := run(dest); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	fmt.Printf("downloading %s to %s\n", modelRepo, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(modelRepo, dest, opts)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}

	fmt.Printf("model ready at %s\n", modelPath)
	return nil
}
