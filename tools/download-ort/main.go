// Build-time tool that fetches the native libraries hugot needs: the ONNX
// Runtime shared library and the HuggingFace tokenizers static library.
//
// Required env: ORT_VERSION        (e.g. "1.23.2")
// Optional env: ORT_LIB_DIR        (default "./lib")
//               TOKENIZERS_VERSION (default "1.24.0")
//
// Usage: ORT_VERSION=1.23.2 go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// artifact describes one downloadable library: a display name, the release
// archive URL, and the file name it must end up under in the destination.
type artifact struct {
	name     string
	url      string
	fileName string
}

func main() {
	ortVersion := os.Getenv("ORT_VERSION")
	if ortVersion == "" {
		fmt.Fprintln(os.Stderr, "ORT_VERSION env var is required")
		os.Exit(1)
	}

	tokVersion := os.Getenv("TOKENIZERS_VERSION")
	if tokVersion == "" {
		tokVersion = "1.24.0"
	}

	destDir := os.Getenv("ORT_LIB_DIR")
	if destDir == "" {
		destDir = "./lib"
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	artifacts, err := platformArtifacts(ortVersion, tokVersion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// The archives live on different hosts; fetch them concurrently.
	var g errgroup.Group
	for _, a := range artifacts {
		g.Go(func() error { return install(a, destDir) })
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
		os.Exit(1)
	}
}

func platformArtifacts(ortVersion, tokVersion string) ([]artifact, error) {
	var ortArchive, ortLib, tokArchive string
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/amd64":
		ortArchive = fmt.Sprintf("onnxruntime-linux-x64-%s.tgz", ortVersion)
		ortLib = "libonnxruntime.so"
		tokArchive = "libtokenizers.linux-amd64.tar.gz"
	case "linux/arm64":
		ortArchive = fmt.Sprintf("onnxruntime-linux-aarch64-%s.tgz", ortVersion)
		ortLib = "libonnxruntime.so"
		tokArchive = "libtokenizers.linux-arm64.tar.gz"
	case "darwin/arm64":
		ortArchive = fmt.Sprintf("onnxruntime-osx-arm64-%s.tgz", ortVersion)
		ortLib = "libonnxruntime.dylib"
		tokArchive = "libtokenizers.darwin-arm64.tar.gz"
	case "darwin/amd64":
		ortArchive = fmt.Sprintf("onnxruntime-osx-x86_64-%s.tgz", ortVersion)
		ortLib = "libonnxruntime.dylib"
		tokArchive = "libtokenizers.darwin-x86_64.tar.gz"
	default:
		return nil, fmt.Errorf("no prebuilt libraries for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	return []artifact{
		{
			name:     "ONNX Runtime " + ortVersion,
			url:      fmt.Sprintf("https://github.com/microsoft/onnxruntime/releases/download/v%s/%s", ortVersion, ortArchive),
			fileName: ortLib,
		},
		{
			name:     "tokenizers " + tokVersion,
			url:      fmt.Sprintf("https://github.com/daulet/tokenizers/releases/download/v%s/%s", tokVersion, tokArchive),
			fileName: "libtokenizers.a",
		},
	}, nil
}

func install(a artifact, destDir string) error {
	destPath := filepath.Join(destDir, a.fileName)
	if _, err := os.Stat(destPath); err == nil {
		fmt.Printf("%s already exists at %s, skipping\n", a.name, destPath)
		return nil
	}

	fmt.Printf("Downloading %s from %s\n", a.name, a.url)

	var err error
	delay := 2 * time.Second
	for i := range 4 {
		if i > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if err = fetchAndExtract(a.url, destDir, a.fileName); err == nil {
			fmt.Printf("%s installed to %s\n", a.name, destPath)
			return nil
		}
	}
	return err
}

func fetchAndExtract(url, destDir, fileName string) error {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return extractTgz(resp.Body, destDir, fileName)
}

func extractTgz(body io.Reader, destDir, fileName string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	// Strip extension to match versioned variants like libonnxruntime.1.23.2.dylib
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		// Skip symlinks and directories; we want the real file.
		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(header.Name)
		if base != fileName && !strings.HasPrefix(base, nameWithoutExt+".") {
			continue
		}

		return writeFile(filepath.Join(destDir, fileName), tr)
	}

	return fmt.Errorf("%s not found in archive", fileName)
}

func writeFile(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return out.Close()
}
