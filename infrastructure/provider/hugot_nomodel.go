//go:build !embed_model

package provider

import "embed"

// Without the embed_model build tag the binary ships no model files;
// HugotEmbedding then requires a model directory on disk.
var embeddedModelFS embed.FS

const hasEmbeddedModel = false
