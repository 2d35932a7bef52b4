//go:build embed_model

package provider

import "embed"

// embeddedModelFS carries the model files compiled into the binary.
//
//go:embed all:models
var embeddedModelFS embed.FS

const hasEmbeddedModel = true
