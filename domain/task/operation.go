package task

import "strings"

// Operation represents the type of task operation.
type Operation string

// Operation values for the task queue system.
const (
	OperationRoot             Operation = "dokit.root"
	OperationDocument         Operation = "dokit.document"
	OperationIngestDocument   Operation = "dokit.document.ingest"
	OperationExtractText      Operation = "dokit.document.ingest.extract_text"
	OperationCreateEmbeddings Operation = "dokit.document.ingest.create_embeddings"
	OperationDeleteDocument   Operation = "dokit.document.delete"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsDocumentOperation returns true if this is a document-level operation.
func (o Operation) IsDocumentOperation() bool {
	return strings.HasPrefix(string(o), "dokit.document.")
}

// IsIngestOperation returns true if this operation is a stage of the
// ingestion pipeline.
func (o Operation) IsIngestOperation() bool {
	return strings.HasPrefix(string(o), "dokit.document.ingest.")
}

// PrescribedOperations provides predefined operation sequences for common workflows.
type PrescribedOperations struct{}

// NewPrescribedOperations creates a PrescribedOperations.
func NewPrescribedOperations() PrescribedOperations {
	return PrescribedOperations{}
}

// All returns every operation that appears in any prescribed workflow.
// Used at startup to validate that all required handlers are registered.
func (p PrescribedOperations) All() []Operation {
	seen := make(map[Operation]struct{})
	var all []Operation

	for _, ops := range [][]Operation{
		p.IngestDocument(),
		p.DeleteDocument(),
	} {
		for _, op := range ops {
			if _, ok := seen[op]; !ok {
				seen[op] = struct{}{}
				all = append(all, op)
			}
		}
	}
	return all
}

// IngestDocument returns the operation sequence for ingesting a document:
// extract text from the stored blob, then chunk and embed it. Re-running
// the sequence replaces any chunks from a previous run, so the same
// workflow serves both first ingestion and reindexing.
func (p PrescribedOperations) IngestDocument() []Operation {
	return []Operation{
		OperationExtractText,
		OperationCreateEmbeddings,
	}
}

// DeleteDocument returns the operation sequence for deleting a document
// together with its chunks and stored blob.
func (p PrescribedOperations) DeleteDocument() []Operation {
	return []Operation{
		OperationDeleteDocument,
	}
}
