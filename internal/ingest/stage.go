package ingest

// Stage identifies where an ingestion run currently is. Failure can happen
// at any stage; IngestionError carries the stage that failed.
type Stage string

const (
	StagePending    Stage = "pending"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)
