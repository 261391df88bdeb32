package models

// Status describes the stored entries and the corpus currently served.
type Status struct {
	Entries         int64         `json:"entries"`
	CorpusEntries   int           `json:"corpus_entries"`
	CorpusDimension int           `json:"corpus_dimension"`
	DiskUsageBytes  *int64        `json:"disk_usage_bytes,omitempty"`
	Config          *StatusConfig `json:"config,omitempty"`
}

// StatusConfig is the configuration summary reported with Status.
type StatusConfig struct {
	EmbeddingProvider   string `json:"embedding_provider"`
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	DefaultK            int    `json:"default_k"`
	MaxK                int    `json:"max_k"`
	NormalizeCorpus     bool   `json:"normalize_corpus"`
	DatabasePath        string `json:"database_path,omitempty"`
	DocsDirectory       string `json:"docs_directory,omitempty"`
	DocsWatch           bool   `json:"docs_watch"`
}
