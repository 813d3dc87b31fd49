package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a work item in a transport-friendly format.
type Item struct {
	ID          int64  `json:"id"`
	SourceURL   string `json:"sourceUrl"`
	Title       string `json:"title"`
	SourceName  string `json:"sourceName,omitempty"`
	Status      string `json:"status"`
	Failed      bool   `json:"failed"`
	LastError   string `json:"lastError,omitempty"`
	RawRef      string `json:"rawRef,omitempty"`
	CleanedRef  string `json:"cleanedRef,omitempty"`
	PostRef     string `json:"postRef,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Document is the front matter of one document attached to an item.
type Document struct {
	Ref     string `json:"ref"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Chars   int    `json:"chars"`
	Error   string `json:"error,omitempty"`
}

// ItemDetail is an item plus its documents.
type ItemDetail struct {
	Item      Item       `json:"item"`
	Documents []Document `json:"documents,omitempty"`
}

// StageReport mirrors the counters of a stage run.
type StageReport struct {
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Soft       int    `json:"soft"`
	Skipped    int    `json:"skipped"`
	Note       string `json:"note,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// StageStatus describes one stage of the pipeline.
type StageStatus struct {
	Name       string       `json:"name"`
	Ready      bool         `json:"ready"`
	Detail     string       `json:"detail,omitempty"`
	LastRun    string       `json:"lastRun,omitempty"`
	LastError  string       `json:"lastError,omitempty"`
	LastReport *StageReport `json:"lastReport,omitempty"`
}

// CycleStatus describes the most recent pipeline cycle.
type CycleStatus struct {
	ID          string            `json:"id"`
	Started     string            `json:"started"`
	Finished    string            `json:"finished"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Errors      map[string]string `json:"errors,omitempty"`
	Interrupted bool              `json:"interrupted,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastCycle  *CycleStatus   `json:"lastCycle,omitempty"`
	Stages     []StageStatus  `json:"stages"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	DocumentsDir string         `json:"documentsDir"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse wraps stage readiness.
type HealthResponse struct {
	Ready  bool          `json:"ready"`
	Stages []StageHealth `json:"stages"`
}

// ItemListResponse wraps a collection of items for API responses.
type ItemListResponse struct {
	Items []Item `json:"items"`
}
