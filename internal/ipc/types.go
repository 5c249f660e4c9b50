package ipc

// StartRequest starts the monitor inside a running daemon process.
type StartRequest struct{}

// StartResponse indicates whether monitoring was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the monitor.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool   `json:"running"`
	Mode         string `json:"mode"`
	SourceDir    string `json:"source_dir"`
	PendingFiles int    `json:"pending_files"`
	StatsDBPath  string `json:"stats_db_path"`
	LockFilePath string `json:"lock_file_path"`
	PID          int    `json:"pid"`
}

// ScanRequest triggers a manual scan.
type ScanRequest struct{}

// ScanResponse reports the outcome counts of a manual scan.
type ScanResponse struct {
	Sorted int `json:"sorted"`
	Errors int `json:"errors"`
}
