package artifact

// Health is shadow_health_v1 (§6 Persisted state).
type Health struct {
	SchemaVersion    string `json:"schema_version"`
	Mode             string `json:"mode"`
	LastRunAt        string `json:"last_run_at"`
	LastSuccessAt    string `json:"last_success_at"`
	LastErrorAt      string `json:"last_error_at"`
	LastError        string `json:"last_error"`
	LastLatencyMs    int64  `json:"last_latency_ms"`
	ArtifactsWritten int64  `json:"artifacts_written"`
	JournalRows      int    `json:"journal_rows"`
	Build            Build  `json:"build"`
	UptimeSec        int64  `json:"uptime_sec"`
	SchemaMismatch   bool   `json:"schema_mismatch"`
}

// Build captures the binary's provenance, sourced from
// debug.ReadBuildInfo() at startup.
type Build struct {
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision"`
	Modified  bool   `json:"modified"`
}

const HealthSchemaVersion = "shadow_health_v1"

func NewHealth(lastRunAt, lastSuccessAt, lastErrorAt, lastError string, lastLatencyMs, artifactsWritten int64, journalRows int, build Build, uptimeSec int64, schemaMismatch bool) Health {
	return Health{
		SchemaVersion:    HealthSchemaVersion,
		Mode:             "SHADOW",
		LastRunAt:        lastRunAt,
		LastSuccessAt:    lastSuccessAt,
		LastErrorAt:      lastErrorAt,
		LastError:        Sanitize(lastError),
		LastLatencyMs:    lastLatencyMs,
		ArtifactsWritten: artifactsWritten,
		JournalRows:      journalRows,
		Build:            build,
		UptimeSec:        uptimeSec,
		SchemaMismatch:   schemaMismatch,
	}
}
