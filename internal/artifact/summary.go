package artifact

// Summary is shadow_summary_v1 (§6 Persisted state).
type Summary struct {
	SchemaVersion string  `json:"schema_version"`
	Mode          string  `json:"mode"`
	LastRefresh   string  `json:"last_refresh"`
	Strategy      string  `json:"strategy"`
	RunID         string  `json:"run_id"`
	Market        string  `json:"market"`
	Decision      string  `json:"decision"`
	Reason        string  `json:"reason"`
	SubReason     string  `json:"subreason"`
	EdgeBps       float64 `json:"edge_bps"`
	PMYesMid      float64 `json:"pm_yes_mid"`
	FairYesProb   float64 `json:"fair_yes_prob"`
	Notes         string  `json:"notes"`
	LastError     string  `json:"last_error"`
}

const SummarySchemaVersion = "shadow_summary_v1"

// NewSummary builds a Summary with the schema version and mode fixed,
// sanitizing free-form text fields before serialization.
func NewSummary(lastRefresh, runID, market, decisionStr, reasonStr, subReason string, edgeBps, pmYesMid, fairYesProb float64, notes, lastError string) Summary {
	return Summary{
		SchemaVersion: SummarySchemaVersion,
		Mode:          "SHADOW",
		LastRefresh:   lastRefresh,
		Strategy:      "stale_edge",
		RunID:         runID,
		Market:        market,
		Decision:      decisionStr,
		Reason:        reasonStr,
		SubReason:     subReason,
		EdgeBps:       edgeBps,
		PMYesMid:      pmYesMid,
		FairYesProb:   fairYesProb,
		Notes:         Sanitize(notes),
		LastError:     Sanitize(lastError),
	}
}
