package types

// AgentBucket is the per-agent slice of an aggregate.
type AgentBucket struct {
	Count    int64 `json:"count"`
	Duration int64 `json:"duration"`
}

// SourceCounts holds query counts for the two known sources. Both fields are
// always present, defaulting to zero when a source has no rows in range.
type SourceCounts struct {
	User int64 `json:"user"`
	Auto int64 `json:"auto"`
}

// LocationCounts splits queries by the remote/local flag.
type LocationCounts struct {
	Local  int64 `json:"local"`
	Remote int64 `json:"remote"`
}

// DayBucket is one calendar day (local time) of an aggregate, ordered
// ascending by date. Date is formatted YYYY-MM-DD.
type DayBucket struct {
	Date     string `json:"date"`
	Count    int64  `json:"count"`
	Duration int64  `json:"duration"`
}

// HourBucket is one hour-of-day slice of an aggregate, ordered ascending by
// hour (0-23).
type HourBucket struct {
	Hour     int   `json:"hour"`
	Count    int64 `json:"count"`
	Duration int64 `json:"duration"`
}

// AggregatedStats is the compact summary served to the dashboard. Every
// figure is computed by the storage engine via grouped queries; the result
// is bounded at one entry per day/hour/agent/source in range regardless of
// row count.
type AggregatedStats struct {
	TotalQueries  int64                  `json:"totalQueries"`
	TotalDuration int64                  `json:"totalDuration"`
	AvgDuration   int64                  `json:"avgDuration"`
	ByAgent       map[string]AgentBucket `json:"byAgent"`
	BySource      SourceCounts           `json:"bySource"`
	ByLocation    LocationCounts         `json:"byLocation"`
	ByDay         []DayBucket            `json:"byDay"`
	ByHour        []HourBucket           `json:"byHour"`

	TotalSessions      int64            `json:"totalSessions"`
	SessionsByAgent    map[string]int64 `json:"sessionsByAgent"`
	SessionsByDay      []DayBucket      `json:"sessionsByDay"`
	AvgSessionDuration int64            `json:"avgSessionDuration"`
}
