package schema

// Custom string types for type safety.
type (
	// RiskLevel is the categorical overflow forecast for a district.
	RiskLevel string

	// FloodRisk is the static flood exposure of a district.
	FloodRisk string

	// VolumeTier is the capacity-independent bucket for an absolute volume.
	VolumeTier string

	// ForecastSource tells where a set of predictions came from.
	ForecastSource string

	// Trend is the direction of a district's predicted volume over time.
	Trend string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string
)

// All overflow risk levels.
const (
	SafeRisk     RiskLevel = "safe"
	ModerateRisk RiskLevel = "moderate"
	HighRisk     RiskLevel = "high"
)

// All flood risk levels.
const (
	LowFlood    FloodRisk = "low"
	MediumFlood FloodRisk = "medium"
	HighFlood   FloodRisk = "high"
)

// All volume tiers.
const (
	NormalVolume   VolumeTier = "Normal Volume"
	ModerateVolume VolumeTier = "Moderate Volume"
	HighVolume     VolumeTier = "High Volume"
)

// All forecast sources.
const (
	RemoteSource     ForecastSource = "remote"
	SimulationSource ForecastSource = "simulation"
)

// All trends.
const (
	IncreasingTrend Trend = "increasing"
	DecreasingTrend Trend = "decreasing"
	StableTrend     Trend = "stable"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// AllRiskLevels lists risk levels from most to least severe.
var AllRiskLevels = []RiskLevel{HighRisk, ModerateRisk, SafeRisk}

// ValidRiskLevels lists all valid risk levels.
var ValidRiskLevels = map[RiskLevel]struct{}{
	SafeRisk:     {},
	ModerateRisk: {},
	HighRisk:     {},
}

// ValidFloodRisks lists all valid flood risk levels.
var ValidFloodRisks = map[FloodRisk]struct{}{
	LowFlood:    {},
	MediumFlood: {},
	HighFlood:   {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
