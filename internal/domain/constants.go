package domain

const (
	DefaultRegistryHost               = "https://bio-tools-dev.sdu.dk"
	DefaultRequestTimeoutSeconds      = 30
	DefaultContentDir                 = "content/data"
	DefaultReportPath                 = "upload_failure_report.txt"
	DefaultWatchDebounceMillis        = 500
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
	DefaultBioconductorEndpoint       = "https://bioconductor.org/packages/json/3.20/bioc/packages.json"
	DefaultOpenEBenchEndpoint         = "https://openebench.bsc.es/monitor/metrics/"
	DefaultGalaxyMetadataURL          = "https://raw.githubusercontent.com/galaxyproject/galaxy_codex/results/all_tools.tsv"

	// IdentifierKey is the record key holding the unique tool identifier.
	IdentifierKey = "biotoolsID"

	// NormalizedKey is the key stripped recursively before comparing records.
	NormalizedKey = "term"

	// UnknownToolID labels failures recorded before an identifier was parsed.
	UnknownToolID = "UNKNOWN"

	// MaxFailureDetail caps the length of a failure message in reports.
	MaxFailureDetail = 300
)
