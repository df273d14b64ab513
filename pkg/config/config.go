package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogConfig         string // zapfilter rules for narrowing log output
	WaitForServices   string // duration to wait for other services to be ready
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	ProfilingPort     int    // port for profiling
	HTTPServerAddr    string // listen addr for the HTTP API server
	NatsURL           string // URL of the NATS server for audit events (empty: disabled)
	AuditSubject      string // subject prefix for audit events
	Sport             string // sport preset for the session profile
	ProfilePath       string // path to a custom sport profile file
	WatchProfile      bool   // reload the profile file on change
	RosterPath        string // path to the roster file
	RestrictToRoster  bool   // never guess outside the roster
	OutputPath        string // where batch results are written (empty: stdout)
)
