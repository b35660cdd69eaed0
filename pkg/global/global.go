package global

var (
	Version        = "0.0.1"
	BuildTime      = "none"
	Verbose        = false
	ConfigFilename = "seropack.yaml"
)

// Defaults for the recognised build parameters.
const (
	DefaultProfile = "debug"
	DefaultUID     = 10001
	DefaultGID     = 10001
)

// LabelNamespace is the prefix for image labels attached by seropack.
const LabelNamespace = "rs.sero.seropack."
