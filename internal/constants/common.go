package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"

	// Relay response statuses
	StatusOK    = "ok"
	StatusError = "error"

	// Zero address, used for sanity checks on configured contract addresses
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)
