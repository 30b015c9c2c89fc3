package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0   // Clean exit
	ExitUserError     = 2   // Invalid arguments, configuration, snapshot, or assets
	ExitNetworkError  = 3   // Listener bind or transport failure
	ExitInternalError = 4   // Unexpected internal error
	ExitCanceled      = 130 // Interrupted by signal
)
