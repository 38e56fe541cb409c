package logger

// ToolName is the fixed name for this tool, used as the log file prefix.
const ToolName = "explab"

// LogPrefixes returns the log file name prefixes to look for during cleanup.
func LogPrefixes() []string { return []string{ToolName} }
