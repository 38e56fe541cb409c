package app

import ilogger "explab/internal/logger"

type Logger = ilogger.Logger

var (
	NewLogger    = ilogger.NewLogger
	setLogger    = ilogger.SetLogger
	closeLogger  = ilogger.CloseLogger
	activeLogger = ilogger.ActiveLogger
	logInfo      = ilogger.LogInfo
	logError     = ilogger.LogError
)
