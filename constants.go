package sss

const (
	FailedOscillatorsDisabled SelectFailReason = 1
	FailedOscillatorPeriod    SelectFailReason = 2
	FailedShipPeriod          SelectFailReason = 3
	FailedIgnoredSpeed        SelectFailReason = 4
	FailedStable              SelectFailReason = 5
)

// Defaults match the long standing search script settings.
const (
	DefaultMinShipPeriod   = 30
	DefaultMinSpeed        = 0.5
	DefaultFastShipPeriod  = 9
	DefaultMinOscPeriod    = 3
	DefaultMaxGenerations  = 20000
	DefaultMaxPopulation   = 1000
	DefaultMaxDimension    = 500
	DefaultStabCycles      = 5
	DefaultStabCheckPeriod = 24
	DefaultAnalyzeMaxGen   = 2000
	DefaultUpdateMaxGen    = 20000
	DefaultProgressEvery   = 1000
)
