package port

// ConsoleMetrics records console activity for operators.
type ConsoleMetrics interface {
	ObserveLogin(outcome string)
	ObserveLockout()
	SetActiveConsoles(n int)
	ObserveSoftDelete(records int)
	ObserveVisit(unique bool)
}
