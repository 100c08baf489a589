package core

// Readiness polls are busy-waits with no yield and no timeout: the
// reference manual guarantees the status bits set once the rail
// physically stabilizes, and there is no safe action to take on a rail
// that never did. Watchdog-supervised systems can install a poll budget
// to turn a dead wait into a reported fault instead of a silent hang.

// pollBudget bounds each wait in iterations; 0 waits forever.
var pollBudget uint32

// SetPollBudget bounds every readiness poll to n iterations. Exhausting
// the budget raises a FaultTimeout fault. Passing 0 restores the
// unbounded default.
func SetPollBudget(n uint32) {
	pollBudget = n
}

// waitReady spins until ready reports true and returns the number of
// polls that came back clear. field names the status bit for the
// timeout diagnostic.
func waitReady(ready func() bool, field string, strategy SupplyStrategy) uint32 {
	var polls uint32
	for !ready() {
		polls++
		if pollBudget != 0 && polls >= pollBudget {
			raiseFault(SupplyFault{Kind: FaultTimeout, Field: field, Strategy: strategy})
		}
	}
	return polls
}
