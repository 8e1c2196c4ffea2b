package live

// JoinState tracks whether every subscribed source has delivered at least
// one snapshot. Aggregations spanning vehicles and transactions must wait
// for Ready; the feeds give no ordering guarantee between each other.
type JoinState int

const (
	Pending JoinState = iota // no source has delivered
	Partial                  // some sources delivered, not all
	Ready                    // every source delivered at least once
)

func (s JoinState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Partial:
		return "partial"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Join is a two-source readiness tracker for the vehicles + transactions
// pair. It is not goroutine safe; use it from the single consumer loop.
type Join struct {
	vehiclesSeen     bool
	transactionsSeen bool
}

func (j *Join) MarkVehicles()     { j.vehiclesSeen = true }
func (j *Join) MarkTransactions() { j.transactionsSeen = true }

func (j *Join) State() JoinState {
	switch {
	case j.vehiclesSeen && j.transactionsSeen:
		return Ready
	case j.vehiclesSeen || j.transactionsSeen:
		return Partial
	}
	return Pending
}
