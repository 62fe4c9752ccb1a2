package domain

import "fmt"

type OrderStatus string

const (
	StatusWaiting    OrderStatus = "waiting"
	StatusPending    OrderStatus = "pending"
	StatusCreated    OrderStatus = "created"
	StatusDelivering OrderStatus = "delivering"
	StatusDelivered  OrderStatus = "delivered"
)

// statusSequence is the fulfilment order, first to last.
var statusSequence = []OrderStatus{
	StatusWaiting,
	StatusPending,
	StatusCreated,
	StatusDelivering,
	StatusDelivered,
}

var statusLabels = map[OrderStatus]string{
	StatusWaiting:    "Waiting for Payment",
	StatusPending:    "Pending Creation",
	StatusCreated:    "Finished Creating the Bracelet",
	StatusDelivering: "Bracelet is Being Delivered",
	StatusDelivered:  "Bracelet Delivered",
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable status.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) rank() int {
	for i, st := range statusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Statuses lists every status in fulfilment order.
func Statuses() []OrderStatus {
	out := make([]OrderStatus, len(statusSequence))
	copy(out, statusSequence)
	return out
}

// TransitionPolicy selects how strictly UpdateStatus orders status moves.
type TransitionPolicy string

const (
	// PolicyLoose lets the seller move an order to any status.
	PolicyLoose TransitionPolicy = "loose"
	// PolicyForward only allows staying put or moving later in the sequence.
	PolicyForward TransitionPolicy = "forward"
)

func ParseTransitionPolicy(s string) (TransitionPolicy, error) {
	switch TransitionPolicy(s) {
	case PolicyLoose, "":
		return PolicyLoose, nil
	case PolicyForward:
		return PolicyForward, nil
	}
	return "", fmt.Errorf("unknown transition policy %q", s)
}

// TransitionTable maps a status to the set of statuses it may move to.
type TransitionTable map[OrderStatus]map[OrderStatus]struct{}

// NewTransitionTable builds the allowed-from -> allowed-to sets for a policy.
func NewTransitionTable(policy TransitionPolicy) TransitionTable {
	t := make(TransitionTable, len(statusSequence))
	for _, from := range statusSequence {
		to := make(map[OrderStatus]struct{}, len(statusSequence))
		for _, next := range statusSequence {
			if policy == PolicyForward && next.rank() < from.rank() {
				continue
			}
			to[next] = struct{}{}
		}
		t[from] = to
	}
	return t
}

func (t TransitionTable) CanTransition(from, to OrderStatus) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
