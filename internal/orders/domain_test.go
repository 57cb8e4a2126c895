// internal/orders/domain_test.go
package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFulfillmentTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    FulfillmentStatus
		to      FulfillmentStatus
		allowed bool
	}{
		{"pending can ship", FulfillmentPending, FulfillmentShipped, true},
		{"pending can cancel", FulfillmentPending, FulfillmentCancelled, true},
		{"pending cannot skip to delivered", FulfillmentPending, FulfillmentDelivered, false},
		{"shipped can deliver", FulfillmentShipped, FulfillmentDelivered, true},
		{"shipped cannot cancel", FulfillmentShipped, FulfillmentCancelled, false},
		{"shipped cannot regress", FulfillmentShipped, FulfillmentPending, false},
		{"delivered is terminal", FulfillmentDelivered, FulfillmentShipped, false},
		{"cancelled is terminal", FulfillmentCancelled, FulfillmentPending, false},
		{"cancelled cannot ship", FulfillmentCancelled, FulfillmentShipped, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, FulfillmentPending.Terminal())
	assert.False(t, FulfillmentShipped.Terminal())
	assert.True(t, FulfillmentDelivered.Terminal())
	assert.True(t, FulfillmentCancelled.Terminal())
}

func TestPayable(t *testing.T) {
	cases := []struct {
		name    string
		status  FulfillmentStatus
		payment PaymentStatus
		payable bool
	}{
		{"pending unpaid pays", FulfillmentPending, PaymentUnpaid, true},
		{"pending paid does not pay again", FulfillmentPending, PaymentPaid, false},
		{"shipped unpaid does not pay", FulfillmentShipped, PaymentUnpaid, false},
		{"cancelled unpaid does not pay", FulfillmentCancelled, PaymentUnpaid, false},
		{"delivered paid does not pay", FulfillmentDelivered, PaymentPaid, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &Order{Status: tc.status, PaymentStatus: tc.payment}
			assert.Equal(t, tc.payable, order.Payable())
		})
	}
}

var allStatuses = []FulfillmentStatus{
	FulfillmentPending, FulfillmentShipped, FulfillmentDelivered, FulfillmentCancelled,
}

// Terminal states admit no outgoing transition, whatever the target.
func TestTerminalStatesAdmitNoTransition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(allStatuses).Draw(t, "from")
		to := rapid.SampledFrom(allStatuses).Draw(t, "to")

		if from.Terminal() && from.CanTransitionTo(to) {
			t.Fatalf("terminal status %s permitted transition to %s", from, to)
		}
	})
}

// No chain of legal transitions ever revisits a status.
func TestTransitionsNeverRevisit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		current := FulfillmentPending
		seen := map[FulfillmentStatus]bool{current: true}

		steps := rapid.IntRange(1, 6).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			next := rapid.SampledFrom(allStatuses).Draw(t, "next")
			if !current.CanTransitionTo(next) {
				continue
			}
			if seen[next] {
				t.Fatalf("transition chain revisited %s", next)
			}
			seen[next] = true
			current = next
		}
	})
}
