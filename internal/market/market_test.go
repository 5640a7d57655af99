package market

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tkellan/vcgame/internal/eventlog"
)

func TestRunWithNoBuyersYieldsZeroWelfare(t *testing.T) {
	result := Run(nil, Infinite, rand.New(rand.NewSource(1)), eventlog.Nop{})
	assert.Equal(t, 0.0, result.Welfare)
	assert.Empty(t, result.Matches)
}

func TestRunProducesConstraintSatisfyingMatches(t *testing.T) {
	cover := []int{0, 1, 2, 3, 4, 5}
	result := Run(cover, Limited, rand.New(rand.NewSource(3)), eventlog.Nop{})
	assert.True(t, VerifyConstraints(result))
}

func TestRunInfiniteCapacityNeverBlocksOnVendorCapacity(t *testing.T) {
	cover := make([]int, 40)
	for i := range cover {
		cover[i] = i
	}
	result := Run(cover, Infinite, rand.New(rand.NewSource(5)), eventlog.Nop{})
	assert.True(t, VerifyConstraints(result))
	for _, v := range result.Vendors {
		assert.Equal(t, len(cover), v.Capacity)
	}
}

func TestRunAcceptsNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Run([]int{0, 1}, Infinite, rand.New(rand.NewSource(1)), nil)
	})
}

func TestVerifyConstraintsRejectsOversoldVendor(t *testing.T) {
	result := Result{
		Buyers:  []int{50, 50},
		Vendors: []Vendor{{Price: 10, Capacity: 1}},
		Matches: []Match{{Buyer: 0, Vendor: 0}, {Buyer: 1, Vendor: 0}},
	}
	assert.False(t, VerifyConstraints(result))
}

func TestVerifyConstraintsRejectsBudgetViolation(t *testing.T) {
	result := Result{
		Buyers:  []int{5},
		Vendors: []Vendor{{Price: 10, Capacity: 1}},
		Matches: []Match{{Buyer: 0, Vendor: 0}},
	}
	assert.False(t, VerifyConstraints(result))
}
