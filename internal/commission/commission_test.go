package commission

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ScheduleTestSuite struct {
	suite.Suite
}

func TestScheduleSuite(t *testing.T) {
	suite.Run(t, new(ScheduleTestSuite))
}

func (suite *ScheduleTestSuite) TestFixedRate() {
	sched := NewFixedRate(0.01)
	suite.NotNil(sched)

	tests := []struct {
		name            string
		price           float64
		expectedCost    float64
		expectedRevenue float64
	}{
		{"unit price", 1, 1.01, 0.99},
		{"round price", 100, 101, 99},
		{"open of reference bar", 10, 10.1, 9.9},
		{"low of reference bar", 9, 9.09, 8.91},
		{"zero price", 0, 0, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expectedCost, sched.BuyCost(tc.price), 1e-9)
			suite.InDelta(tc.expectedRevenue, sched.SellRevenue(tc.price), 1e-9)
		})
	}
}

func (suite *ScheduleTestSuite) TestFree() {
	sched := NewFree()
	suite.NotNil(sched)

	suite.Equal(100.0, sched.BuyCost(100.0))
	suite.Equal(100.0, sched.SellRevenue(100.0))
}

func (suite *ScheduleTestSuite) TestBuySideAlwaysCostsMore() {
	sched := NewFixedRate(0.01)

	for _, price := range []float64{0.5, 1, 9, 10, 123.45, 1e6} {
		suite.Greater(sched.BuyCost(price), sched.SellRevenue(price))
	}
}
