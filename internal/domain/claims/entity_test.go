package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanAdvanceTo(t *testing.T) {
	assert.True(t, StatusUploadInProgress.CanAdvanceTo(StatusAnalyzing))
	assert.True(t, StatusAnalyzing.CanAdvanceTo(StatusReadyForReview))
	assert.True(t, StatusReadyForReview.CanAdvanceTo(StatusEscalated))

	// Re-analysis re-enters the same state.
	assert.True(t, StatusAnalyzing.CanAdvanceTo(StatusAnalyzing))

	// The lifecycle never moves backwards.
	assert.False(t, StatusReadyForReview.CanAdvanceTo(StatusAnalyzing))
	assert.False(t, StatusEscalated.CanAdvanceTo(StatusReadyForReview))
}

func TestRiskReportIsFallback(t *testing.T) {
	assert.True(t, RiskReport{FraudRiskScore: FallbackScore}.IsFallback())
	assert.False(t, RiskReport{FraudRiskScore: 0}.IsFallback())
	assert.False(t, RiskReport{FraudRiskScore: 85}.IsFallback())
}
