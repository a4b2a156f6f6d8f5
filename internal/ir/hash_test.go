package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	v := map[string]any{
		"fields": []any{map[string]any{"name": "Номер", "type": Known(String)}},
	}

	a, err := Fingerprint(DomainCheckResult, v)
	require.NoError(t, err)
	b, err := Fingerprint(DomainCheckResult, v)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintDomainSeparation(t *testing.T) {
	a, err := Fingerprint(DomainCheckResult, "x")
	require.NoError(t, err)
	b, err := Fingerprint(DomainBatchPlan, "x")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFingerprintRejectsFloats(t *testing.T) {
	_, err := Fingerprint(DomainCheckResult, map[string]any{"n": 1.0})
	assert.Error(t, err)
}
