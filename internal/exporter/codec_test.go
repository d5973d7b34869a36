package exporter

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

func TestEncodeDecodeResult(t *testing.T) {
	original := sampleResult(domain.AnalysisTypeAllotment)
	original.Token = "b7d9b2a4-0000-4000-8000-000000000000"

	payload, err := EncodeResult(original)
	require.NoError(t, err)
	assert.NotContains(t, payload, "=")
	assert.NotContains(t, payload, "+")
	assert.NotContains(t, payload, "/")

	decoded, err := DecodeResult(payload)
	require.NoError(t, err)

	assert.Equal(t, original.Type, decoded.Type)
	assert.Equal(t, original.Manager, decoded.Manager)
	assert.Equal(t, original.Secondary, decoded.Secondary)
	assert.Equal(t, "Allotment Manager", decoded.ReportColumn)
	assert.Equal(t, "manager_case_analysis_allotment.xlsx", decoded.OutputFile)
	assert.Equal(t, original.TotalCases, decoded.TotalCases)
	assert.Equal(t, original.MaxManager, decoded.MaxManager)
	assert.Equal(t, original.MaxSecondary, decoded.MaxSecondary)
	assert.Empty(t, decoded.Token, "tokens are not carried in payloads")
}

func TestDecodeResult_ThenExport(t *testing.T) {
	payload, err := EncodeResult(sampleResult(domain.AnalysisTypeReport))
	require.NoError(t, err)

	decoded, err := DecodeResult(payload)
	require.NoError(t, err)

	data, err := BuildWorkbook(decoded)
	require.NoError(t, err)

	manager, secondary, err := ReadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Alice", manager.Entries[0].Label)
	assert.Equal(t, "Report Manager", secondary.Column)
}

func TestDecodeResult_ReordersEntries(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(
		`{"t":"Report Manager","m":[{"label":"A","count":1},{"label":"B","count":3},{"label":"C","count":1}],"s":[{"label":"X","count":2},{"label":"Y","count":5}]}`))

	decoded, err := DecodeResult(payload)
	require.NoError(t, err)

	assert.Equal(t, []domain.FrequencyEntry{{Label: "B", Count: 3}, {Label: "A", Count: 1}, {Label: "C", Count: 1}},
		decoded.Manager.Entries)
	assert.Equal(t, []domain.FrequencyEntry{{Label: "Y", Count: 5}, {Label: "X", Count: 2}},
		decoded.Secondary.Entries)

	data, err := BuildWorkbook(decoded)
	require.NoError(t, err)
	manager, _, err := ReadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "B", manager.Entries[0].Label)
}

func TestDecodeResult_Errors(t *testing.T) {
	encode := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name     string
		payload  string
		wantType apierrors.ErrorType
	}{
		{"empty", "", apierrors.ErrTypeMissingInput},
		{"not base64", "***", apierrors.ErrTypeExport},
		{"not json", encode("manager_data"), apierrors.ErrTypeExport},
		{"unknown type", encode(`{"t":"Case Owner","m":[],"s":[]}`), apierrors.ErrTypeExport},
		{"zero count", encode(`{"t":"Report Manager","m":[{"label":"A","count":0}],"s":[]}`), apierrors.ErrTypeExport},
		{"duplicate label", encode(`{"t":"Report Manager","m":[],"s":[{"label":"A","count":1},{"label":"A","count":2}]}`), apierrors.ErrTypeExport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DecodeResult(tt.payload)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apierrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestEncodeResult_Nil(t *testing.T) {
	_, err := EncodeResult(nil)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))
}
