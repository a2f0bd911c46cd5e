package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

func sampleItems() []domain.ExportItem {
	return []domain.ExportItem{
		{
			Candidate: "s1.csv",
			Path:      "/out/base_s1.png",
			Comparison: &domain.Comparison{
				Baseline:  "base.csv",
				Candidate: "s1.csv",
				Metrics:   domain.ErrorMetricSet{Overall: 0.1, Confirmation: 0.01, Oxidation: 1, WaterDamage: 0.2},
				Verdict:   domain.QualityVerdict{Score: 1 / 30.6, Status: domain.StatusFail},
			},
		},
		{
			Candidate: "same.csv",
			Path:      "/out/base_same.png",
			Comparison: &domain.Comparison{
				Verdict: domain.QualityVerdict{Score: math.Inf(1), Status: domain.StatusPass, PerfectMatch: true},
			},
		},
		{Candidate: "broken.csv", Err: errors.New("parse \"broken.csv\" line 2: expected 2 columns, got 1")},
	}
}

func TestRows(t *testing.T) {
	rows := Rows("base.csv", sampleItems())
	require.Len(t, rows, 3)

	assert.Equal(t, "fail", rows[0].Status)
	require.NotNil(t, rows[0].Oxidation)
	assert.Equal(t, 1.0, *rows[0].Oxidation)

	assert.True(t, rows[1].PerfectMatch)
	assert.Nil(t, rows[1].Score)
	assert.Equal(t, "pass", rows[1].Status)

	assert.Nil(t, rows[2].Overall)
	assert.Contains(t, rows[2].Error, "expected 2 columns")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Rows("base.csv", sampleItems())))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "s1.csv", decoded[0]["candidate"])
	assert.NotContains(t, decoded[1], "score")
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	rows := Rows("base.csv", sampleItems())
	require.NoError(t, Write(&buf, FormatParquet, rows))

	got, err := parquet.Read[Row](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "s1.csv", got[0].Candidate)
	require.NotNil(t, got[0].WaterDamage)
	assert.Equal(t, 0.2, *got[0].WaterDamage)
	assert.Equal(t, rows[2].Error, got[2].Error)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(FormatParquet))
	assert.NoError(t, Validate(FormatNone))
	assert.Error(t, Validate("xlsx"))
	assert.Error(t, Write(&bytes.Buffer{}, "xlsx", nil))
}
