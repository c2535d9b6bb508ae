package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
	"github.com/piwi3910/packingsolver/internal/report"
)

func buildTestSolution(t *testing.T) *model.Solution {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 1000, Y: 1000})
	b.AddItemType(model.ItemType{W: 400, H: 300, Profit: 120000})
	inst, err := b.Build()
	require.NoError(t, err)

	sb := model.NewSolutionBuilder(inst)
	sb.AddBin(0, 0)
	require.NoError(t, sb.AddItem(0, 0, 10, 10, 0, model.RotationNone))
	return sb.Solution()
}

func TestExportPDFCreatesFile(t *testing.T) {
	sol := buildTestSolution(t)
	path := filepath.Join(t.TempDir(), "layout.pdf")

	require.NoError(t, report.ExportPDF(path, sol))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportPDFRejectsEmptySolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.pdf")
	err := report.ExportPDF(path, &model.Solution{})
	assert.Error(t, err)
}

func TestCollectLabelInfos(t *testing.T) {
	sol := buildTestSolution(t)
	labels := report.CollectLabelInfos(sol)
	require.Len(t, labels, 1)
	assert.Equal(t, 0, labels[0].ItemTypeID)
	assert.Equal(t, 10.0, labels[0].X)
}

func TestExportLabelsCreatesFile(t *testing.T) {
	sol := buildTestSolution(t)
	path := filepath.Join(t.TempDir(), "labels.pdf")

	require.NoError(t, report.ExportLabels(path, sol))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportLabelsRejectsNoItems(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 1000, Y: 1000})
	b.AddItemType(model.ItemType{W: 400, H: 300})
	inst, err := b.Build()
	require.NoError(t, err)
	sb := model.NewSolutionBuilder(inst)
	sb.AddBin(0, 0)

	path := filepath.Join(t.TempDir(), "labels.pdf")
	err = report.ExportLabels(path, sb.Solution())
	assert.Error(t, err)
}
