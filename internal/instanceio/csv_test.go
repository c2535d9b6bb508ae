package instanceio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/instanceio"
	"github.com/piwi3910/packingsolver/internal/model"
)

func TestDetectDelimiterComma(t *testing.T) {
	data := []byte("X,Y,COPIES\n1000,600,2\n800,400,1\n")
	assert.Equal(t, ',', instanceio.DetectDelimiter(data))
}

func TestDetectDelimiterSemicolon(t *testing.T) {
	data := []byte("X;Y;COPIES\n1000;600;2\n800;400;1\n")
	assert.Equal(t, ';', instanceio.DetectDelimiter(data))
}

func TestLoadBinsCSVMandatoryColumns(t *testing.T) {
	b := model.NewInstanceBuilder()
	err := instanceio.LoadBinsCSV([]byte("COST,COPIES\n10,1\n"), b)
	require.Error(t, err)
}

func TestLoadBinsCSVParsesRows(t *testing.T) {
	b := model.NewInstanceBuilder()
	data := []byte("X,Y,COPIES,MAXIMUM_WEIGHT\n1000,600,2,500\n")
	require.NoError(t, instanceio.LoadBinsCSV(data, b))
	b.AddItemType(model.ItemType{W: 100, H: 100})
	inst, err := b.Build()
	require.NoError(t, err)
	require.Len(t, inst.BinTypes, 1)
	assert.Equal(t, 1000.0, inst.BinTypes[0].X)
	assert.Equal(t, 600.0, inst.BinTypes[0].Y)
	assert.Equal(t, 2, inst.BinTypes[0].Copies)
	assert.Equal(t, 500.0, inst.BinTypes[0].MaximumWeight)
}

func TestLoadItemsCSVDefaultsProfitToArea(t *testing.T) {
	b := model.NewInstanceBuilder()
	data := []byte("X,Y,COPIES\n100,50,3\n")
	require.NoError(t, instanceio.LoadItemsCSV(data, b))
	b.AddBinType(model.BinType{X: 1000, Y: 1000})
	inst, err := b.Build()
	require.NoError(t, err)
	require.Len(t, inst.ItemTypes, 1)
	assert.Equal(t, 3, inst.ItemTypes[0].Copies)
	assert.Equal(t, 5000.0, inst.ItemTypes[0].Profit)
}

func TestLoadDefectsCSVRequiresAllColumns(t *testing.T) {
	b := model.NewInstanceBuilder()
	err := instanceio.LoadDefectsCSV([]byte("BIN,X,Y\n0,10,10\n"), b)
	require.Error(t, err)
}

func TestLoadDefectsCSVAttachesToBinType(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 1000, Y: 1000})
	data := []byte("BIN,X,Y,LX,LY\n0,10,20,5,5\n")
	require.NoError(t, instanceio.LoadDefectsCSV(data, b))
	b.AddItemType(model.ItemType{W: 10, H: 10})
	inst, err := b.Build()
	require.NoError(t, err)
	require.Len(t, inst.BinTypes[0].Defects, 1)
	assert.Equal(t, 10.0, inst.BinTypes[0].Defects[0].X)
}

func TestLoadParametersCSV(t *testing.T) {
	data := []byte("NAME,VALUE\nobjective,knapsack\nno-check-weight-constraints,2\n")
	p, err := instanceio.LoadParametersCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "knapsack", p.Objective)
	assert.Equal(t, []int{2}, p.NoCheckWeightConstraints)
	assert.Equal(t, model.Knapsack, instanceio.ParseObjective(p.Objective))
}
