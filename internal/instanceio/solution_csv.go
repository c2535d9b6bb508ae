package instanceio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/piwi3910/packingsolver/internal/model"
)

// WriteSolutionCSV writes sol as the tuple rows spec.md §6 names:
// bin_id, item_type_id, x, y, z, rotation, stack_id.
func WriteSolutionCSV(path string, sol *model.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"BIN_ID", "ITEM_TYPE_ID", "X", "Y", "Z", "ROTATION", "STACK_ID"}); err != nil {
		return err
	}
	for binPos, bin := range sol.Bins {
		for _, it := range bin.Items {
			row := []string{
				strconv.Itoa(binPos),
				strconv.Itoa(it.ItemTypeID),
				formatFloat(it.X),
				formatFloat(it.Y),
				formatFloat(it.Z),
				strconv.Itoa(int(it.Rotation)),
				strconv.Itoa(it.StackID),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// LoadSolutionCSV replays a previously written solution CSV against inst,
// opening a bin the first time its BIN_ID appears (in row order) and
// placing each item via SolutionBuilder.AddItem.
func LoadSolutionCSV(path string, inst *model.Instance) (*model.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, model.ConfigError("solution csv %s is empty", path)
	}
	cols := detectColumns(records[0])
	binIdx, okBin := cols["bin"]
	if !okBin {
		return nil, model.ConfigError("solution csv %s: missing BIN_ID column", path)
	}

	b := model.NewSolutionBuilder(inst)
	openBins := map[int]int{}

	for _, row := range records[1:] {
		if binIdx >= len(row) {
			continue
		}
		binID, err := strconv.Atoi(row[binIdx])
		if err != nil {
			return nil, model.ConfigError("solution csv %s: invalid BIN_ID %q", path, row[binIdx])
		}
		binPos, ok := openBins[binID]
		if !ok {
			binTypeID := 0
			if binID < len(inst.BinTypeIDs) {
				binTypeID = inst.BinTypeIDs[binID]
			}
			binPos = b.AddBin(binTypeID, 0)
			openBins[binID] = binPos
		}
		itemTypeID, _ := parseInt(row, cols, "item_type_id", 0)
		x, _ := parseFloat(row, cols, "x", 0)
		y, _ := parseFloat(row, cols, "y", 0)
		z, _ := parseFloat(row, cols, "z", 0)
		rotation, _ := parseInt(row, cols, "rotation", int(model.RotationNone))
		if err := b.AddItem(binPos, itemTypeID, x, y, z, model.Rotations(rotation)); err != nil {
			return nil, err
		}
	}
	return b.Solution(), nil
}
