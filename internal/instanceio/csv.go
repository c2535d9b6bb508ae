// Package instanceio reads bins.csv/items.csv/defects.csv/parameters.csv
// instance files (and the equivalent Excel workbook) into a model.Instance,
// following the delimiter-detection and header-alias idioms the teacher
// repository used for part-list import.
package instanceio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/packingsolver/internal/model"
)

// DetectDelimiter picks whichever of comma/semicolon/tab/pipe produces the
// most column-count-consistent parse of data, defaulting to comma.
func DetectDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	best := ','
	bestScore := 0
	for _, delim := range candidates {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = delim
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil || len(records) < 1 || len(records[0]) < 2 {
			continue
		}
		cols := len(records[0])
		score := 0
		for _, row := range records {
			if len(row) == cols {
				score++
			}
		}
		weighted := score*10 + cols
		if weighted > bestScore {
			bestScore, best = weighted, delim
		}
	}
	return best
}

// headerAliases maps canonical column names to accepted case-insensitive
// aliases, following spec.md §6's recognized-column lists.
var headerAliases = map[string][]string{
	"x":                     {"x"},
	"y":                     {"y"},
	"z":                     {"z"},
	"cost":                  {"cost"},
	"copies":                {"copies"},
	"copies_min":            {"copies_min", "copiesmin"},
	"maximum_weight":        {"maximum_weight", "max_weight"},
	"maximum_stack_density": {"maximum_stack_density", "max_stack_density"},
	"profit":                {"profit"},
	"weight":                {"weight"},
	"rotations":             {"rotations"},
	"group_id":              {"group_id", "group"},
	"stackability_id":       {"stackability_id", "stackability"},
	"nesting_height":        {"nesting_height"},
	"maximum_stackability":  {"maximum_stackability"},
	"maximum_weight_above":  {"maximum_weight_above"},
	"bin":                   {"bin", "bin_id"},
	"lx":                    {"lx"},
	"ly":                    {"ly"},
	"name":                  {"name"},
	"value":                 {"value"},
	"item_type_id":          {"item_type_id"},
	"rotation":              {"rotation"},
}

func detectColumns(header []string) map[string]int {
	out := map[string]int{}
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for canon, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					if _, seen := out[canon]; !seen {
						out[canon] = i
					}
				}
			}
		}
	}
	return out
}

func parseFloat(row []string, cols map[string]int, name string, def float64) (float64, error) {
	idx, ok := cols[name]
	if !ok || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, model.ConfigError("column %s: invalid number %q", name, row[idx])
	}
	return v, nil
}

func parseInt(row []string, cols map[string]int, name string, def int) (int, error) {
	idx, ok := cols[name]
	if !ok || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[idx]))
	if err != nil {
		return 0, model.ConfigError("column %s: invalid integer %q", name, row[idx])
	}
	return v, nil
}

func readCSVRecords(data []byte) ([][]string, error) {
	delim := DetectDelimiter(data)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, model.ConfigError("empty csv file")
	}
	return records, nil
}

// LoadBinsCSV parses bins.csv into b, per spec.md §6's recognized columns.
// X and Y are mandatory; Z is optional and defaults to 0.
func LoadBinsCSV(data []byte, b *model.InstanceBuilder) error {
	records, err := readCSVRecords(data)
	if err != nil {
		return err
	}
	return loadBinsRows(records, b)
}

func loadBinsRows(records [][]string, b *model.InstanceBuilder) error {
	cols := detectColumns(records[0])
	if _, ok := cols["x"]; !ok {
		return model.ConfigError("bins.csv: missing mandatory column X")
	}
	if _, ok := cols["y"]; !ok {
		return model.ConfigError("bins.csv: missing mandatory column Y")
	}
	for _, row := range records[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		x, err := parseFloat(row, cols, "x", 0)
		if err != nil {
			return err
		}
		y, err := parseFloat(row, cols, "y", 0)
		if err != nil {
			return err
		}
		z, err := parseFloat(row, cols, "z", 0)
		if err != nil {
			return err
		}
		if x <= 0 || y <= 0 {
			return model.ConfigError("bins.csv: non-positive dimension in row %v", row)
		}
		cost, _ := parseFloat(row, cols, "cost", 0)
		copies, _ := parseInt(row, cols, "copies", -1)
		copiesMin, _ := parseInt(row, cols, "copies_min", 0)
		maxWeight, _ := parseFloat(row, cols, "maximum_weight", 0)
		maxDensity, _ := parseFloat(row, cols, "maximum_stack_density", 0)
		b.AddBinType(model.BinType{
			X: x, Y: y, Z: z,
			Cost: cost, Copies: copies, CopiesMin: copiesMin,
			MaximumWeight: maxWeight, MaximumStackDensity: maxDensity,
		})
	}
	return nil
}

// LoadItemsCSV parses items.csv into b, per spec.md §6's recognized columns
// and defaults (PROFIT defaults to area/volume, WEIGHT to 0, COPIES to 1,
// ROTATIONS to 1 meaning only the canonical orientation).
func LoadItemsCSV(data []byte, b *model.InstanceBuilder) error {
	records, err := readCSVRecords(data)
	if err != nil {
		return err
	}
	return loadItemsRows(records, b)
}

func loadItemsRows(records [][]string, b *model.InstanceBuilder) error {
	cols := detectColumns(records[0])
	if _, ok := cols["x"]; !ok {
		return model.ConfigError("items.csv: missing mandatory column X")
	}
	if _, ok := cols["y"]; !ok {
		return model.ConfigError("items.csv: missing mandatory column Y")
	}
	for _, row := range records[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		x, err := parseFloat(row, cols, "x", 0)
		if err != nil {
			return err
		}
		y, err := parseFloat(row, cols, "y", 0)
		if err != nil {
			return err
		}
		z, err := parseFloat(row, cols, "z", 0)
		if err != nil {
			return err
		}
		if x <= 0 || y <= 0 {
			return model.ConfigError("items.csv: non-positive dimension in row %v", row)
		}
		profit, _ := parseFloat(row, cols, "profit", 0)
		weight, _ := parseFloat(row, cols, "weight", 0)
		copies, _ := parseInt(row, cols, "copies", 1)
		rotations, _ := parseInt(row, cols, "rotations", 1)
		groupID, _ := parseInt(row, cols, "group_id", 0)
		stackabilityID, _ := parseInt(row, cols, "stackability_id", 0)
		nestingHeight, _ := parseFloat(row, cols, "nesting_height", 0)
		maxStackability, _ := parseInt(row, cols, "maximum_stackability", 1)
		maxWeightAbove, _ := parseFloat(row, cols, "maximum_weight_above", 0)
		b.AddItemType(model.ItemType{
			W: x, H: y, Z: z,
			Oriented:  rotations == int(model.RotationNone),
			Rotations: model.Rotations(rotations),
			Copies:    copies,
			Profit:    profit,
			Weight:    weight,
			GroupID:   groupID, StackabilityID: stackabilityID,
			NestingHeight: nestingHeight, MaximumStackability: maxStackability,
			MaximumWeightAbove: maxWeightAbove,
		})
	}
	return nil
}

// LoadDefectsCSV parses defects.csv into b. BIN, X, Y, LX, LY are all
// mandatory.
func LoadDefectsCSV(data []byte, b *model.InstanceBuilder) error {
	records, err := readCSVRecords(data)
	if err != nil {
		return err
	}
	cols := detectColumns(records[0])
	for _, name := range []string{"bin", "x", "y", "lx", "ly"} {
		if _, ok := cols[name]; !ok {
			return model.ConfigError("defects.csv: missing mandatory column %s", strings.ToUpper(name))
		}
	}
	for _, row := range records[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		binID, err := parseInt(row, cols, "bin", 0)
		if err != nil {
			return err
		}
		x, _ := parseFloat(row, cols, "x", 0)
		y, _ := parseFloat(row, cols, "y", 0)
		lx, _ := parseFloat(row, cols, "lx", 0)
		ly, _ := parseFloat(row, cols, "ly", 0)
		b.AddDefect(model.Defect{BinID: binID, X: x, Y: y, LX: lx, LY: ly})
	}
	return nil
}

// ParametersCSV holds the key-value rows of parameters.csv.
type ParametersCSV struct {
	Objective                string
	UnloadingConstraint      string
	NoCheckWeightConstraints []int
}

// LoadParametersCSV parses parameters.csv's NAME/VALUE rows.
func LoadParametersCSV(data []byte) (ParametersCSV, error) {
	var p ParametersCSV
	records, err := readCSVRecords(data)
	if err != nil {
		return p, err
	}
	cols := detectColumns(records[0])
	nameIdx, okName := cols["name"]
	valIdx, okVal := cols["value"]
	if !okName || !okVal {
		return p, model.ConfigError("parameters.csv: missing NAME/VALUE columns")
	}
	for _, row := range records[1:] {
		if nameIdx >= len(row) || valIdx >= len(row) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[nameIdx]))
		val := strings.TrimSpace(row[valIdx])
		switch name {
		case "objective":
			p.Objective = val
		case "unloading-constraint":
			p.UnloadingConstraint = val
		case "no-check-weight-constraints":
			if g, err := strconv.Atoi(val); err == nil {
				p.NoCheckWeightConstraints = append(p.NoCheckWeightConstraints, g)
			}
		}
	}
	return p, nil
}

// ParseObjective maps a parameters.csv objective name to model.Objective.
func ParseObjective(name string) model.Objective {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binpacking", "bin-packing":
		return model.BinPacking
	case "variablesizedbinpacking", "variable-sized-bin-packing":
		return model.VariableSizedBinPacking
	case "binpackingwithleftovers", "bin-packing-with-leftovers":
		return model.BinPackingWithLeftovers
	case "opendimensionx", "open-dimension-x":
		return model.OpenDimensionX
	case "opendimensiony", "open-dimension-y":
		return model.OpenDimensionY
	case "opendimensionz", "open-dimension-z":
		return model.OpenDimensionZ
	case "knapsack":
		return model.Knapsack
	case "sequentialonedimensionalrectanglesubproblem":
		return model.SequentialOneDimensionalRectangleSubproblem
	default:
		return model.Default
	}
}

// ParseUnloadingConstraint maps a parameters.csv value to the constraint enum.
func ParseUnloadingConstraint(name string) model.UnloadingConstraint {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "onlyxmovements":
		return model.OnlyXMovements
	case "onlyymovements":
		return model.OnlyYMovements
	case "increasingx":
		return model.IncreasingX
	case "increasingy":
		return model.IncreasingY
	default:
		return model.UnloadingNone
	}
}
