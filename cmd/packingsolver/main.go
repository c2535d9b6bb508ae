// packingsolver is the command-line front end for the branching-scheme
// family and the iterative beam search driver: it reads a CSV instance,
// drives the search, and writes the resulting placement and (optionally) a
// PDF layout report and QR-coded item labels.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/packingsolver/internal/box"
	"github.com/piwi3910/packingsolver/internal/boxstacks"
	"github.com/piwi3910/packingsolver/internal/ibs"
	"github.com/piwi3910/packingsolver/internal/instanceio"
	"github.com/piwi3910/packingsolver/internal/model"
	"github.com/piwi3910/packingsolver/internal/rectangle"
	"github.com/piwi3910/packingsolver/internal/rectangleguillotine"
	"github.com/piwi3910/packingsolver/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "packingsolver",
	Short: "Cutting and packing optimization via iterative beam search",
	Long: `packingsolver drives one of four branching schemes (rectangle,
rectangle-guillotine, box, box-stacks) under an iterative-beam-search
frontier and materializes the best solution found.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(solveCmd, reportCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var solveCmd = &cobra.Command{
	Use:   "solve [instance-dir]",
	Short: "Solve an instance described by bins.csv/items.csv/defects.csv/parameters.csv",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().String("scheme", "rectangle", "branching scheme: rectangle, rectangleguillotine, box, boxstacks")
	solveCmd.Flags().String("output", "solution.csv", "path to write the solution tuple CSV")
	solveCmd.Flags().Int64("node-limit", 1_000_000, "maximum nodes visited before returning the incumbent")
	solveCmd.Flags().Duration("time-limit", 30*time.Second, "wall-clock budget before returning the incumbent")
	solveCmd.Flags().String("pdf", "", "optional path to write a PDF layout report")
	solveCmd.Flags().String("labels", "", "optional path to write a QR-coded label sheet")
}

func runSolve(cmd *cobra.Command, args []string) error {
	dir := args[0]
	scheme, _ := cmd.Flags().GetString("scheme")
	output, _ := cmd.Flags().GetString("output")
	nodeLimit, _ := cmd.Flags().GetInt64("node-limit")
	timeLimit, _ := cmd.Flags().GetDuration("time-limit")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	labelsPath, _ := cmd.Flags().GetString("labels")

	inst, err := loadInstance(dir)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeLimit)
	info := ibs.NewInfo(func() bool { return time.Now().After(deadline) }, nodeLimit)

	sol, err := solve(scheme, inst, info)
	if err != nil {
		return fmt.Errorf("solving %s: %w", dir, err)
	}
	if sol == nil {
		return fmt.Errorf("solving %s: no feasible solution found within the search budget", dir)
	}

	log.Printf("solved %s: %d bins, %d items, profit %.2f, waste %.2f",
		dir, sol.NumberOfBins(), sol.NumberOfItems, sol.Profit, sol.Waste())

	if err := instanceio.WriteSolutionCSV(output, sol); err != nil {
		return fmt.Errorf("writing solution: %w", err)
	}
	if pdfPath != "" {
		if err := report.ExportPDF(pdfPath, sol); err != nil {
			return fmt.Errorf("writing pdf report: %w", err)
		}
	}
	if labelsPath != "" {
		if err := report.ExportLabels(labelsPath, sol); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		}
	}
	return nil
}

var reportCmd = &cobra.Command{
	Use:   "report [instance-dir] [solution-csv]",
	Short: "Render a PDF layout report and/or QR label sheet from a previously written solution",
	Args:  cobra.ExactArgs(2),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("pdf", "layout.pdf", "path to write the PDF layout report")
	reportCmd.Flags().String("labels", "", "optional path to write a QR-coded label sheet")
}

func runReport(cmd *cobra.Command, args []string) error {
	dir, solutionPath := args[0], args[1]
	pdfPath, _ := cmd.Flags().GetString("pdf")
	labelsPath, _ := cmd.Flags().GetString("labels")

	inst, err := loadInstance(dir)
	if err != nil {
		return err
	}
	sol, err := instanceio.LoadSolutionCSV(solutionPath, inst)
	if err != nil {
		return fmt.Errorf("loading %s: %w", solutionPath, err)
	}
	if pdfPath != "" {
		if err := report.ExportPDF(pdfPath, sol); err != nil {
			return fmt.Errorf("writing pdf report: %w", err)
		}
	}
	if labelsPath != "" {
		if err := report.ExportLabels(labelsPath, sol); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		}
	}
	return nil
}

func loadInstance(dir string) (*model.Instance, error) {
	b := model.NewInstanceBuilder()

	binsData, err := os.ReadFile(filepath.Join(dir, "bins.csv"))
	if err != nil {
		return nil, fmt.Errorf("reading bins.csv: %w", err)
	}
	if err := instanceio.LoadBinsCSV(binsData, b); err != nil {
		return nil, err
	}

	itemsData, err := os.ReadFile(filepath.Join(dir, "items.csv"))
	if err != nil {
		return nil, fmt.Errorf("reading items.csv: %w", err)
	}
	if err := instanceio.LoadItemsCSV(itemsData, b); err != nil {
		return nil, err
	}

	if defectsData, err := os.ReadFile(filepath.Join(dir, "defects.csv")); err == nil {
		if err := instanceio.LoadDefectsCSV(defectsData, b); err != nil {
			return nil, err
		}
	}

	if paramsData, err := os.ReadFile(filepath.Join(dir, "parameters.csv")); err == nil {
		params, err := instanceio.LoadParametersCSV(paramsData)
		if err != nil {
			return nil, err
		}
		if params.Objective != "" {
			b.SetObjective(instanceio.ParseObjective(params.Objective))
		}
		if params.UnloadingConstraint != "" {
			b.SetUnloadingConstraint(instanceio.ParseUnloadingConstraint(params.UnloadingConstraint))
		}
		for _, g := range params.NoCheckWeightConstraints {
			b.ExcludeGroupFromWeightCheck(g)
		}
	}

	return b.Build()
}

// betterSolution compares two finished solutions the same way a Scheme's
// Better does, for cases where separate solver runs can't share one
// branching-scheme's node comparator.
func betterSolution(inst *model.Instance, a, b *model.Solution) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	switch inst.Objective {
	case model.BinPacking, model.VariableSizedBinPacking:
		la, lb := a.Leaf(inst), b.Leaf(inst)
		if la != lb {
			return la
		}
		return a.NumberOfBins() < b.NumberOfBins()
	case model.Knapsack:
		return a.Profit > b.Profit
	default:
		if a.Profit != b.Profit {
			return a.Profit > b.Profit
		}
		return a.Waste() < b.Waste()
	}
}

func solve(scheme string, inst *model.Instance, info *ibs.Info) (*model.Solution, error) {
	switch scheme {
	case "rectangle":
		s := rectangle.New(inst, rectangle.DefaultParameters())
		return ibs.Run[*rectangle.Node, rectangle.Insertion](s, func(n *rectangle.Node) int { return n.NumberOfItems }, ibs.DefaultParams(), info)
	case "rectangleguillotine":
		s := rectangleguillotine.New(inst, rectangleguillotine.DefaultParameters())
		return ibs.Run[*rectangleguillotine.Node, rectangleguillotine.Insertion](s, func(n *rectangleguillotine.Node) int { return n.NumberOfItems }, ibs.DefaultParams(), info)
	case "box":
		// Try all three strip-growth orientations (the "rotate through two
		// Instance views" source pattern) and keep the best resulting
		// solution, since the three schemes aren't directly comparable via
		// Scheme.Better.
		var best *model.Solution
		for orientation := 0; orientation < 3; orientation++ {
			s := box.New(inst, box.Parameters{Orientation: orientation})
			sol, err := ibs.Run[*box.Node, box.Insertion](s, func(n *box.Node) int { return n.NumberOfItems }, ibs.DefaultParams(), info)
			if err != nil {
				return nil, err
			}
			if betterSolution(inst, sol, best) {
				best = sol
			}
		}
		return best, nil
	case "boxstacks":
		s := boxstacks.New(inst)
		return ibs.Run[*boxstacks.Node, boxstacks.Insertion](s, func(n *boxstacks.Node) int { return n.NumberOfItems }, ibs.DefaultParams(), info)
	default:
		return nil, fmt.Errorf("unknown scheme %q", scheme)
	}
}
