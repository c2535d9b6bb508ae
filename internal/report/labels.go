package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/packingsolver/internal/model"
)

// LabelInfo is the data encoded into each placed item's QR code.
type LabelInfo struct {
	ItemTypeID int     `json:"item_type_id"`
	BinPos     int     `json:"bin_pos"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Rotation   int     `json:"rotation"`
	StackID    int     `json:"stack_id,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10
// rows on US Letter paper).
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// CollectLabelInfos flattens every placed item across every bin into a
// label-info slice, in bin then placement order.
func CollectLabelInfos(sol *model.Solution) []LabelInfo {
	var labels []LabelInfo
	for _, bin := range sol.Bins {
		for _, it := range bin.Items {
			labels = append(labels, LabelInfo{
				ItemTypeID: it.ItemTypeID,
				BinPos:     it.BinPos,
				X:          it.X, Y: it.Y, Z: it.Z,
				Rotation: int(it.Rotation),
				StackID:  it.StackID,
			})
		}
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded item labels laid out on a
// standard 3x10 label sheet, one label per placed item.
func ExportLabels(path string, sol *model.Solution) error {
	if sol == nil || len(sol.Bins) == 0 {
		return fmt.Errorf("report: no bins to generate labels for")
	}
	labels := CollectLabelInfos(sol)
	if len(labels) == 0 {
		return fmt.Errorf("report: no items placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("rendering label for item type %d: %w", label.ItemTypeID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate qr code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%d_%d", info.ItemTypeID, info.BinPos, int(info.X*1000+info.Y))
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	label := fmt.Sprintf("item %d", info.ItemTypeID)
	pdf.CellFormat(textW, 4.5, label, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pos := fmt.Sprintf("bin %d @ (%.0f, %.0f)", info.BinPos, info.X, info.Y)
	pdf.CellFormat(textW, 3.5, pos, "", 1, "L", false, 0, "")

	if info.Rotation != int(model.RotationNone) {
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(100, 100, 100)
		pdf.SetXY(textX, y+labelPadding+9)
		pdf.CellFormat(textW, 3, "rotated", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
