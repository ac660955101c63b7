package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"project_canvass/internal/entities"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// voterExportHeader is the column layout of the downloadable roll.
var voterExportHeader = []string{
	"Voter ID",
	"Part No",
	"Section No",
	"Name",
	"Name (Local)",
	"Surname",
	"Sex",
	"Age",
	"ID Card No",
	"Relative",
	"Address",
	"House No",
	"Mobile",
	"Visited",
}

const exportBatchLimit = 10000

// ExportVoters streams the caller's scoped voter roll as an xlsx workbook,
// honoring the same filters as the list view.
func (h *Handler) ExportVoters(c *gin.Context) {
	identity := CurrentIdentity(c)

	f := entities.VoterFilter{
		Search:  SanitizeString(c.Query("search")),
		Address: SanitizeString(c.Query("address")),
		PartNo:  c.Query("partno"),
		Sex:     c.Query("sex"),
		Limit:   exportBatchLimit,
		Offset:  0,
	}
	if v := c.Query("visited"); v != "" {
		visited := v == "true" || v == "1"
		f.Visited = &visited
	}

	rows, _, err := h.voterUsecase.List(c.Request.Context(), identity, f)
	if err != nil {
		abortWith(c, err)
		return
	}

	data, err := buildVoterWorkbook(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	filename := fmt.Sprintf("voters_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func buildVoterWorkbook(rows []entities.VoterRow) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so no deferred Close on the happy path

	sheetName := "Voters"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range voterExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, row := range rows {
		values := []any{
			row.VoterID,
			intOrEmpty(row.PartNo),
			intOrEmpty(row.SectionNo),
			row.EName,
			row.VEName,
			row.Surname,
			row.Sex,
			intOrEmpty(row.Age),
			row.IDCardNo,
			row.VRName,
			row.Address,
			strOrEmpty(row.HouseNo),
			strOrEmpty(row.Mobile),
			row.Visited,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	f.Close()
	return buf.Bytes(), nil
}

func intOrEmpty(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func strOrEmpty(v *string) any {
	if v == nil {
		return ""
	}
	return *v
}
