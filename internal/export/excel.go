// Package export renders exam results as a downloadable spreadsheet.
package export

import (
	"fmt"

	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single results sheet.
const SheetName = "Kết quả"

var headers = []string{
	"Tên học sinh",
	"Trạng thái",
	"Điểm",
	"Tổng câu",
	"Số lần thoát",
	"Thời gian làm",
	"Bắt đầu",
	"Nộp bài",
}

const timestampLayout = "15:04:05 02/01/2006"

// BuildWorkbook renders the exam's submissions into a workbook. Rows
// follow the submission order given (newest first from the store).
func BuildWorkbook(exam *model.Exam, submissions []model.Submission) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for i, sub := range submissions {
		values := []interface{}{
			sub.StudentName,
			statusLabel(sub.Status),
			sub.Score,
			sub.TotalQuestions,
			sub.ExitCount,
			formatElapsed(sub.TimeSpentSeconds),
			sub.StartedAt.Format(timestampLayout),
			"",
		}
		if sub.SubmittedAt != nil {
			values[7] = sub.SubmittedAt.Format(timestampLayout)
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func statusLabel(status model.SubmissionStatus) string {
	if status == model.SubmissionSubmitted {
		return "Đã nộp"
	}
	return "Đang làm"
}

// formatElapsed renders seconds as mm:ss, spilling past 59 minutes
// rather than rolling into hours.
func formatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
