package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
)

func TestBuildWorkbook(t *testing.T) {
	started := time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local)
	submitted := started.Add(42*time.Minute + 7*time.Second)

	code := "HS001"
	exam := &model.Exam{ID: uuid.New(), Title: "Kiểm tra giữa kỳ"}
	submissions := []model.Submission{
		{
			StudentName:      "Nguyễn Văn An",
			StudentCode:      &code,
			Score:            8,
			TotalQuestions:   10,
			ExitCount:        2,
			TimeSpentSeconds: 2527,
			Status:           model.SubmissionSubmitted,
			StartedAt:        started,
			SubmittedAt:      &submitted,
		},
		{
			StudentName:      "Trần Thị Bình",
			TotalQuestions:   10,
			TimeSpentSeconds: 305,
			Status:           model.SubmissionInProgress,
			StartedAt:        started,
		},
	}

	f, err := BuildWorkbook(exam, submissions)
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header + 2 submissions)", len(rows))
	}

	wantHeaders := []string{
		"Tên học sinh", "Trạng thái", "Điểm", "Tổng câu",
		"Số lần thoát", "Thời gian làm", "Bắt đầu", "Nộp bài",
	}
	for i, want := range wantHeaders {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}

	submittedRow := rows[1]
	if submittedRow[0] != "Nguyễn Văn An" {
		t.Errorf("name = %q", submittedRow[0])
	}
	if submittedRow[1] != "Đã nộp" {
		t.Errorf("status = %q, want Đã nộp", submittedRow[1])
	}
	if submittedRow[2] != "8" || submittedRow[3] != "10" {
		t.Errorf("score = %s/%s, want 8/10", submittedRow[2], submittedRow[3])
	}
	if submittedRow[5] != "42:07" {
		t.Errorf("elapsed = %q, want 42:07", submittedRow[5])
	}
	if submittedRow[7] == "" {
		t.Error("submitted timestamp missing")
	}

	inProgressRow := rows[2]
	if inProgressRow[1] != "Đang làm" {
		t.Errorf("status = %q, want Đang làm", inProgressRow[1])
	}
	if len(inProgressRow) > 7 && inProgressRow[7] != "" {
		t.Errorf("unsubmitted row has submit timestamp %q", inProgressRow[7])
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{2527, "42:07"},
		{3725, "62:05"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.seconds); got != tt.want {
			t.Errorf("formatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
