package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Room / exam-specific ──────────────────────────────────────────
	ErrRoomNotFound      ErrCode = "ROOM_NOT_FOUND"
	ErrRoomClosed        ErrCode = "ROOM_CLOSED"
	ErrRosterCredentials ErrCode = "ROSTER_CREDENTIALS_INVALID"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrRoomCodeExhausted ErrCode = "ROOM_CODE_EXHAUSTED"
	ErrEmptyRoster       ErrCode = "EMPTY_ROSTER"

	// ─── AI extraction ─────────────────────────────────────────────────
	ErrMissingAPIKey  ErrCode = "MISSING_API_KEY"
	ErrInvalidAPIKey  ErrCode = "INVALID_API_KEY"
	ErrExtractionFail ErrCode = "EXTRACTION_FAILED"
	ErrInvalidModel   ErrCode = "INVALID_MODEL"

	// ─── Media / documents ─────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email hoặc mật khẩu không đúng."
	case ErrTokenRequired:
		return "Yêu cầu token xác thực."
	case ErrTokenInvalid:
		return "Token xác thực không hợp lệ."
	case ErrTokenExpired:
		return "Token xác thực đã hết hạn."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Bạn không có quyền truy cập tài nguyên này."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại."
	case ErrInvalidID:
		return "Định dạng ID không hợp lệ."
	case ErrInvalidPayload:
		return "Nội dung yêu cầu không hợp lệ."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Không tìm thấy tài nguyên."
	case ErrConflict:
		return "Tài nguyên đã tồn tại."

	// ─── Room / exam-specific ──────────────────────────────────────────
	case ErrRoomNotFound:
		return "Không tìm thấy phòng thi. Vui lòng kiểm tra mã phòng."
	case ErrRoomClosed:
		return "Phòng thi đã đóng."
	case ErrRosterCredentials:
		return "Mã số học sinh hoặc mật khẩu không đúng."
	case ErrAlreadySubmitted:
		return "Bài thi đã được nộp."
	case ErrNoQuestions:
		return "Không tìm thấy câu hỏi nào trong đề thi."
	case ErrRoomCodeExhausted:
		return "Không thể tạo mã phòng. Vui lòng thử lại."
	case ErrEmptyRoster:
		return "Danh sách lớp trống hoặc không đúng định dạng."

	// ─── AI extraction ─────────────────────────────────────────────────
	case ErrMissingAPIKey:
		return "Chưa có API Key. Vui lòng nhập API Key trong phần Cài đặt."
	case ErrInvalidAPIKey:
		return "API Key không hợp lệ. Vui lòng kiểm tra lại trong phần Cài đặt."
	case ErrExtractionFail:
		return "Không thể phân tích đề thi. Vui lòng kiểm tra API Key hoặc thử lại sau."
	case ErrInvalidModel:
		return "Model AI không được hỗ trợ."

	// ─── Media / documents ─────────────────────────────────────────────
	case ErrFileRequired:
		return "Yêu cầu tải lên file."
	case ErrUnsupportedFile:
		return "Định dạng file không được hỗ trợ."
	case ErrFileTooLarge:
		return "Kích thước file vượt quá giới hạn."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Quá nhiều yêu cầu. Vui lòng thử lại sau."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Đã xảy ra lỗi máy chủ."
	default:
		return "Đã xảy ra lỗi không xác định."
	}
}
