package ai

import "strings"

// analysisPrompt is the fixed instruction template for turning raw exam
// text into structured JSON. The {TEXT} placeholder receives the
// extracted document text.
const analysisPrompt = `Bạn là một trợ lý AI chuyên nhập liệu đề thi. Nhiệm vụ của bạn là chuyển đổi văn bản thô từ file PDF thành định dạng JSON chuẩn.

VĂN BẢN ĐẦU VÀO:
{TEXT}

YÊU CẦU OUTPUT (JSON):
{
  "title": "Tên đề thi (nếu tìm thấy)",
  "questions": [
    {
      "id": 1,
      "type": "multiple_choice", // hoặc "true_false" hoặc "short_answer"
      "question": "Nội dung câu hỏi",
      "options": ["A. Lựa chọn 1", "B. Lựa chọn 2", "C. Lựa chọn 3", "D. Lựa chọn 4"], // nếu có
      "correct_answer": "A" // nếu tìm thấy đáp án
    }
  ]
}

QUY TẮC QUAN TRỌNG:
1. Nếu câu hỏi có dạng "A. ... B. ...", hãy gán type="multiple_choice".
2. Nếu câu hỏi yêu cầu điền vào chỗ trống hoặc tính toán, gán type="short_answer".
3. Nếu câu hỏi dạng bảng đúng sai, gán type="true_false" và thêm sub_questions cho từng ý.
4. Bỏ qua các dòng không phải câu hỏi (như số trang, tiêu đề lặp lại).
5. Nếu câu hỏi bị ngắt dòng, hãy nối lại cho liền mạch.
6. TUYỆT ĐỐI chỉ trả về JSON thuần, KHÔNG thêm lời dẫn, KHÔNG có markdown code block.
7. Nếu tìm thấy phần ĐÁP ÁN ở cuối, hãy điền vào correct_answer cho từng câu.`

// BuildTextPrompt substitutes the extracted document text into the
// analysis template.
func BuildTextPrompt(text string) string {
	return strings.Replace(analysisPrompt, "{TEXT}", text, 1)
}

// BuildVisionPrompt returns the template for image-based extraction,
// where the exam pages are attached as image parts instead of text.
func BuildVisionPrompt() string {
	return strings.Replace(analysisPrompt, "{TEXT}", "(đề thi nằm trong các trang hình ảnh đính kèm phía trên)", 1)
}
