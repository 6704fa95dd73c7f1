package dto

// ExtractRequest asks for a document to be downloaded, recognized and parsed.
// When ForwardURL is set the finished record is also POSTed there.
type ExtractRequest struct {
	FileURL    string `json:"file_url" binding:"required,url"`
	ForwardURL string `json:"forward_url" binding:"omitempty,url"`
}

// TextExtractRequest carries already recognized text.
type TextExtractRequest struct {
	Text string `json:"text"`
}
