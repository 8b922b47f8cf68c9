package models

type ExtractRequest struct {
	File     string `json:"file,omitempty"` // base64
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
}

type ExtractResponse struct {
	Text   string `json:"text"`
	Title  string `json:"title"`
	Source string `json:"source"` // "txt", "pdf", "docx" or "youtube"
}
