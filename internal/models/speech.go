package models

type STTRequest struct {
	Audio    string `json:"audio"` // base64, optionally as a data URL
	MimeType string `json:"mimeType"`
	Model    string `json:"model,omitempty"`
}

type STTResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type TTSRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Model  string `json:"model,omitempty"`
	Format string `json:"format,omitempty"`
}

type TTSResponse struct {
	Audio    string `json:"audio"` // base64
	MimeType string `json:"mimeType"`
	Model    string `json:"model"`
	Voice    string `json:"voice"`
	Format   string `json:"format"`
}
