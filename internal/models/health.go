package models

type HealthResponse struct {
	OK               bool        `json:"ok"`
	HasOpenRouterKey bool        `json:"hasOpenRouterKey"`
	Referer          string      `json:"referer"`
	Defaults         interface{} `json:"defaults"`
	Runtime          string      `json:"runtime"`
}
