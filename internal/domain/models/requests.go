package models

// Requests for analysis HTTP endpoints.

type AnalysisRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=2,max=20,alphanum"`
}

type RefreshRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=2,max=20,alphanum"`
}
