package backend

import "github.com/nao1215/plantdoc/internal/model"

// Envelope status discriminators.
const (
	StatusSuccess   = "success"
	StatusFailed    = "error"
	StatusUncertain = "uncertain"
)

// ClassConfidence is one ranked class in a predict response.
type ClassConfidence struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// PredictResponse is the envelope returned by the predict endpoint. Which
// fields are set depends on Status: success responses carry
// PrimaryDiagnosis, Top3Predictions and Advice; error and uncertain
// responses carry Message and TopPredictions.
type PredictResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message,omitempty"`
	PrimaryDiagnosis string            `json:"primary_diagnosis,omitempty"`
	Confidence       float64           `json:"confidence,omitempty"`
	TopPredictions   []ClassConfidence `json:"top_predictions,omitempty"`
	Top3Predictions  []ClassConfidence `json:"top_3_predictions,omitempty"`
	Advice           model.Description `json:"advice,omitzero"`
}

// ExplainResponse is the envelope returned by the explain endpoint.
type ExplainResponse struct {
	Status string `json:"status"`

	// HeatmapBase64 is a data URL, e.g. "data:image/jpeg;base64,...".
	HeatmapBase64 string `json:"heatmap_base64,omitempty"`

	Message string `json:"message,omitempty"`
}

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the envelope returned by the chat endpoint.
type ChatResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}
