package models

// InferenceRequest is the body accepted by the hosted inference API.
type InferenceRequest struct {
	Inputs  []string         `json:"inputs"`
	Options InferenceOptions `json:"options"`
}

type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// InferenceBatchResponse holds, for every input, the scored labels sorted
// by descending score.
type InferenceBatchResponse [][]ScoredLabel
