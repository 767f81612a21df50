package storage

import (
	"encoding/json"

	"gnarl/internal/stats"
)

func encodeHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func decodeHistory(payload []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func encodeDiagnostics(diagnostics []stats.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func decodeDiagnostics(payload []byte) ([]stats.GenerationDiagnostics, error) {
	var diagnostics []stats.GenerationDiagnostics
	if err := json.Unmarshal(payload, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}
