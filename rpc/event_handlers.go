package rpc

import (
	"net/http"

	"acdmchain/core/types"
)

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// payloadCarrier is implemented by every module event wrapper.
type payloadCarrier interface {
	Event() *types.Event
}

// handleEvents returns the recorded engine events in emission order, the
// feed off-chain consumers replay to reconstruct round, order, and
// parameter history.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	recorded := s.events.Events()
	out := make([]eventResult, 0, len(recorded))
	for _, evt := range recorded {
		result := eventResult{Type: evt.EventType()}
		if carrier, ok := evt.(payloadCarrier); ok {
			if payload := carrier.Event(); payload != nil {
				result.Attributes = payload.Attributes
			}
		}
		out = append(out, result)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}
