package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/curation"
	"github.com/printkb/backend/internal/ingestion"
	"github.com/printkb/backend/pkg/logger"
)

// WebSocketHandler streams per-stage curation progress so review UIs can
// show the pipeline advancing instead of a single long-running request.
type WebSocketHandler struct {
	processor *ingestion.Processor
}

func NewWebSocketHandler(processor *ingestion.Processor) *WebSocketHandler {
	return &WebSocketHandler{processor: processor}
}

type wsEvent struct {
	Type  string      `json:"type"`
	Stage string      `json:"stage,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var doc curation.CandidateDocument
		if err := c.ReadJSON(&doc); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			return
		}

		if doc.Title == "" || doc.Body == "" {
			c.WriteJSON(wsEvent{Type: "error", Error: "title and body are required"})
			continue
		}

		// Progress events are written from the pipeline's goroutines;
		// serialize writes through a channel owned by this connection.
		events := make(chan wsEvent, 8)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for ev := range events {
				if err := c.WriteJSON(ev); err != nil {
					logger.Debug("WebSocket write failed", zap.Error(err))
					return
				}
			}
		}()

		result, err := h.processor.Process(context.Background(), doc, func(stage curation.Stage) {
			events <- wsEvent{Type: "progress", Stage: string(stage)}
		})

		if err != nil {
			events <- wsEvent{Type: "error", Error: "curation failed"}
		} else {
			events <- wsEvent{Type: "result", Data: result}
		}
		close(events)
		<-done
	}
}
