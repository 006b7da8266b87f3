package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/dharnesh67/neurohub/internal/port"
	"github.com/dharnesh67/neurohub/internal/service"
)

// QAHandler serves codebase question answering over SSE.
type QAHandler struct {
	qa *service.QAService
}

// NewQAHandler creates a Q&A handler.
func NewQAHandler(qa *service.QAService) *QAHandler {
	return &QAHandler{qa: qa}
}

// Register sets up Q&A routes.
func (h *QAHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/questions", h.Ask)
}

// Ask answers a question about the project's codebase. The answer is
// streamed as "token" SSE events, followed by one "references" event with
// the ranked file references used as context.
func (h *QAHandler) Ask(c fiber.Ctx) error {
	projectID := c.Params("id")

	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	stream, refs, err := h.qa.AnswerQuestion(c.Context(), projectID, body.Question)
	if err != nil {
		var cfgErr *port.ConfigurationError
		var embErr *port.EmbeddingError
		switch {
		case errors.As(err, &cfgErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.As(err, &embErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		for token := range stream {
			data, _ := json.Marshal(fiber.Map{"text": token})
			fmt.Fprintf(w, "event: token\ndata: %s\n\n", string(data))
			if w.Flush() != nil {
				// Consumer disconnected; the stream goroutine shuts
				// down with the request context.
				return
			}
		}

		data, _ := json.Marshal(fiber.Map{"references": refs})
		fmt.Fprintf(w, "event: references\ndata: %s\n\n", string(data))
		w.Flush()
	})
}
