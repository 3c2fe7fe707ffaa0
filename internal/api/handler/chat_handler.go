package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/ports"
)

// ChatHandler exposes the conversation between the two participants of an
// appointment. The ?with= query names the other participant.
type ChatHandler struct {
	chat ports.ChatService
}

func NewChatHandler(chat ports.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

// List handles GET /v1/appointments/:id/messages.
//
// @Summary      Load a conversation
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Appointment ID"
// @Param        with  query     string  true  "Other participant's user ID"
// @Success      200   {object}  messagesResponse
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /v1/appointments/{id}/messages [get]
func (h *ChatHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	other := c.QueryParam("with")
	if other == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "with is required")
	}

	msgs, err := h.chat.Conversation(c.Request().Context(), c.Param("id"), actor.ID, other)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagesResponse{Messages: nonNil(msgs)})
}

// Send handles POST /v1/appointments/:id/messages.
//
// @Summary      Send a chat message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Appointment ID"
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      201   {object}  domain.Message
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /v1/appointments/{id}/messages [post]
func (h *ChatHandler) Send(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.chat.Send(c.Request().Context(), actor, c.Param("id"), req.ReceiverID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// Stream handles GET /v1/appointments/:id/messages/stream. It opens a chat
// widget for the request and writes one "messages" event per refresh until
// the client goes away.
//
// @Summary      Stream a conversation
// @Tags         chat
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id    path      string  true  "Appointment ID"
// @Param        with  query     string  true  "Other participant's user ID"
// @Success      200   {string}  string  "event: messages"
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /v1/appointments/{id}/messages/stream [get]
func (h *ChatHandler) Stream(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	other := c.QueryParam("with")
	if other == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "with is required")
	}

	ctx := c.Request().Context()
	session, err := h.chat.Open(ctx, actor, c.Param("id"), other)
	if err != nil {
		return err
	}
	defer session.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msgs, ok := <-session.Updates():
			if !ok {
				return nil
			}
			if err := writeEvent(w, "messages", messagesResponse{Messages: nonNil(msgs)}); err != nil {
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
