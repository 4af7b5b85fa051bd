package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/validation"
)

// Compile-time check to ensure AssistantHandlerImpl implements AssistantHandler
var _ interfaces.AssistantHandler = (*AssistantHandlerImpl)(nil)

// Image types the model accepts, as sniffed from the upload
var prescriptionImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AssistantHandlerImpl implements the interfaces.AssistantHandler interface
type AssistantHandlerImpl struct {
	assistant    interfaces.Assistant
	maxImageSize int64
	timeout      time.Duration
}

// NewAssistantHandler creates the assistant handler. Each model call is
// cancelled after timeout.
func NewAssistantHandler(assistant interfaces.Assistant, maxImageSize int64, timeout time.Duration) *AssistantHandlerImpl {
	return &AssistantHandlerImpl{
		assistant:    assistant,
		maxImageSize: maxImageSize,
		timeout:      timeout,
	}
}

// ChatMessage serves POST /api/assistant/chat
func (h *AssistantHandlerImpl) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var msg catalog.ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := validation.ValidateChatMessage(msg.Message); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply, err := h.assistant.Chat(ctx, strings.TrimSpace(msg.Message))
	if err != nil {
		logging.Error("Assistant chat failed", "error", err)
		RespondWithError(w, assistantErrorStatus(err), "Assistant request failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, catalog.ChatReply{Response: reply})
}

// ExplainPrescription serves POST /api/assistant/prescription with the image
// in the multipart field "file"
func (h *AssistantHandlerImpl) ExplainPrescription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		RespondWithError(w, http.StatusBadRequest, "Expected a multipart form with an image in field \"file\"")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Debug("Failed to remove multipart files", "error", err)
		}
	}()

	file, _, err := r.FormFile("file")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Missing image in field \"file\"")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if int64(len(image)) > h.maxImageSize {
		RespondWithError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}
	if len(image) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Image is empty")
		return
	}

	mimeType, _, _ := mime.ParseMediaType(http.DetectContentType(image))
	if !prescriptionImageTypes[mimeType] {
		RespondWithError(w, http.StatusUnsupportedMediaType, "Image must be JPEG, PNG or WebP, got "+mimeType)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	analysis, err := h.assistant.AnalyzePrescription(ctx, image, mimeType)
	if err != nil {
		logging.Error("Prescription analysis failed", "error", err, "bytes", len(image), "mime_type", mimeType)
		RespondWithError(w, assistantErrorStatus(err), "Assistant request failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, analysis)
}

func (h *AssistantHandlerImpl) tooLargeMessage() string {
	return fmt.Sprintf("Image too large. Maximum allowed size is %d bytes", h.maxImageSize)
}

// AssistantDisabled answers the assistant routes when no API key is configured
func AssistantDisabled(w http.ResponseWriter, r *http.Request) {
	RespondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured")
}

func assistantErrorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
