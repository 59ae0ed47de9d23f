package handler

import (
	"net/http"

	"github.com/isushmeeta/AI-HMS/internal/service"
	"github.com/isushmeeta/AI-HMS/internal/usecase"
	"github.com/isushmeeta/AI-HMS/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
}

func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
	}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	doctorID, patientID, ok := recipientFromQuery(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationUsecase.ListNotifications(r.Context(), doctorID, patientID)
	if err != nil {
		switch err {
		case service.ErrMissingRecipient:
			response.Error(w, http.StatusBadRequest, "Exactly one of doctor_id or patient_id is required", nil)
		default:
			response.InternalServerError(w, "Failed to list notifications")
		}
		return
	}

	response.Success(w, http.StatusOK, "Notifications retrieved successfully", notifications)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	doctorID, patientID, ok := recipientFromQuery(w, r)
	if !ok {
		return
	}

	count, err := h.notificationUsecase.UnreadCount(r.Context(), doctorID, patientID)
	if err != nil {
		switch err {
		case service.ErrMissingRecipient:
			response.Error(w, http.StatusBadRequest, "Exactly one of doctor_id or patient_id is required", nil)
		default:
			response.InternalServerError(w, "Failed to count unread notifications")
		}
		return
	}

	response.Success(w, http.StatusOK, "Unread count retrieved successfully", count)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid notification ID", nil)
		return
	}

	notification, err := h.notificationUsecase.MarkRead(r.Context(), notificationID)
	if err != nil {
		switch err {
		case usecase.ErrNotificationNotFound:
			response.NotFound(w, "Notification not found")
		default:
			response.InternalServerError(w, "Failed to mark notification as read")
		}
		return
	}

	response.Success(w, http.StatusOK, "Notification marked as read", notification)
}

// recipientFromQuery parses the doctor_id / patient_id query filters.
// Writes a 400 and returns ok=false on malformed ids; the XOR rule is
// enforced by the usecase.
func recipientFromQuery(w http.ResponseWriter, r *http.Request) (*uuid.UUID, *uuid.UUID, bool) {
	var doctorID, patientID *uuid.UUID

	if raw := r.URL.Query().Get("doctor_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
			return nil, nil, false
		}
		doctorID = &parsed
	}
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
			return nil, nil, false
		}
		patientID = &parsed
	}

	return doctorID, patientID, true
}
