package otp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"payguard/pkg/middleware"
	"payguard/pkg/response"
	xerrors "payguard/pkg/xerrors"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type requestOtpBody struct {
	TransactionID string `json:"transactionId"`
	Purpose       string `json:"purpose"`
}

func (h *Handler) RequestOtp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	email, _ := middleware.GetEmail(r.Context())

	var body requestOtpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TransactionID == "" {
		response.Error(w, http.StatusBadRequest, "TransactionId is required.")
		return
	}

	result, err := h.service.Issue(r.Context(), userID, body.TransactionID, body.Purpose, email)
	if err != nil {
		log.Printf("RequestOtp error: %v", err)
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, result)
}

type verifyOtpBody struct {
	TransactionID string `json:"transactionId"`
	Code          string `json:"code"`
}

type verifyOtpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body verifyOtpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TransactionID == "" || body.Code == "" {
		response.Error(w, http.StatusBadRequest, "TransactionId and Code are required.")
		return
	}

	err := h.service.Validate(r.Context(), userID, body.TransactionID, body.Code)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, verifyOtpResult{Success: true, Message: "OTP verified successfully."})
	case errors.Is(err, xerrors.ErrOTPNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrExpiredOTP), errors.Is(err, xerrors.ErrInvalidOTP):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("VerifyOtp error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
