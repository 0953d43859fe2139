package ledger

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
	usecase *Usecase
}

func NewHandler(uc *Usecase) *Handler {
	return &Handler{usecase: uc}
}

type initiateUpdateBody struct {
	NewIBAN string `json:"newIban"`
}

func (h *Handler) InitiateUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body initiateUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transactionID, err := h.usecase.InitiateUpdate(r.Context(), userID, body.NewIBAN)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, map[string]string{"transactionId": transactionID})
	case errors.Is(err, xerrors.ErrIBANRequired), errors.Is(err, xerrors.ErrInvalidIBAN):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUpstreamUnavailable):
		response.Error(w, http.StatusBadGateway, "Failed to generate OTP")
	default:
		log.Printf("InitiateUpdate error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

type finalizeUpdateBody struct {
	TransactionID string `json:"transactionId"`
	Code          string `json:"code"`
}

func (h *Handler) FinalizeUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body finalizeUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TransactionID == "" || body.Code == "" {
		response.Error(w, http.StatusBadRequest, "TransactionId and Code are required.")
		return
	}

	_, err := h.usecase.FinalizeUpdate(r.Context(), userID, body.TransactionID, body.Code)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, map[string]string{"message": "IBAN updated successfully."})
	case errors.Is(err, xerrors.ErrNoPendingUpdate), errors.Is(err, xerrors.ErrOTPNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrExpiredOTP), errors.Is(err, xerrors.ErrInvalidOTP):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUpstreamUnavailable):
		response.Error(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("FinalizeUpdate error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

type resendOtpBody struct {
	TransactionID string `json:"transactionId"`
}

func (h *Handler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body resendOtpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TransactionID == "" {
		response.Error(w, http.StatusBadRequest, "TransactionId is required.")
		return
	}

	err := h.usecase.ResendChallenge(r.Context(), userID, body.TransactionID)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, map[string]string{"message": "OTP resent."})
	case errors.Is(err, xerrors.ErrNoPendingUpdate):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrUpstreamUnavailable):
		response.Error(w, http.StatusBadGateway, "Failed to resend OTP")
	default:
		log.Printf("ResendOtp error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
