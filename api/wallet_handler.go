package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/skillexchange/skill-exchange-backend/store"
	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferRequest represents the payload for a wallet transfer. The
// idempotency key is client-supplied so a retried request after a timeout
// applies at most once.
type TransferRequest struct {
	RecipientID    string `json:"recipientId"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// WalletHandler returns the authenticated user's balance and ledger.
func WalletHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userIDStr, err := GetUserIDFromContext(r.Context())
		if err != nil {
			utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
			return
		}
		userID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			utils.RespondError(w, nil, "Invalid user ID", http.StatusUnauthorized)
			return
		}

		wallet, err := st.Wallet(r.Context(), userID)
		if err != nil {
			respondStoreError(w, nil, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, wallet)
	}
}

// TransferHandler moves tokens between two users: debit, credit and both
// ledger rows land atomically or not at all.
func TransferHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logMessageBuilder strings.Builder
		defer func() {
			fmt.Println(logMessageBuilder.String())
		}()
		utils.AddToLogMessage(&logMessageBuilder, "[Wallet Transfer API]")

		if r.Method != http.MethodPost {
			utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		senderIDStr, err := GetUserIDFromContext(r.Context())
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
			return
		}
		senderID, err := primitive.ObjectIDFromHex(senderIDStr)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusUnauthorized)
			return
		}

		var req TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.IdempotencyKey == "" {
			utils.RespondError(w, &logMessageBuilder, "idempotencyKey is required", http.StatusBadRequest)
			return
		}
		recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid recipient ID", http.StatusBadRequest)
			return
		}

		transfer, err := st.Transfer(r.Context(), store.TransferRequest{
			IdempotencyKey: req.IdempotencyKey,
			SenderID:       senderID,
			RecipientID:    recipientID,
			Amount:         req.Amount,
			Description:    req.Description,
		})
		if errors.Is(err, store.ErrDuplicateTransfer) {
			// Replayed request: return the recorded outcome without
			// moving tokens again.
			existing, lookupErr := st.TransferByKey(r.Context(), req.IdempotencyKey)
			if lookupErr != nil {
				utils.RespondError(w, &logMessageBuilder, "Internal server error", http.StatusInternalServerError)
				return
			}
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Duplicate transfer request for key %s", req.IdempotencyKey))
			utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"message":  "Transfer already applied",
				"transfer": existing,
			})
			return
		}
		if err != nil {
			respondStoreError(w, &logMessageBuilder, err)
			return
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Transferred %d tokens from %s to %s", req.Amount, senderIDStr, req.RecipientID))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "Transfer successful",
			"transfer": transfer,
		})
	}
}
