package handler

import (
	"net/http"

	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/req"
	"vcturbo/internal/pkg/resp"
)

// PowVerifyInput is the proof a client submits for a challenge nonce.
type PowVerifyInput struct {
	Nonce   string `json:"nonce" validate:"required"`
	Counter string `json:"counter" validate:"required,max=32"`
}

// HandlePowChallenge issues a fresh nonce and the required difficulty.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, map[string]any{
			"nonce":      deps.PoW.GenerateNonce(),
			"difficulty": deps.PoW.Difficulty(),
		})
	}
}

// HandlePowVerify exchanges a valid proof for a single-use connection token.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		token, err := deps.PoW.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			logx.Info("PoW proof rejected", "reason", err.Error())
			resp.RespondError(w, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, map[string]string{"token": token})
	}
}
