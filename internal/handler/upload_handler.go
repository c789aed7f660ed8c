package handler

import (
	"fmt"
	"net/http"

	"vcturbo/internal/app/storage"
	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/randx"
	"vcturbo/internal/pkg/req"
	"vcturbo/internal/pkg/resp"
)

// PresignProfilePicInput identifies the caller by its live connection and
// describes the image it wants to upload.
type PresignProfilePicInput struct {
	ConnectionID string `json:"connectionId" validate:"required"`
	FileName     string `json:"fileName" validate:"required,max=255"`
	MimeType     string `json:"mimeType" validate:"required"`
	FileSize     int64  `json:"fileSize" validate:"required"`
}

// HandlePresignProfilePic signs an upload URL for the profile picture of the user
// logged in on the given connection. The returned publicUrl is what the client
// sends with user:update_profile_pic once the upload has completed.
func HandlePresignProfilePic(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PresignProfilePicInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		if !randx.IsValidConnectionID(input.ConnectionID) {
			resp.RespondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}

		userID, ok := deps.Registry.UserOf(input.ConnectionID)
		if !ok {
			resp.RespondError(w, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		ext, customErr := storage.ValidateImage(input.FileName, input.MimeType, input.FileSize)
		if customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		key := randx.ObjectKey(fmt.Sprintf("%s/%s", storage.ProfilePicPrefix, userID), ext)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			key,
			input.MimeType,
			input.FileSize,
			storage.PresignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, errs.NewError(errs.ErrFileStorageFailed, err))
			return
		}

		resp.RespondSuccess(w, map[string]any{
			"presignedUrl": url,
			"fileKey":      key,
			"publicUrl":    deps.StorageService.PublicURL(key),
			"expiresIn":    int(storage.PresignedURLDuration.Seconds()),
		})
	}
}
