/*
This file covers media: multipart uploads that become image, file, or voice
messages backed by blob storage, and presigned download links for fetching
the stored objects.
*/
package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// Upload kinds distinguish the two upload endpoints.
const (
	UploadKindFile  = "file"
	UploadKindVoice = "voice"
)

// downloadLinkTTL bounds how long a presigned download URL stays valid.
const downloadLinkTTL = 15 * time.Minute

// fileExtToMessageType maps permitted extensions on the file endpoint to the
// message type they produce. Anything absent is rejected.
var fileExtToMessageType = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".webp": "image",

	".pdf":  "file",
	".doc":  "file",
	".docx": "file",
	".txt":  "file",
	".zip":  "file",
}

// voiceExts are the extensions accepted on the voice endpoint.
var voiceExts = map[string]bool{
	".ogg":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

// HandleUploadMedia accepts a multipart upload, stores the blob, appends the
// corresponding media message, and fans it out to the chat's live
// connections. The kind selects the validation rules: the file endpoint
// infers image or file from the extension, the voice endpoint accepts audio
// plus a duration field.
func HandleUploadMedia(deps *AppDeps, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if parseErr := req.SetupMultipart(w, r); parseErr != nil {
			resp.RespondError(w, r, parseErr)
			return
		}

		chatID, err := strconv.ParseInt(r.FormValue("chat_id"), 10, 64)
		if err != nil || chatID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !requireParticipant(w, r, deps, chatID, userID) {
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))

		var (
			msgType  string
			duration *int64
		)
		switch kind {
		case UploadKindVoice:
			if !voiceExts[ext] {
				resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeNotAllowed))
				return
			}
			msgType = "voice"

			secs, err := strconv.ParseInt(r.FormValue("duration"), 10, 64)
			if err != nil || secs < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			duration = &secs

		default:
			var allowed bool
			msgType, allowed = fileExtToMessageType[ext]
			if !allowed {
				resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeNotAllowed))
				return
			}
		}

		if header.Size > req.MaxRequestFileSize {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		key := randx.ObjectKey(fmt.Sprintf("chats/%d", chatID), header.Filename)
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		if err := deps.Storage.Upload(r.Context(), key, mimeType, file); err != nil {
			logx.Error(err, "Failed to store uploaded file", "chat_id", chatID, "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		fileName := header.Filename
		fileSize := header.Size
		msg, err := deps.Store.AppendMessage(r.Context(), store.AppendMessageParams{
			ChatID:   chatID,
			SenderID: userID,
			Type:     msgType,
			Content:  fileName,
			FilePath: &key,
			FileName: &fileName,
			FileSize: &fileSize,
			Duration: duration,
		})
		if err != nil {
			logx.Error(err, "Failed to persist media message", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		view := msg.View()
		deps.Broadcaster.Broadcast(chatID, userID, chat.MessageEvent{Type: chat.TypeNewMessage, Message: view})

		resp.RespondSuccess(w, r, map[string]any{"message": view})
	}
}

// HandlePresignDownload returns a short-lived URL for downloading a stored
// object. The key encodes the owning chat, so access is checked against it.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		key := r.URL.Query().Get("key")
		chatID, ok := chatIDFromObjectKey(key)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !requireParticipant(w, r, deps, chatID, userID) {
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), key, downloadLinkTTL)
		if err != nil {
			logx.Error(err, "Failed to presign download", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"url": url})
	}
}

// chatIDFromObjectKey parses keys of the form "chats/{chatID}/{object}".
func chatIDFromObjectKey(key string) (int64, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != "chats" || parts[2] == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
