package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/go-chathub/chathub/internal/server"
)

// allowedUploadExts mirrors the attachment policy: images and common
// document formats only.
var allowedUploadExts = []string{".jpeg", ".jpg", ".png", ".gif", ".pdf", ".doc", ".docx", ".txt"}

type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

func (s *ChatHubApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatHubApp) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "chathub is running")
}

func (s *ChatHubApp) getRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.cs.Rooms(r.Context())
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *ChatHubApp) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.cs.Users(r.Context())
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *ChatHubApp) getMessages(w http.ResponseWriter, r *http.Request) {
	roomId := r.PathValue("roomId")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.cs.RoomMessages(r.Context(), roomId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

// upload stores one multipart file and returns the attachment reference
// the client passes along in send_message or private_message.
func (s *ChatHubApp) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		var errResp *ApiError
		if errors.As(err, &maxBytesErr) {
			errResp = NewRequestEntityTooLargeError()
		} else {
			errResp = NewBadRequestError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(allowedUploadExts, ext) {
		errResp := NewUnsupportedMediaTypeError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	storedName := fmt.Sprintf("file-%s%s", uuid.NewString(), ext)
	dst, err := os.Create(filepath.Join(s.uploadDir, storedName))
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, UploadResponse{
		URL:      "/uploads/" + storedName,
		Filename: header.Filename,
		Size:     size,
		Mimetype: header.Header.Get("Content-Type"),
	})
}

func (s *ChatHubApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(s.allowedOrigins) == 0 {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(uuid.NewString(), conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
