package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/research"
	"github.com/dmitrijs2005/podmate/internal/server/session"
	"github.com/go-chi/chi/v5"
)

// multipart overhead allowed on top of the document itself
const formOverhead = 1 << 20

type indexPage struct {
	UserName        string
	HasAPIKey       bool
	APIKeyValidated bool
	Greeting        string
	Artifacts       []models.Artifact
	Turns           []models.Turn
	Error           string
	Notice          string
}

// artifactView is the JSON shape of an artifact; audio bytes are fetched
// separately.
type artifactView struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"source_name"`
	Script      string    `json:"script"`
	ContentType string    `json:"content_type"`
	FileName    string    `json:"file_name"`
	AudioURL    string    `json:"audio_url"`
	AudioBytes  int       `json:"audio_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func toView(a models.Artifact) artifactView {
	return artifactView{
		ID:          a.ID,
		SourceName:  a.SourceName,
		Script:      a.Script,
		ContentType: a.ContentType,
		FileName:    a.FileName,
		AudioURL:    "/artifacts/" + a.ID + "/audio",
		AudioBytes:  len(a.Audio),
		CreatedAt:   a.CreatedAt,
	}
}

func (s *Server) indexData(sess *session.Session) indexPage {
	u, _ := sess.User()
	return indexPage{
		UserName:        u.UserName,
		HasAPIKey:       sess.HasAPIKey(),
		APIKeyValidated: sess.APIKeyValidated(),
		Greeting:        research.Greeting,
		Artifacts:       sess.Artifacts(),
		Turns:           sess.Turns(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", s.indexData(sessionFrom(r.Context())))
}

// handleSetAPIKey stores the key and validates it right away so the user
// sees the outcome.
func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	key := strings.TrimSpace(r.PostFormValue("api_key"))

	sess.SetAPIKey(key)
	_, err := sess.APIKey(r.Context())

	page := s.indexData(sess)
	if err != nil {
		page.Error = messageFor(err)
		s.render(w, r, statusFor(err), "index.html", page)
		return
	}
	page.Notice = "API key validated."
	s.render(w, r, http.StatusOK, "index.html", page)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *Server) handleCreatePodcast(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	fail := func(err error) {
		if wantsJSON(r) {
			writeError(w, err)
			return
		}
		page := s.indexData(sess)
		page.Error = messageFor(err)
		s.render(w, r, statusFor(err), "index.html", page)
	}

	r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(common.ErrFileTooLarge)
			return
		}
		fail(fmt.Errorf("%w: expected a multipart upload", common.ErrorValidation))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(fmt.Errorf("%w: please choose a file", common.ErrorValidation))
		return
	}
	defer file.Close()

	a, err := s.generator.Generate(r.Context(), sess, header.Filename, file)
	if err != nil {
		s.logger.Warn(r.Context(), "podcast generation failed", "file", header.Filename, "error", err)
		fail(err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, toView(a))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	arts := sessionFrom(r.Context()).Artifacts()
	out := make([]artifactView, 0, len(arts))
	for _, a := range arts {
		out = append(out, toView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArtifactAudio(w http.ResponseWriter, r *http.Request) {
	a, err := sessionFrom(r.Context()).Artifact(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if a.StorageKey != "" && s.store != nil {
		u, err := s.store.URL(r.Context(), a.StorageKey)
		if err == nil {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		s.logger.Warn(r.Context(), "presigning audio failed, serving from session", "key", a.StorageKey, "error", err)
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Audio)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.FileName))
	_, _ = w.Write(a.Audio)
}
