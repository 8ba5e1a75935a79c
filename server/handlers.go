package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lvillar/certgen"
	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/document"
	"github.com/lvillar/certgen/records"
	"github.com/lvillar/certgen/storage"
)

// Form field names of POST /generate.
const (
	fieldUpload   = "csvUpload"
	fieldPrefix   = "filePrefix"
	fieldTemplate = "pdfTemplate"
	// fieldHoneypot is hidden from people; only bots fill it in.
	fieldHoneypot = "preferredName"
)

const csvTemplateName = "certificate-csv-template.csv"

var validate = validator.New()

// generateForm holds the fixed fields of the generation form.
type generateForm struct {
	Prefix   string `validate:"required,max=100"`
	Template string `validate:"required,max=100"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		if r.ContentLength > s.cfg.MaxUploadBytes {
			writeResult(w, certgen.Result{Status: http.StatusRequestEntityTooLarge, Message: "upload too large"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResult(w, certgen.Result{Status: http.StatusRequestEntityTooLarge, Message: "upload too large"})
			return
		}
		writeResult(w, certgen.Result{Status: http.StatusBadRequest, Message: "invalid form: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	if r.FormValue(fieldHoneypot) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := generateForm{Prefix: r.FormValue(fieldPrefix), Template: r.FormValue(fieldTemplate)}
	if err := validate.Struct(form); err != nil {
		writeResult(w, certgen.Result{Status: http.StatusBadRequest, Message: "invalid form: " + err.Error()})
		return
	}

	file, _, err := r.FormFile(fieldUpload)
	if err != nil {
		writeResult(w, certgen.Result{Status: http.StatusBadRequest, Message: fieldUpload + " is required"})
		return
	}
	defer file.Close()

	upload, err := s.saveUpload(file)
	if err != nil {
		s.log.Error("saving upload", zap.Error(err))
		writeResult(w, certgen.Result{Status: http.StatusInternalServerError, Message: "failed to store upload"})
		return
	}

	res := s.gen.Generate(r.Context(), certgen.Request{
		Upload:   upload,
		Prefix:   form.Prefix,
		Template: form.Template,
		Details:  details(r.MultipartForm),
	})
	writeResult(w, res)
}

// saveUpload stores the roster under a request-unique name and returns its
// path.
func (s *Server) saveUpload(src multipart.File) (string, error) {
	name := "upload-" + uuid.NewString() + ".csv"
	p, err := storage.Resolve(s.cfg.UploadDir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(p)
		return "", err
	}
	return p, dst.Close()
}

// details collects every form value that is not a fixed form field.
func details(form *multipart.Form) map[string]string {
	out := make(map[string]string)
	for k, vs := range form.Value {
		switch k {
		case fieldPrefix, fieldTemplate, fieldHoneypot:
			continue
		}
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

type templateView struct {
	ID     string        `json:"id"`
	Fields []fieldView   `json:"fields"`
	Build  *doctpl.Build `json:"build,omitempty"`
}

type fieldView struct {
	Name  string            `json:"name"`
	Style doctpl.FieldStyle `json:"style"`
}

func newTemplateView(spec *doctpl.Spec) templateView {
	v := templateView{ID: spec.ID, Build: spec.Build}
	for _, f := range spec.Fields {
		v.Fields = append(v.Fields, fieldView{Name: f.Name, Style: f.Style})
	}
	return v
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.gen.Templates().List(r.Context())
	if err != nil {
		s.log.Error("listing templates", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to list templates"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": ids})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	spec, err := s.gen.Templates().Load(r.Context(), r.PathValue("id"))
	if err != nil {
		var tplErr *doctpl.TemplateError
		switch {
		case errors.As(err, &tplErr) && tplErr.Reason == doctpl.NotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
		case errors.As(err, &tplErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": err.Error()})
		default:
			s.log.Error("loading template", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to load template"})
		}
		return
	}
	writeJSON(w, http.StatusOK, newTemplateView(spec))
}

func (s *Server) handleCSVTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvTemplateName))

	f, err := os.Open(s.cfg.CSVTemplate)
	if err != nil {
		w.Header().Set("Content-Type", "text/csv")
		if err := records.WriteTemplate(w); err != nil {
			s.log.Warn("writing csv template", zap.Error(err))
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "failed to read csv template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	http.ServeContent(w, r, csvTemplateName, info.ModTime(), f)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name") + "." + document.Extension
	p, err := storage.Resolve(s.gen.OutputDir(), name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(p)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(p)))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
