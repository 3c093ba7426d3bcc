package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"mm-replacer/replace"
)

// maxUpload caps uploaded input files.
const maxUpload = 8 << 20

// OutputFilename is the name offered for downloaded output.
const OutputFilename = "output.txt"

type replaceRequest struct {
	Input string `json:"input"`
}

func (h *handler) decodeInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req replaceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	return req.Input, true
}

func (h *handler) postReplace(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	res, err := h.app.Replace(input)
	if err != nil {
		http.Error(w, err.Error(), replaceErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// downloadOutput runs the replacement and returns the output as a plain-text
// attachment.
func (h *handler) downloadOutput(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	res, err := h.app.Replace(input)
	if err != nil {
		http.Error(w, err.Error(), replaceErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+OutputFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Output)
}

// uploadInput reads a plain-text file from the multipart "file" field and
// returns it as the new input.
func (h *handler) uploadInput(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}
	if !utf8.Valid(data) {
		http.Error(w, "file is not UTF-8 text", http.StatusUnsupportedMediaType)
		return
	}
	writeJSON(w, http.StatusOK, replaceRequest{Input: string(data)})
}

func replaceErrorStatus(err error) int {
	switch {
	case errors.Is(err, replace.ErrInvalidPattern):
		return http.StatusUnprocessableEntity
	case errors.Is(err, replace.ErrMatchTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
