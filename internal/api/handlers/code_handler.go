package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	apiContext "qrforge/internal/api/context"
	"qrforge/internal/engine/qr"
	"qrforge/internal/engine/registry"
	apierrors "qrforge/internal/pkg/errors"
	"qrforge/internal/platform/config"
	"qrforge/internal/platform/storage"
)

type CodeHandler struct {
	registry *registry.Service
	files    *storage.FileStore
	qrCfg    config.QRConfig
	regCfg   config.RegistryConfig
	maxBytes int64
}

func NewCodeHandler(svc *registry.Service, files *storage.FileStore, qrCfg config.QRConfig, regCfg config.RegistryConfig, maxUploadMB int64) *CodeHandler {
	if maxUploadMB < 1 {
		maxUploadMB = 25
	}
	return &CodeHandler{
		registry: svc,
		files:    files,
		qrCfg:    qrCfg,
		regCfg:   regCfg,
		maxBytes: maxUploadMB << 20,
	}
}

func (h *CodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label   string `json:"label"`
		Payload string `json:"payload"`
		TTLDays int    `json:"ttl_days"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Payload == "" {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Payload must not be empty", nil)
		return
	}

	ttl, ok := h.resolveTTL(req.TTLDays)
	if !ok {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "TTL out of range", nil)
		return
	}

	rec, err := h.registry.Create(req.Label, req.Payload, ttl, "")
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to persist code, please retry", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

func (h *CodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Missing file part", nil)
		return
	}
	defer file.Close()

	ttlDays := 0
	if v := r.FormValue("ttl_days"); v != "" {
		ttlDays, err = strconv.Atoi(v)
		if err != nil {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid ttl_days", nil)
			return
		}
	}
	ttl, ok := h.resolveTTL(ttlDays)
	if !ok {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "TTL out of range", nil)
		return
	}

	path, err := h.files.Save(uuid.New().String(), header.Filename, file)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to store uploaded file", nil)
		return
	}

	rec, err := h.registry.Create(header.Filename, h.files.Locator(path), ttl, path)
	if err != nil {
		// The code was never issued; do not leave the file behind.
		h.files.Remove(path)
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to persist code, please retry", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

// List is the analytics read path: it sweeps first so expired codes
// never appear in the response.
func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.registry.Sweep(time.Now()); err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Sweep failed", nil)
		return
	}

	records, err := h.registry.ListAll()
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to list codes", nil)
		return
	}
	if records == nil {
		records = []*registry.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// Image renders the code's payload as a PNG. GET takes render settings
// from the query string; POST additionally accepts a multipart "logo"
// part composited over the code.
func (h *CodeHandler) Image(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("code_id")

	rec, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Code not found", nil)
			return
		}
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to load code", nil)
		return
	}

	var logo []byte
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid multipart form", nil)
			return
		}
		if file, _, err := r.FormFile("logo"); err == nil {
			logo, err = io.ReadAll(file)
			file.Close()
			if err != nil {
				apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Failed to read logo", nil)
				return
			}
		}
	}

	level, opts, errMsg := h.renderOptions(r)
	if errMsg != "" {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, errMsg, nil)
		return
	}
	opts.Logo = logo

	m, err := qr.Encode(rec.Payload, level)
	if err != nil {
		if errors.Is(err, qr.ErrPayloadTooLarge) {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodePayloadTooLarge, "Payload exceeds QR capacity at this error correction level", nil)
			return
		}
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Encoding failed", nil)
		return
	}

	pngBytes, err := qr.RenderPNG(m, opts)
	if err != nil {
		if errors.Is(err, qr.ErrLogoDecode) {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeBadLogo, "Branding image cannot be decoded", nil)
			return
		}
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(pngBytes)
}

func (h *CodeHandler) Scan(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("code_id")

	if err := h.registry.IncrementScan(id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Code not found", nil)
			return
		}
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to record scan", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CodeHandler) resolveTTL(ttlDays int) (int, bool) {
	if ttlDays == 0 {
		ttlDays = h.regCfg.DefaultTTLDays
	}
	if ttlDays < 1 {
		return 0, false
	}
	if h.regCfg.MaxTTLDays > 0 && ttlDays > h.regCfg.MaxTTLDays {
		return 0, false
	}
	return ttlDays, true
}

// renderOptions merges query/form parameters over the configured
// defaults. Works for both GET query strings and POST form values
// because FormValue consults both.
func (h *CodeHandler) renderOptions(r *http.Request) (qr.Level, qr.Options, string) {
	levelStr := r.FormValue("level")
	if levelStr == "" {
		levelStr = h.qrCfg.Level
	}
	level, err := qr.ParseLevel(levelStr)
	if err != nil {
		return 0, qr.Options{}, err.Error()
	}

	opts := qr.Options{
		ModuleSize: h.qrCfg.ModuleSize,
		Border:     h.qrCfg.Border,
	}
	if opts.ModuleSize < 1 {
		opts.ModuleSize = 12
	}

	if v := r.FormValue("module_size"); v != "" {
		opts.ModuleSize, err = strconv.Atoi(v)
		if err != nil || opts.ModuleSize < 1 {
			return 0, qr.Options{}, "module_size must be a positive integer"
		}
	}
	if v := r.FormValue("border"); v != "" {
		opts.Border, err = strconv.Atoi(v)
		if err != nil || opts.Border < 0 {
			return 0, qr.Options{}, "border must be a non-negative integer"
		}
	}

	fgStr := r.FormValue("fg")
	if fgStr == "" {
		fgStr = h.qrCfg.Foreground
	}
	if fgStr != "" {
		fg, err := qr.ParseHexColor(fgStr)
		if err != nil {
			return 0, qr.Options{}, err.Error()
		}
		opts.Foreground = fg
	}

	bgStr := r.FormValue("bg")
	if bgStr == "" {
		bgStr = h.qrCfg.Background
	}
	if bgStr != "" {
		bg, err := qr.ParseHexColor(bgStr)
		if err != nil {
			return 0, qr.Options{}, err.Error()
		}
		opts.Background = bg
	}

	return level, opts, ""
}
