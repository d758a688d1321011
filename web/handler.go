// Package web serves the pinmux control surface over HTTP.
package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"goji.io"
	"goji.io/pat"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/logging"
)

// maxWriteSize bounds the body of a pin_mux write.
const maxWriteSize = 4096

type handler struct {
	manager *pinmux.Manager
	logger  logging.Logger
}

// NewHandler returns the HTTP control surface for every device of the manager.
//
//	GET      /devices                 status of all devices
//	GET      /devices/:name           status of one device
//	GET      /devices/:name/pin_mux   active index, as text
//	PUT|POST /devices/:name/pin_mux   request a new index
func NewHandler(manager *pinmux.Manager, logger logging.Logger) http.Handler {
	h := &handler{manager: manager, logger: logger}
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/devices"), h.listDevices)
	mux.HandleFunc(pat.Get("/devices/:name"), h.getDevice)
	mux.HandleFunc(pat.Get("/devices/:name/pin_mux"), h.showPinMux)
	mux.HandleFunc(pat.Put("/devices/:name/pin_mux"), h.storePinMux)
	mux.HandleFunc(pat.Post("/devices/:name/pin_mux"), h.storePinMux)
	return mux
}

func (h *handler) device(w http.ResponseWriter, r *http.Request) (*pinmux.Device, bool) {
	name := pat.Param(r, "name")
	dev, ok := h.manager.Device(name)
	if !ok {
		http.Error(w, "no such device "+strconv.Quote(name), http.StatusNotFound)
	}
	return dev, ok
}

func (h *handler) listDevices(w http.ResponseWriter, r *http.Request) {
	statuses := []pinmux.Status{}
	for _, name := range h.manager.Names() {
		if dev, ok := h.manager.Device(name); ok {
			statuses = append(statuses, dev.Controller.Status())
		}
	}
	h.writeJSON(w, statuses)
}

func (h *handler) getDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.device(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, dev.Controller.Status())
}

func (h *handler) showPinMux(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.device(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, dev.Attribute.Show()); err != nil {
		h.logger.CDebugw(r.Context(), "failed to write response", "error", err)
	}
}

func (h *handler) storePinMux(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.device(w, r)
	if !ok {
		return
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxWriteSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := dev.Attribute.Store(r.Context(), buf)
	if err != nil {
		http.Error(w, err.Error(), StatusForError(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, strconv.Itoa(n)+"\n"); err != nil {
		h.logger.CDebugw(r.Context(), "failed to write response", "error", err)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debugw("failed to encode response", "error", err)
	}
}

// StatusForError maps a rejected state request to an HTTP status. Only apply failures are
// retriable and map to 503.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, pinmux.ErrInvalidInput), errors.Is(err, pinmux.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, pinmux.ErrUnresolvedState):
		return http.StatusConflict
	case errors.Is(err, pinmux.ErrApplyFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
