package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/store"
)

// BindingHandler serves the gesture key bindings. Overrides are stored per
// gesture; every change calls reload so the classifier picks it up.
type BindingHandler struct {
	store    *store.Store
	defaults gesture.Bindings
	reload   func() error
}

// NewBindingHandler creates a BindingHandler. A nil defaults map means
// gesture.DefaultBindings; reload may be nil.
func NewBindingHandler(s *store.Store, defaults gesture.Bindings, reload func() error) *BindingHandler {
	if defaults == nil {
		defaults = gesture.DefaultBindings()
	}
	return &BindingHandler{store: s, defaults: defaults, reload: reload}
}

type bindingResponse struct {
	Gesture    string   `json:"gesture"`
	Kind       string   `json:"kind"`
	Keys       []string `json:"keys"`
	Default    []string `json:"default"`
	Enabled    bool     `json:"enabled"`
	Overridden bool     `json:"overridden"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

type updateBindingRequest struct {
	Keys    []string `json:"keys"`
	Enabled *bool    `json:"enabled"`
}

// ServeHTTP routes /api/bindings and /api/bindings/{gesture}.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := itemPath(r.URL.Path, "/api/bindings")

	if name == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	g := gesture.Gesture(name)
	if !gesture.IsKnown(g) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, g)
	case http.MethodPut:
		h.update(w, r, g)
	case http.MethodDelete:
		h.delete(w, g)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// resolve merges the default binding for g with its stored override, if any.
func (h *BindingHandler) resolve(g gesture.Gesture) (bindingResponse, error) {
	def, hasDefault := h.defaults[g]
	resp := bindingResponse{
		Gesture: string(g),
		Kind:    string(gesture.KindOf(g)),
		Keys:    input.KeyNames(def),
		Default: input.KeyNames(def),
		Enabled: hasDefault && len(def) > 0,
	}

	o, err := h.store.Bindings().Get(string(g))
	if errors.Is(err, store.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return resp, err
	}

	resp.Overridden = true
	resp.Enabled = o.Enabled && len(o.Keys) > 0
	if len(o.Keys) > 0 {
		resp.Keys = input.KeyNames(o.Keys)
	}
	return resp, nil
}

func (h *BindingHandler) list(w http.ResponseWriter) {
	resp := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(gesture.Gestures()))}
	for _, g := range gesture.Gestures() {
		b, err := h.resolve(g)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list bindings")
			return
		}
		resp.Bindings = append(resp.Bindings, b)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BindingHandler) get(w http.ResponseWriter, g gesture.Gesture) {
	b, err := h.resolve(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// update handles PUT /api/bindings/{gesture}. Keys are optional when only
// toggling; an override without keys keeps the default keys.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, g gesture.Gesture) {
	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	keys, err := input.ParseKeys(req.Keys)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if len(keys) == 0 {
		keys = h.defaults[g]
	}
	if enabled && len(keys) == 0 {
		writeError(w, http.StatusBadRequest, "keys are required")
		return
	}

	binding := &store.Binding{Gesture: string(g), Keys: keys, Enabled: enabled}
	if err := h.store.Bindings().Upsert(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save binding")
		return
	}
	h.reloadRules()

	h.get(w, g)
}

// delete handles DELETE /api/bindings/{gesture}, restoring the default keys.
func (h *BindingHandler) delete(w http.ResponseWriter, g gesture.Gesture) {
	if err := h.store.Bindings().Delete(string(g)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No override for gesture")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	h.reloadRules()

	w.WriteHeader(http.StatusNoContent)
}

func (h *BindingHandler) reloadRules() {
	if h.reload == nil {
		return
	}
	if err := h.reload(); err != nil {
		log.Printf("Failed to reload bindings: %v", err)
	}
}
