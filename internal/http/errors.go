package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusBody es el sobre {status, msg} que usan todos los resultados de error.
type statusBody struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// WriteError responde un {status, msg} con el status HTTP igual al del body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, statusBody{Status: status, Msg: msg})
}

// ReadJSON: decodifica JSON de forma tolerante (NO falla por campos desconocidos).
// Valida Content-Type y limita el tamaño del body a 1MB.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		WriteError(w, http.StatusBadRequest, "Content-Type debe ser application/json")
		return false
	}
	// máx 1MB
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	// NOTA: NO usamos DisallowUnknownFields para no romper por campos extra.
	if err := dec.Decode(v); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "json inválido")
		return false
	}
	return true
}
