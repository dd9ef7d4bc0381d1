package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"insurez/internal/calculators"
)

// CalculatorsHandler lists the mini calculators with their input fields.
func CalculatorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, calculators.List())
}

// CalculatorHandler evaluates one calculator: POST /api/calculators/{id}
// with a flat JSON object of numeric inputs.
func CalculatorHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/calculators/"), "/")
	if id == "" {
		CalculatorsHandler(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	TrackAPICall()

	var values calculators.Values
	if err := json.NewDecoder(io.LimitReader(r.Body, 16<<10)).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: expected an object of numbers")
		return
	}
	defer r.Body.Close()

	res, err := calculators.Compute(id, values)
	switch {
	case errors.Is(err, calculators.ErrUnknownCalculator):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calculators.ErrMissingInput), errors.Is(err, calculators.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Calculation failed")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
