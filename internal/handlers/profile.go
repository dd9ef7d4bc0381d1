package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"insurez/internal/models"
)

// compactProfile uses short keys so the shareable code stays small.
type compactProfile struct {
	Age             int    `json:"a,omitempty"`
	EmploymentLevel string `json:"el,omitempty"`
	FamilyStatus    string `json:"fs,omitempty"`
	Dependents      int    `json:"d,omitempty"`
	PrimaryGoal     string `json:"g,omitempty"`
	RiskTolerance   string `json:"rt,omitempty"`
	SmokingStatus   string `json:"s,omitempty"`
}

func toCompact(p models.UserProfile) compactProfile {
	return compactProfile{
		Age: p.Age, EmploymentLevel: p.EmploymentLevel, FamilyStatus: p.FamilyStatus,
		Dependents: p.Dependents, PrimaryGoal: p.PrimaryGoal,
		RiskTolerance: p.RiskTolerance, SmokingStatus: p.SmokingStatus,
	}
}

func fromCompact(c compactProfile) models.UserProfile {
	return models.UserProfile{
		Age: c.Age, EmploymentLevel: c.EmploymentLevel, FamilyStatus: c.FamilyStatus,
		Dependents: c.Dependents, PrimaryGoal: c.PrimaryGoal,
		RiskTolerance: c.RiskTolerance, SmokingStatus: c.SmokingStatus,
	}
}

const (
	codePrefix    = "INZ-"
	maxCodeLength = 512
)

var errBadCode = errors.New("invalid profile code")

func encodeProfile(p models.UserProfile) (string, error) {
	data, err := json.Marshal(toCompact(p))
	if err != nil {
		return "", err
	}
	return codePrefix + base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeProfile(code string) (models.UserProfile, error) {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, codePrefix) || len(code) > maxCodeLength {
		return models.UserProfile{}, errBadCode
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(code, codePrefix))
	if err != nil {
		return models.UserProfile{}, errBadCode
	}
	var c compactProfile
	if err := json.Unmarshal(data, &c); err != nil {
		return models.UserProfile{}, errBadCode
	}
	return fromCompact(c), nil
}

// EncodeProfileHandler turns a profile into a shareable code.
func EncodeProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var profile models.UserProfile
	if err := json.NewDecoder(io.LimitReader(r.Body, 16<<10)).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if msg, ok := validateProfile(profile); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	code, err := encodeProfile(profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Encoding error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// DecodeProfileHandler turns a code from ?code= back into a profile.
func DecodeProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profile, err := decodeProfile(r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile code")
		return
	}
	if msg, ok := validateProfile(profile); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, profile)
}
