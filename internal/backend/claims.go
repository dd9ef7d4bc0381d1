package backend

import (
	"time"

	"github.com/goccy/go-json"
)

const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"
)

// ClaimRequest is what a policy holder files.
type ClaimRequest struct {
	PolicyID    string  `json:"policy_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	IncidentAt  string  `json:"incident_date,omitempty"`
}

// Claim mirrors the backend record. FraudScore is computed by the backend and
// passed through unchanged; nil means the backend did not send one.
type Claim struct {
	ID          string    `json:"id"`
	PolicyID    string    `json:"policy_id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	FraudScore  *float64  `json:"fraud_score,omitempty"`
	AdminNote   string    `json:"admin_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnmarshalJSON also accepts "_id" for the claim id.
func (c *Claim) UnmarshalJSON(data []byte) error {
	type plain Claim
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Claim(raw.plain)
	if c.ID == "" {
		c.ID = raw.MongoID
	}
	if c.Status == "" {
		c.Status = ClaimPending
	}
	return nil
}

// Decision is an admin's verdict on a claim.
type Decision struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}
