package api

import (
	"github.com/ruteri/registrar-controller/interfaces"
)

// PriceResponse is returned by GET /api/names/{name}/price.
type PriceResponse struct {
	Name     string `json:"name"`
	Duration uint64 `json:"duration"`

	// Price is the rent in wei as a base-10 integer string.
	Price string `json:"price"`

	// PriceEther is Price in ether, formatted for display.
	PriceEther string `json:"price_ether"`
}

// ValidityResponse is returned by GET /api/names/{name}/valid.
type ValidityResponse struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}

// AvailabilityResponse is returned by GET /api/names/{name}/available.
type AvailabilityResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// CommitmentAgesResponse is returned by GET /api/commitment-ages.
type CommitmentAgesResponse struct {
	MinSeconds uint64 `json:"min_seconds"`
	MaxSeconds uint64 `json:"max_seconds"`
}

// CommitmentRequest is the body of POST /api/commitments.
// A missing secret is generated by the server and returned.
type CommitmentRequest struct {
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Secret string `json:"secret,omitempty"`
}

// CommitmentResponse carries everything needed to reveal later.
type CommitmentResponse struct {
	Name       string                    `json:"name"`
	Owner      string                    `json:"owner"`
	Secret     interfaces.Secret         `json:"secret"`
	Commitment interfaces.CommitmentHash `json:"commitment"`
}

// CommitRequest is the body of POST /api/tx/commit.
type CommitRequest struct {
	Sender     string `json:"sender"`
	Commitment string `json:"commitment"`
}

// RegisterRequest is the body of POST /api/tx/register.
// Price is a decimal ether amount such as "0.05".
type RegisterRequest struct {
	Sender   string `json:"sender"`
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Duration uint64 `json:"duration"`
	Secret   string `json:"secret"`
	Price    string `json:"price"`
}

// RenewRequest is the body of POST /api/tx/renew.
type RenewRequest struct {
	Sender   string `json:"sender"`
	Name     string `json:"name"`
	Duration uint64 `json:"duration"`
	Price    string `json:"price"`
}

// WithdrawRequest is the body of POST /api/tx/withdraw.
type WithdrawRequest struct {
	Sender string `json:"sender"`
}
