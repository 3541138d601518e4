package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadSource identifies where a lead came from
type LeadSource string

const (
	LeadSourceWebsite      LeadSource = "website"
	LeadSourceWebsitePopup LeadSource = "website_popup"
	LeadSourceContactForm  LeadSource = "contact_form"
	LeadSourceMetaAds      LeadSource = "meta_ads"
	LeadSourceGoogleAds    LeadSource = "google_ads"
	LeadSourceManual       LeadSource = "manual"
	LeadSourceOther        LeadSource = "other"
)

// LeadSources lists every accepted source value
var LeadSources = []LeadSource{
	LeadSourceWebsite,
	LeadSourceWebsitePopup,
	LeadSourceContactForm,
	LeadSourceMetaAds,
	LeadSourceGoogleAds,
	LeadSourceManual,
	LeadSourceOther,
}

// IsValid reports whether s is one of the closed source values
func (s LeadSource) IsValid() bool {
	for _, known := range LeadSources {
		if s == known {
			return true
		}
	}
	return false
}

// LeadStatus is the operator-managed pipeline stage of a lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every accepted status value
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusConverted,
	LeadStatusLost,
}

// IsValid reports whether s is one of the closed status values
func (s LeadStatus) IsValid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Campaign holds ad attribution for leads coming from ad platforms
type Campaign struct {
	Platform     string `bson:"platform,omitempty" json:"platform,omitempty"`
	CampaignID   string `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	CampaignName string `bson:"campaign_name,omitempty" json:"campaign_name,omitempty"`
	AdSetID      string `bson:"adset_id,omitempty" json:"adset_id,omitempty"`
	AdSetName    string `bson:"adset_name,omitempty" json:"adset_name,omitempty"`
	AdID         string `bson:"ad_id,omitempty" json:"ad_id,omitempty"`
	AdName       string `bson:"ad_name,omitempty" json:"ad_name,omitempty"`
}

// IsEmpty reports whether no attribution field is set
func (c *Campaign) IsEmpty() bool {
	return c == nil || *c == Campaign{}
}

// Lead is the canonical record of a prospective customer contact
type Lead struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Company    string             `bson:"company,omitempty" json:"company,omitempty"`
	Subject    string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Service    string             `bson:"service,omitempty" json:"service,omitempty"`
	Budget     string             `bson:"budget,omitempty" json:"budget,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Source     LeadSource         `bson:"source" json:"source"`
	Status     LeadStatus         `bson:"status" json:"status"`
	Campaign   *Campaign          `bson:"campaign,omitempty" json:"campaign,omitempty"`
	ExternalID string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	FormID     string             `bson:"form_id,omitempty" json:"form_id,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// BeforeCreate stamps timestamps and forces the initial status
func (l *Lead) BeforeCreate(now time.Time) {
	l.CreatedAt = now
	l.UpdatedAt = now
	l.Status = LeadStatusNew
	if l.Campaign.IsEmpty() {
		l.Campaign = nil
	}
}

// Validate checks the closed enums of a lead
func (l *Lead) Validate() error {
	if !l.Source.IsValid() {
		return fmt.Errorf("%w: unknown lead source %q", ErrValidation, l.Source)
	}
	if l.Status != "" && !l.Status.IsValid() {
		return fmt.Errorf("%w: unknown lead status %q", ErrValidation, l.Status)
	}
	return nil
}

// LeadInput is a request to construct a lead, produced by the direct
// submission endpoint or by webhook normalization.
type LeadInput struct {
	Name       string
	Email      string
	Phone      string
	Company    string
	Subject    string
	Message    string
	Service    string
	Budget     string
	Source     LeadSource
	Campaign   *Campaign
	ExternalID string
	FormID     string
}

// ToLead builds an unsaved lead from the input
func (in LeadInput) ToLead() *Lead {
	return &Lead{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Company:    strings.TrimSpace(in.Company),
		Subject:    in.Subject,
		Message:    in.Message,
		Service:    in.Service,
		Budget:     in.Budget,
		Source:     in.Source,
		Campaign:   in.Campaign,
		ExternalID: in.ExternalID,
		FormID:     in.FormID,
	}
}

// CreateLeadRequest is the body of the public submission endpoint
type CreateLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Service string `json:"service"`
	Budget  string `json:"budget"`
	Source  string `json:"source"`
}

// UpdateLeadRequest is a partial update applied by an operator
type UpdateLeadRequest struct {
	Status  *string `json:"status,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
}

// IsEmpty reports whether the update carries no field
func (r UpdateLeadRequest) IsEmpty() bool {
	return r.Status == nil && r.Notes == nil && r.Name == nil &&
		r.Email == nil && r.Phone == nil && r.Company == nil
}

// LeadFilter restricts listings. Empty or "all" values match everything.
type LeadFilter struct {
	Status string
	Source string
}

func normalizeFilterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// Normalized returns the filter with "all" values cleared
func (f LeadFilter) Normalized() LeadFilter {
	return LeadFilter{
		Status: normalizeFilterValue(f.Status),
		Source: normalizeFilterValue(f.Source),
	}
}

// Matches applies the filter as a conjunction of status and source
func (f LeadFilter) Matches(l *Lead) bool {
	n := f.Normalized()
	if n.Status != "" && string(l.Status) != n.Status {
		return false
	}
	if n.Source != "" && string(l.Source) != n.Source {
		return false
	}
	return true
}

// LeadListQuery describes a listing request
type LeadListQuery struct {
	Filter   LeadFilter
	All      bool
	Page     int
	PageSize int
}

// PaginationInfo describes the page returned by a listing
type PaginationInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// TotalPages returns ceil(total/pageSize)
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// LeadListResponse is the listing response
type LeadListResponse struct {
	Leads      []Lead         `json:"leads"`
	Pagination PaginationInfo `json:"pagination"`
}

// WebhookIngestResult summarizes one webhook call
type WebhookIngestResult struct {
	Kind       string   `json:"kind"`
	Received   int      `json:"received"`
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	LeadIDs    []string `json:"lead_ids,omitempty"`
}
