package api

import (
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

// GenerateRequest is the body of the download, preview and job endpoints.
// Year/Month select month and year periods; StartDate/EndDate a custom one.
type GenerateRequest struct {
	Kind          string   `json:"kind,omitempty"` // jobs only
	Year          int      `json:"year,omitempty"`
	Month         int      `json:"month,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	BatchesPerDay *int     `json:"batches_per_day,omitempty"`
	DataTypes     []string `json:"data_types,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

// DataTypeInfo is one entry of GET /api/generate/data-types
type DataTypeInfo struct {
	Name               string `json:"name"`
	DisplayName        string `json:"display_name"`
	Description        string `json:"description"`
	ApproximateColumns int    `json:"approximate_columns"`
}

func dataTypeInfo(info core.DataTypeInfo) DataTypeInfo {
	return DataTypeInfo{
		Name:               string(info.ID),
		DisplayName:        info.Name,
		Description:        info.Description,
		ApproximateColumns: info.Columns,
	}
}

// ScenariosResponse is returned by GET /api/generate/scenarios
type ScenariosResponse struct {
	TotalScenarios int             `json:"total_scenarios"`
	Scenarios      []scenario.Info `json:"scenarios"`
	Note           string          `json:"note"`
}

// PreviewResponse is returned by POST /api/generate/month/preview
type PreviewResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	FilesGenerated []string       `json:"files_generated"`
	TotalRecords   map[string]int `json:"total_records"`
	PeriodStart    string         `json:"period_start"`
	PeriodEnd      string         `json:"period_end"`
}

// ConfigResponse is returned by GET and POST /api/config
type ConfigResponse struct {
	Seed          int64   `json:"seed"`
	BatchesPerDay int     `json:"batchesPerDay"`
	ComplaintRate float64 `json:"complaintRate"`
	CAPABaseCount int     `json:"capaBaseCount"`
}

// ConfigUpdateRequest is the body of POST /api/config
type ConfigUpdateRequest struct {
	Seed          *int64   `json:"seed,omitempty"`
	BatchesPerDay *int     `json:"batchesPerDay,omitempty"`
	ComplaintRate *float64 `json:"complaintRate,omitempty"`
	CAPABaseCount *int     `json:"capaBaseCount,omitempty"`
}

// ArchiveURLResponse is returned by GET /api/jobs/{id}/archive/url
type ArchiveURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresInSeconds"`
}
