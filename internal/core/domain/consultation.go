package domain

import "time"

// Consultation is one tracked visit of a published application.
type Consultation struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"application_id"`
	VisitedAt       time.Time `json:"visited_at"`
	Country         string    `json:"country,omitempty"`
	Region          string    `json:"region,omitempty"`
	City            string    `json:"city,omitempty"`
	DeviceType      string    `json:"device_type,omitempty"`
	Browser         string    `json:"browser,omitempty"`
	OS              string    `json:"os,omitempty"`
	IsUnique        bool      `json:"is_unique"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IPAddress       string    `json:"ip_address,omitempty"`
	Source          string    `json:"source,omitempty"`
	URL             string    `json:"url,omitempty"`
	IsDeleted       bool      `json:"is_deleted"`
}

// MaxConsultations bounds the dataset loaded into a console.
const MaxConsultations = 500

// Application is a published application managed from the console.
type Application struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Owner       string    `json:"owner,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplicationDraftStatus is assigned to applications created without a status.
const ApplicationDraftStatus = "draft"
