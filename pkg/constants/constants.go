// Package constants provides shared constants used throughout the featuresync codebase.
// This includes timeouts, file permissions, default dataset names and the field
// names of the business development project schema.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// SyncTimeout bounds a run when no timeout is configured
	SyncTimeout = 30 * time.Minute

	// BusyTimeoutMillis is the SQLite busy timeout applied to every connection
	BusyTimeoutMillis = 5000
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Spatial reference constants
const (
	// WKIDWGS84 is the well-known ID of the geographic WGS 1984 coordinate system
	WKIDWGS84 = 4326

	// MaxLatitude is the largest valid absolute latitude in degrees
	MaxLatitude = 90.0

	// MaxLongitude is the largest valid absolute longitude in degrees
	MaxLongitude = 180.0

	// EarthRadiusMeters is the mean earth radius used for haversine distances
	EarthRadiusMeters = 6371000.0
)

// Default dataset locations. These mirror the names of the export job that
// produces the CSV and the published feature class it feeds.
const (
	// DefaultSourceFile is the exported CSV read on every run
	DefaultSourceFile = "UpdateSEBusinessDevFC.csv"

	// DefaultWorkspace is the scratch database that receives the staging table
	DefaultWorkspace = "sqlite://UpdateSEBusinessDevFC.db"

	// DefaultStagingLayer is the point layer built from the staging table
	DefaultStagingLayer = "Update_BusinessDev_Layer"

	// DefaultTarget is the authoritative dataset
	DefaultTarget = "sqlite://SoutheastBusinessDevelopment.db"

	// DefaultTargetLayer is the authoritative feature layer
	DefaultTargetLayer = "Southeast_BusinessDevelopment_Projects"

	// DefaultEditor is recorded in CREATED_USER/MODIFIED_BY when no user is configured
	DefaultEditor = "featuresync"
)

// Field names of the project schema.
const (
	FieldProjectName     = "PROJECT_NAME"
	FieldChannel         = "Channel"
	FieldBusinessUnit    = "Business_Unit"
	FieldRep             = "Rep"
	FieldSalesforceOppID = "Salesforce_Opp_ID"
	FieldLatitude        = "Latitude"
	FieldLongitude       = "Longitude"
	FieldStreetAddress   = "Street_Address"
	FieldCity            = "City"
	FieldState           = "State"
	FieldZipCode         = "Zip_Code"
	FieldStatus          = "Status"
	FieldLotCount        = "Lot_Count"
	FieldNote            = "Note"
)

// System-managed field names. These never take part in comparison.
const (
	FieldGlobalID     = "GlobalID"
	FieldCreatedUser  = "CREATED_USER"
	FieldCreatedDate  = "CREATED_DATE"
	FieldModifiedBy   = "MODIFIED_BY"
	FieldModifiedDate = "MODIFIED_DATE"
	FieldObjectID     = "OBJECTID"
	FieldShape        = "Shape"
)
