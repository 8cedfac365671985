package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Base model fields shared by registry models
type Base struct {
	UUID      string    `json:"uuid" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lorry represents a delivery vehicle, the unit of physical custody for
// serialized items in transit.
type Lorry struct {
	Base
	Code   string `json:"code" gorm:"column:code;uniqueIndex"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Driver represents a delivery driver known to the fleet.
type Driver struct {
	Base
	Code            string  `json:"code" gorm:"column:code;uniqueIndex"`
	Name            string  `json:"name"`
	Active          bool    `json:"active"`
	PriorityLorryID *string `json:"priority_lorry_id" gorm:"column:priority_lorry_id;type:uuid"`
}

// DriverSchedule marks a driver as scheduled to work on a calendar day.
type DriverSchedule struct {
	Base
	DriverID string    `json:"driver_id" gorm:"column:driver_id;type:uuid;uniqueIndex:udx_schedules_driver_date"`
	WorkDate time.Time `json:"work_date" gorm:"column:work_date;type:date;uniqueIndex:udx_schedules_driver_date"`
}

// Transaction is one immutable row of the lorry inventory ledger. Rows are
// never updated or deleted; corrections append a new row referencing the
// original through CorrectsID.
type Transaction struct {
	ID              uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	LorryID         string     `json:"lorry_id" gorm:"column:lorry_id;type:uuid;index:idx_tx_lorry_uid_time,priority:1"`
	Action          ActionType `json:"action" gorm:"column:action"`
	UID             string     `json:"uid" gorm:"column:uid;index:idx_tx_lorry_uid_time,priority:2;index:idx_tx_uid"`
	SkuID           *string    `json:"sku_id" gorm:"column:sku_id"`
	OrderID         *string    `json:"order_id" gorm:"column:order_id"`
	DriverID        *string    `json:"driver_id" gorm:"column:driver_id;type:uuid"`
	ActorID         string     `json:"actor_id" gorm:"column:actor_id"`
	Notes           string     `json:"notes"`
	CorrectsID      *uint      `json:"corrects_id" gorm:"column:corrects_id"`
	TransactionTime time.Time  `json:"transaction_time" gorm:"column:transaction_time;index:idx_tx_lorry_uid_time,priority:3,sort:desc"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AssignmentStatus defines the lifecycle state of a lorry assignment
type AssignmentStatus string

const (
	// AssignmentAssigned means the assignment exists but the driver has not clocked in
	AssignmentAssigned AssignmentStatus = "ASSIGNED"
	// AssignmentActive means the driver clocked in and the assignment is linked to a shift
	AssignmentActive AssignmentStatus = "ACTIVE"
	// AssignmentCompleted means the shift closed normally
	AssignmentCompleted AssignmentStatus = "COMPLETED"
	// AssignmentCancelled means the schedule changed before clock-in
	AssignmentCancelled AssignmentStatus = "CANCELLED"
)

// Open reports whether the assignment still reserves its lorry for the day.
func (s AssignmentStatus) Open() bool {
	return s == AssignmentAssigned || s == AssignmentActive
}

// LorryAssignment couples a driver to exactly one lorry for one calendar day.
type LorryAssignment struct {
	Base
	DriverID        string           `json:"driver_id" gorm:"column:driver_id;type:uuid"`
	LorryID         string           `json:"lorry_id" gorm:"column:lorry_id;type:uuid"`
	AssignmentDate  time.Time        `json:"assignment_date" gorm:"column:assignment_date;type:date"`
	Status          AssignmentStatus `json:"status"`
	StockVerified   bool             `json:"stock_verified" gorm:"column:stock_verified"`
	StockVerifiedAt *time.Time       `json:"stock_verified_at" gorm:"column:stock_verified_at"`
	ShiftID         *string          `json:"shift_id" gorm:"column:shift_id"`
	AssignedBy      string           `json:"assigned_by" gorm:"column:assigned_by"`
}

// VerificationStatus defines the outcome of a clock-in stock verification
type VerificationStatus string

const (
	// VerificationVerified means the scan matched the expected stock exactly
	VerificationVerified VerificationStatus = "VERIFIED"
	// VerificationVariance means the scan differed from the expected stock
	VerificationVariance VerificationStatus = "VARIANCE_DETECTED"
)

// UIDList stores a set of item UIDs as a jsonb column.
type UIDList []string

// Value implements driver.Valuer
func (l UIDList) Value() (driver.Value, error) {
	if l == nil {
		l = UIDList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *UIDList) Scan(value interface{}) error {
	if value == nil {
		*l = UIDList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported uid list column type %T", value)
	}
}

// StockVerification captures the result of comparing a driver's clock-in scan
// against the expected stock of the assigned lorry. Immutable once written.
type StockVerification struct {
	Base
	AssignmentID   string             `json:"assignment_id" gorm:"column:assignment_id;type:uuid;uniqueIndex"`
	LorryID        string             `json:"lorry_id" gorm:"column:lorry_id;type:uuid"`
	DriverID       string             `json:"driver_id" gorm:"column:driver_id;type:uuid"`
	ScannedUIDs    UIDList            `json:"scanned_uids" gorm:"column:scanned_uids;type:jsonb"`
	ExpectedUIDs   UIDList            `json:"expected_uids" gorm:"column:expected_uids;type:jsonb"`
	MissingUIDs    UIDList            `json:"missing_uids" gorm:"column:missing_uids;type:jsonb"`
	UnexpectedUIDs UIDList            `json:"unexpected_uids" gorm:"column:unexpected_uids;type:jsonb"`
	VarianceCount  int                `json:"variance_count" gorm:"column:variance_count"`
	Status         VerificationStatus `json:"status"`
	VerifiedAt     time.Time          `json:"verified_at" gorm:"column:verified_at"`
}

// HoldReason defines why a hold was placed on a driver
type HoldReason string

const (
	// HoldReasonScanner is placed on the driver whose scan showed a variance
	HoldReasonScanner HoldReason = "STOCK_VARIANCE_SCANNER"
	// HoldReasonLastAction is placed on the last custodian of the lorry
	HoldReasonLastAction HoldReason = "STOCK_VARIANCE_LAST_ACTION"
	// HoldReasonManual is placed directly by an admin
	HoldReasonManual HoldReason = "MANUAL"
)

// HoldStatus defines the lifecycle state of a driver hold
type HoldStatus string

const (
	// HoldActive blocks the driver from taking new orders
	HoldActive HoldStatus = "ACTIVE"
	// HoldResolved means an admin closed the hold
	HoldResolved HoldStatus = "RESOLVED"
)

// DriverHold is an administrative block preventing a driver from taking new
// orders pending investigation. A driver may carry several independent holds,
// one per incident.
type DriverHold struct {
	Base
	DriverID              string     `json:"driver_id" gorm:"column:driver_id;type:uuid;index"`
	Reason                HoldReason `json:"reason"`
	Description           string     `json:"description"`
	RelatedAssignmentID   *string    `json:"related_assignment_id" gorm:"column:related_assignment_id;type:uuid"`
	RelatedVerificationID *string    `json:"related_verification_id" gorm:"column:related_verification_id;type:uuid"`
	Status                HoldStatus `json:"status"`
	CreatedBy             string     `json:"created_by" gorm:"column:created_by"`
	ResolvedBy            *string    `json:"resolved_by" gorm:"column:resolved_by"`
	ResolvedAt            *time.Time `json:"resolved_at" gorm:"column:resolved_at"`
	ResolutionNotes       *string    `json:"resolution_notes" gorm:"column:resolution_notes"`
}
