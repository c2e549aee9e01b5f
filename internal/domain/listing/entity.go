package listing

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents listing moderation status
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// TimeSlotSeparator splits a time slot into context and session
const TimeSlotSeparator = "|"

// Listing represents a shared business space offered for rent
type Listing struct {
	ID          int64     `db:"id"`
	OwnerID     uuid.UUID `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Address     string    `db:"address"`
	Status      Status    `db:"status"`
	IsHidden    bool      `db:"is_hidden"`

	SpaceType      pq.StringArray `db:"space_type"`
	LocationType   string         `db:"location_type"`
	SuitableFor    pq.StringArray `db:"suitable_for"`
	NotSuitableFor pq.StringArray `db:"not_suitable_for"`
	Amenities      pq.StringArray `db:"amenities"`
	NearbyFeatures pq.StringArray `db:"nearby_features"`
	TimeSlots      pq.StringArray `db:"time_slots"`

	PriceMin int64 `db:"price_min"`
	PriceMax int64 `db:"price_max"`

	OldProvince string `db:"old_province"`
	OldDistrict string `db:"old_district"`
	NewProvince string `db:"new_province"`
	NewWard     string `db:"new_ward"`

	// Revealed only to the owner, admins and users who unlocked the listing
	ContactName  string `db:"contact_name"`
	ContactPhone string `db:"contact_phone"`
	ContactEmail string `db:"contact_email"`

	Images       pq.StringArray `db:"images"`
	RejectReason sql.NullString `db:"reject_reason"`
	ExpiresAt    sql.NullTime   `db:"expires_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsPubliclyVisible reports whether the listing may appear in search and public views
func (l *Listing) IsPubliclyVisible() bool {
	return !l.IsHidden && (l.Status == StatusApproved || l.Status == StatusExpired)
}

// IsOwnedBy checks ownership
func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}

// Sessions returns the session part of every time slot. Slots without a
// context prefix carry no session and are skipped.
func (l *Listing) Sessions() []string {
	out := make([]string, 0, len(l.TimeSlots))
	for _, slot := range l.TimeSlots {
		if i := strings.LastIndex(slot, TimeSlotSeparator); i >= 0 {
			out = append(out, slot[i+len(TimeSlotSeparator):])
		}
	}
	return out
}
