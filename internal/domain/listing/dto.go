package listing

import (
	"time"

	"github.com/google/uuid"
)

// CreateListingRequest represents listing creation payload
type CreateListingRequest struct {
	Title          string   `json:"title" validate:"required,min=5,max=200"`
	Description    string   `json:"description" validate:"max=5000"`
	Address        string   `json:"address" validate:"required,max=500"`
	SpaceType      []string `json:"space_type" validate:"required,min=1,dive,required,max=100"`
	LocationType   string   `json:"location_type" validate:"max=100"`
	SuitableFor    []string `json:"suitable_for" validate:"dive,required,max=100"`
	NotSuitableFor []string `json:"not_suitable_for" validate:"dive,required,max=100"`
	Amenities      []string `json:"amenities" validate:"dive,required,max=100"`
	NearbyFeatures []string `json:"nearby_features" validate:"dive,required,max=100"`
	TimeSlots      []string `json:"time_slots" validate:"dive,required,max=100,time_slot"`
	PriceMin       int64    `json:"price_min" validate:"gte=0"`
	PriceMax       int64    `json:"price_max" validate:"gte=0"`
	OldProvince    string   `json:"old_province" validate:"required_without=NewProvince,max=100"`
	OldDistrict    string   `json:"old_district" validate:"max=100"`
	NewProvince    string   `json:"new_province" validate:"required_without=OldProvince,max=100"`
	NewWard        string   `json:"new_ward" validate:"max=100"`
	ContactName    string   `json:"contact_name" validate:"required,max=200"`
	ContactPhone   string   `json:"contact_phone" validate:"required,max=30"`
	ContactEmail   string   `json:"contact_email" validate:"omitempty,email"`
	Submit         bool     `json:"submit"`
}

// UpdateListingRequest represents listing update payload. Nil fields are left unchanged.
type UpdateListingRequest struct {
	Title          *string  `json:"title" validate:"omitempty,min=5,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=5000"`
	Address        *string  `json:"address" validate:"omitempty,max=500"`
	SpaceType      []string `json:"space_type" validate:"omitempty,dive,required,max=100"`
	LocationType   *string  `json:"location_type" validate:"omitempty,max=100"`
	SuitableFor    []string `json:"suitable_for" validate:"omitempty,dive,required,max=100"`
	NotSuitableFor []string `json:"not_suitable_for" validate:"omitempty,dive,required,max=100"`
	Amenities      []string `json:"amenities" validate:"omitempty,dive,required,max=100"`
	NearbyFeatures []string `json:"nearby_features" validate:"omitempty,dive,required,max=100"`
	TimeSlots      []string `json:"time_slots" validate:"omitempty,dive,required,max=100,time_slot"`
	PriceMin       *int64   `json:"price_min" validate:"omitempty,gte=0"`
	PriceMax       *int64   `json:"price_max" validate:"omitempty,gte=0"`
	OldProvince    *string  `json:"old_province" validate:"omitempty,max=100"`
	OldDistrict    *string  `json:"old_district" validate:"omitempty,max=100"`
	NewProvince    *string  `json:"new_province" validate:"omitempty,max=100"`
	NewWard        *string  `json:"new_ward" validate:"omitempty,max=100"`
	ContactName    *string  `json:"contact_name" validate:"omitempty,max=200"`
	ContactPhone   *string  `json:"contact_phone" validate:"omitempty,max=30"`
	ContactEmail   *string  `json:"contact_email" validate:"omitempty,email"`
}

// Contact holds the contact details revealed by an unlock
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// ListingResponse represents listing in API response
type ListingResponse struct {
	ID             int64      `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Address        string     `json:"address"`
	Status         string     `json:"status"`
	IsHidden       bool       `json:"is_hidden,omitempty"`
	SpaceType      []string   `json:"space_type"`
	LocationType   string     `json:"location_type,omitempty"`
	SuitableFor    []string   `json:"suitable_for"`
	NotSuitableFor []string   `json:"not_suitable_for"`
	Amenities      []string   `json:"amenities"`
	NearbyFeatures []string   `json:"nearby_features"`
	TimeSlots      []string   `json:"time_slots"`
	PriceMin       int64      `json:"price_min"`
	PriceMax       int64      `json:"price_max"`
	OldProvince    string     `json:"old_province,omitempty"`
	OldDistrict    string     `json:"old_district,omitempty"`
	NewProvince    string     `json:"new_province,omitempty"`
	NewWard        string     `json:"new_ward,omitempty"`
	Images         []string   `json:"images"`
	RejectReason   string     `json:"reject_reason,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Unlocked bool     `json:"unlocked"`
	Contact  *Contact `json:"contact,omitempty"`
}

// CardFromEntity converts a listing to its public card. Contacts are never included.
func CardFromEntity(l *Listing) *ListingResponse {
	resp := &ListingResponse{
		ID:             l.ID,
		OwnerID:        l.OwnerID,
		Title:          l.Title,
		Description:    l.Description,
		Address:        l.Address,
		Status:         string(l.Status),
		IsHidden:       l.IsHidden,
		SpaceType:      nonNil(l.SpaceType),
		LocationType:   l.LocationType,
		SuitableFor:    nonNil(l.SuitableFor),
		NotSuitableFor: nonNil(l.NotSuitableFor),
		Amenities:      nonNil(l.Amenities),
		NearbyFeatures: nonNil(l.NearbyFeatures),
		TimeSlots:      nonNil(l.TimeSlots),
		PriceMin:       l.PriceMin,
		PriceMax:       l.PriceMax,
		OldProvince:    l.OldProvince,
		OldDistrict:    l.OldDistrict,
		NewProvince:    l.NewProvince,
		NewWard:        l.NewWard,
		Images:         nonNil(l.Images),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	if l.RejectReason.Valid {
		resp.RejectReason = l.RejectReason.String
	}
	if l.ExpiresAt.Valid {
		t := l.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	return resp
}

// ResponseFromEntity converts a listing and reveals contacts when allowed
func ResponseFromEntity(l *Listing, revealContact bool) *ListingResponse {
	resp := CardFromEntity(l)
	if revealContact {
		resp.Unlocked = true
		resp.Contact = ContactFromEntity(l)
	}
	return resp
}

// ContactFromEntity extracts contact details
func ContactFromEntity(l *Listing) *Contact {
	return &Contact{Name: l.ContactName, Phone: l.ContactPhone, Email: l.ContactEmail}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
