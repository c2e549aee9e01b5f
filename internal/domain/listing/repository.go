package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

const listingColumns = `
	id, owner_id, title, description, address, status, is_hidden,
	space_type, location_type, suitable_for, not_suitable_for, amenities, nearby_features, time_slots,
	price_min, price_max, old_province, old_district, new_province, new_ward,
	contact_name, contact_phone, contact_email, images, reject_reason, expires_at, created_at, updated_at`

// CandidateQuery narrows the rows loaded for search. Every condition here is
// re-checked in memory, so it may be looser than the final filter.
type CandidateQuery struct {
	// GeoSystem is "old" or "new"
	GeoSystem      string
	Province       string
	Districts      []string
	Wards          []string
	SpaceTypes     []string
	LocationTypes  []string
	NotSuitableFor []string
	Amenities      []string
	NearbyFeatures []string
	PriceMin       *int64
	PriceMax       *int64
}

// Repository defines listing data access interface
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	UpdateStatus(ctx context.Context, id int64, status Status, rejectReason *string, expiresAt *time.Time) error
	SetHidden(ctx context.Context, id int64, hidden bool) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Listing, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Listing, int, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Listing, error)
	AppendImage(ctx context.Context, id int64, url string, maxImages int) error
	SearchCandidates(ctx context.Context, q CandidateQuery) ([]*Listing, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates listing repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, l *Listing) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO listings (
			owner_id, title, description, address, status,
			space_type, location_type, suitable_for, not_suitable_for, amenities, nearby_features, time_slots,
			price_min, price_max, old_province, old_district, new_province, new_ward,
			contact_name, contact_phone, contact_email
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21
		)
		RETURNING id, images, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		l.OwnerID, l.Title, l.Description, l.Address, l.Status,
		pq.Array(l.SpaceType), l.LocationType, pq.Array(l.SuitableFor), pq.Array(l.NotSuitableFor),
		pq.Array(l.Amenities), pq.Array(l.NearbyFeatures), pq.Array(l.TimeSlots),
		l.PriceMin, l.PriceMax, l.OldProvince, l.OldDistrict, l.NewProvince, l.NewWard,
		l.ContactName, l.ContactPhone, l.ContactEmail,
	).Scan(&l.ID, &l.Images, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("listing repository create: %w", err)
	}
	return nil
}

// GetByID returns listing by ID, nil when missing
func (r *repository) GetByID(ctx context.Context, id int64) (*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Listing
	err := r.db.GetContext(ctx, &l, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE listings SET
			title = $2, description = $3, address = $4, status = $5,
			space_type = $6, location_type = $7, suitable_for = $8, not_suitable_for = $9,
			amenities = $10, nearby_features = $11, time_slots = $12,
			price_min = $13, price_max = $14,
			old_province = $15, old_district = $16, new_province = $17, new_ward = $18,
			contact_name = $19, contact_phone = $20, contact_email = $21,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		l.ID, l.Title, l.Description, l.Address, l.Status,
		pq.Array(l.SpaceType), l.LocationType, pq.Array(l.SuitableFor), pq.Array(l.NotSuitableFor),
		pq.Array(l.Amenities), pq.Array(l.NearbyFeatures), pq.Array(l.TimeSlots),
		l.PriceMin, l.PriceMax, l.OldProvince, l.OldDistrict, l.NewProvince, l.NewWard,
		l.ContactName, l.ContactPhone, l.ContactEmail,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	return err
}

// UpdateStatus changes moderation status. A nil expiresAt keeps the current value.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, rejectReason *string, expiresAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE listings
		SET status = $2, reject_reason = $3, expires_at = COALESCE($4, expires_at), updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status, rejectReason, expiresAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *repository) SetHidden(ctx context.Context, id int64, hidden bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET is_hidden = $2, updated_at = NOW() WHERE id = $1`, id, hidden)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var items []*Listing
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY id DESC`, ownerID)
	return items, err
}

func (r *repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Listing, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM listings WHERE status = $1`, status); err != nil {
		return nil, 0, err
	}

	var items []*Listing
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+listingColumns+` FROM listings
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []int64) ([]*Listing, error) {
	if len(ids) == 0 {
		return []*Listing{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var items []*Listing
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+listingColumns+` FROM listings WHERE id = ANY($1) ORDER BY id DESC`, pq.Array(ids))
	return items, err
}

// AppendImage adds an image URL unless the listing already holds maxImages
func (r *repository) AppendImage(ctx context.Context, id int64, url string, maxImages int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE listings
		SET images = array_append(images, $2), updated_at = NOW()
		WHERE id = $1 AND cardinality(images) < $3`, id, url, maxImages)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTooManyImages
	}
	return nil
}

// SearchCandidates loads publicly visible listings in the requested province
// with the cheap array and range conditions pushed into SQL.
func (r *repository) SearchCandidates(ctx context.Context, q CandidateQuery) ([]*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := []string{`status IN ('approved', 'expired')`, `is_hidden = FALSE`}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.GeoSystem == "new" {
		where = append(where, "new_province = "+arg(q.Province))
		where = append(where, "new_ward = ANY("+arg(pq.Array(q.Wards))+")")
	} else {
		where = append(where, "old_province = "+arg(q.Province))
		if len(q.Districts) > 0 {
			where = append(where, "old_district = ANY("+arg(pq.Array(q.Districts))+")")
		}
	}
	if len(q.SpaceTypes) > 0 {
		where = append(where, "space_type && "+arg(pq.Array(q.SpaceTypes)))
	}
	if len(q.LocationTypes) > 0 {
		where = append(where, "location_type = ANY("+arg(pq.Array(q.LocationTypes))+")")
	}
	if len(q.NotSuitableFor) > 0 {
		where = append(where, "NOT (not_suitable_for && "+arg(pq.Array(q.NotSuitableFor))+")")
	}
	if len(q.Amenities) > 0 {
		where = append(where, "amenities && "+arg(pq.Array(q.Amenities)))
	}
	if len(q.NearbyFeatures) > 0 {
		where = append(where, "nearby_features && "+arg(pq.Array(q.NearbyFeatures)))
	}
	if q.PriceMin != nil {
		where = append(where, "price_max >= "+arg(*q.PriceMin))
	}
	if q.PriceMax != nil {
		where = append(where, "price_min <= "+arg(*q.PriceMax))
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`

	var items []*Listing
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("listing repository search candidates: %w", err)
	}
	return items, nil
}

// ExpireDue moves approved listings whose expires_at has passed to expired
func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = 'expired', updated_at = NOW()
		WHERE status = 'approved' AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
