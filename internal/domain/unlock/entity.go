package unlock

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Unlock records that a user paid to see a listing's contact details
type Unlock struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	ListingID  int64     `db:"listing_id"`
	CoinsSpent int64     `db:"coins_spent"`
	CreatedAt  time.Time `db:"created_at"`
}

// Reference is the ledger reference written for the unlock debit
func Reference(listingID int64, userID uuid.UUID) string {
	return "unlock:" + strconv.FormatInt(listingID, 10) + ":" + userID.String()
}
