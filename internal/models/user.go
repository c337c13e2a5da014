package models

// User represents a passenger account in the ledger
type User struct {
	UserID        string   `json:"userID" db:"user_id"`
	Name          string   `json:"name" db:"name"`
	Email         string   `json:"email" db:"email"`
	BookingIDs    []string `json:"bookingIDs" db:"-"`
	TotalBookings int      `json:"totalBookings" db:"total_bookings"`
	TotalSpent    float64  `json:"totalSpent" db:"total_spent"`
}

// NewUser creates a user with empty booking aggregates
func NewUser(userID, name, email string) *User {
	return &User{
		UserID:     userID,
		Name:       name,
		Email:      email,
		BookingIDs: []string{},
	}
}

// RecordBooking appends a freshly created booking to the user's aggregates.
// TotalBookings counts creation events and is never decremented.
func (u *User) RecordBooking(bookingID string, totalPrice float64) {
	u.BookingIDs = append(u.BookingIDs, bookingID)
	u.TotalBookings++
	u.TotalSpent = RoundMoney(u.TotalSpent + totalPrice)
}

// RecordCancellation removes a cancelled booking's price from the running spend
func (u *User) RecordCancellation(totalPrice float64) {
	u.TotalSpent = RoundMoney(u.TotalSpent - totalPrice)
}

// OwnsBooking reports whether the booking ID is in the user's booking list
func (u *User) OwnsBooking(bookingID string) bool {
	for _, id := range u.BookingIDs {
		if id == bookingID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	c := *u
	c.BookingIDs = append([]string{}, u.BookingIDs...)
	return &c
}
