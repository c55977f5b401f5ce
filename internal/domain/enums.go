package domain

type Unit string

const (
	UnitKg       Unit = "kg"
	UnitLbs      Unit = "lbs"
	UnitPieces   Unit = "pieces"
	UnitServings Unit = "servings"
	UnitBoxes    Unit = "boxes"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitLbs, UnitPieces, UnitServings, UnitBoxes:
		return true
	}
	return false
}

func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.Valid() {
		return "", Errorf(KindInvalidArgument, "unknown unit %q", s)
	}
	return u, nil
}

type Category string

const (
	CategoryProduce  Category = "produce"
	CategoryDairy    Category = "dairy"
	CategoryBakery   Category = "bakery"
	CategoryMeat     Category = "meat"
	CategoryPrepared Category = "prepared"
	CategoryPantry   Category = "pantry"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryProduce, CategoryDairy, CategoryBakery, CategoryMeat,
		CategoryPrepared, CategoryPantry, CategoryOther:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", Errorf(KindInvalidArgument, "unknown category %q", s)
	}
	return c, nil
}

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingClaimed   ListingStatus = "claimed"
	ListingPickedUp  ListingStatus = "picked-up"
	ListingDelivered ListingStatus = "delivered"
	ListingExpired   ListingStatus = "expired"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingClaimed, ListingPickedUp, ListingDelivered, ListingExpired:
		return true
	}
	return false
}

func ParseListingStatus(s string) (ListingStatus, error) {
	st := ListingStatus(s)
	if !st.Valid() {
		return "", Errorf(KindInvalidArgument, "unknown listing status %q", s)
	}
	return st, nil
}

type RequestStatus string

const (
	RequestPending            RequestStatus = "pending"
	RequestPartiallyFulfilled RequestStatus = "partially_fulfilled"
	RequestFulfilled          RequestStatus = "fulfilled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestPartiallyFulfilled, RequestFulfilled:
		return true
	}
	return false
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if !st.Valid() {
		return "", Errorf(KindInvalidArgument, "unknown request status %q", s)
	}
	return st, nil
}

type Role string

const (
	RoleDonor     Role = "donor"
	RoleCharity   Role = "charity"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleCharity, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", Errorf(KindInvalidArgument, "unknown role %q", s)
	}
	return r, nil
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor drives time-based transitions such as expiry.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}
