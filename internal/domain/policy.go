package domain

// Policy holds the product decisions that are still open.
type Policy struct {
	// AcceptPartialDonations lets a partially fulfilled request keep
	// receiving donations. When false, only pending requests accept them.
	AcceptPartialDonations bool
	// LockDonatedRequests blocks edit and delete once a request has donations.
	LockDonatedRequests bool
}

func DefaultPolicy() Policy {
	return Policy{
		AcceptPartialDonations: false,
		LockDonatedRequests:    true,
	}
}
