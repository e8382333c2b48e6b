package domain

import "fmt"

// SessionShape is implemented by cookie session payloads so the codec can
// validate structure after JSON decoding. Validate returns the reason a
// payload is unusable; callers log the reason server-side and otherwise treat
// the session as absent.
type SessionShape interface {
	Validate() error
}

// CustomerSession is the customer session cookie payload. It is immutable
// once issued; a new login issues a new session rather than patching the old
// one. A session is all-or-nothing: any missing field invalidates the whole
// payload.
type CustomerSession struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (s *CustomerSession) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("customer session missing id")
	case s.FirstName == "":
		return fmt.Errorf("customer session missing firstName")
	case s.LastName == "":
		return fmt.Errorf("customer session missing lastName")
	case s.Phone == "":
		return fmt.Errorf("customer session missing phone")
	case s.Email == "":
		return fmt.Errorf("customer session missing email")
	}
	return nil
}

// PreLoginIntent marks the tenant a customer was browsing before being handed
// off to the identity provider. Written just before the redirect, consumed
// exactly once on return.
type PreLoginIntent struct {
	StoreID string `json:"storeId"`
}

func (p *PreLoginIntent) Validate() error {
	if p.StoreID == "" {
		return fmt.Errorf("pre-login intent missing storeId")
	}
	return nil
}

// TenantContext is the post-handoff shape of the LINE session cookie. Client
// bootstrap resolves the tenant from it before any profile fetch.
type TenantContext struct {
	SalonID string `json:"salonId"`
}

func (t *TenantContext) Validate() error {
	if t.SalonID == "" {
		return fmt.Errorf("tenant context missing salonId")
	}
	return nil
}
