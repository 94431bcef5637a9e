package billing

// Action is a closed set of front-desk operations that change money or
// settlement state. The unexported method keeps the set closed so a type
// switch over it can be checked for completeness in one place
// (frontdesk.Service.Dispatch).
type Action interface {
	Kind() string
	action()
}

// CheckoutAction finalizes a stay.
type CheckoutAction struct {
	ReservationID ReservationID
	Request       CheckoutRequest
}

// EditReservationAction replaces a reservation through the status gate.
type EditReservationAction struct {
	Reservation Reservation
}

// RecordCompanyPaymentAction registers a new company payment.
type RecordCompanyPaymentAction struct {
	Payment CompanyPayment
}

// EditCompanyPaymentAction replaces an existing company payment.
type EditCompanyPaymentAction struct {
	Payment CompanyPayment
}

// RemoveCompanyPaymentAction deletes a company payment.
type RemoveCompanyPaymentAction struct {
	PaymentID CompanyPaymentID
}

func (CheckoutAction) Kind() string             { return "checkout" }
func (EditReservationAction) Kind() string      { return "edit_reservation" }
func (RecordCompanyPaymentAction) Kind() string { return "record_company_payment" }
func (EditCompanyPaymentAction) Kind() string   { return "edit_company_payment" }
func (RemoveCompanyPaymentAction) Kind() string { return "remove_company_payment" }

func (CheckoutAction) action()             {}
func (EditReservationAction) action()      {}
func (RecordCompanyPaymentAction) action() {}
func (EditCompanyPaymentAction) action()   {}
func (RemoveCompanyPaymentAction) action() {}
