package domain

// DeliveryMethod selects how the order reaches the customer.
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home"
	DeliveryPickup DeliveryMethod = "pickup"
)

// ShippingForm holds the first checkout step. Region is derived from the
// postal code, never entered directly.
type ShippingForm struct {
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	FullName       string         `json:"full_name"`
	Address        string         `json:"address"`
	Unit           string         `json:"unit"`
	PostalCode     string         `json:"postal_code"`
	Region         string         `json:"region"`
	Phone          string         `json:"phone"`
	AcceptPrivacy  bool           `json:"accept_privacy"`
}

// PaymentForm holds the second checkout step. Card data is validated, never
// charged from here.
type PaymentForm struct {
	CardNumber    string `json:"card_number"`
	Expiry        string `json:"expiry"`
	CVV           string `json:"cvv"`
	HolderName    string `json:"holder_name"`
	NeedInvoice   bool   `json:"need_invoice"`
	AcceptPrivacy bool   `json:"accept_privacy"`
}

// ValidationErrors maps a form field to its message. Each submit attempt
// replaces the whole map for that form.
type ValidationErrors map[string]string
