package dto

// InvoiceEntity holds the fields extracted from a single invoice.
// Amounts keep the "1234.56" string form the extraction prompt asks
// for; after currency conversion TotalAmount is the EUR amount and
// Currency is "EUR".
type InvoiceEntity struct {
	InvoiceType string `json:"invoice_type"`
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency"`
	IssueDate   string `json:"issue_date"`
	Description string `json:"description"`

	// Hotel invoices only.
	GuestName    string `json:"guest_name,omitempty"`
	CheckinDate  string `json:"checkin_date,omitempty"`
	CheckoutDate string `json:"checkout_date,omitempty"`
}

// Classification is the invoice type decision returned by the
// classifier, including per-type probabilities and the model's
// reasoning.
type Classification struct {
	InvoiceType string             `json:"invoice_type"`
	ClassProbs  map[string]float64 `json:"class_probs"`
	Reasoning   string             `json:"reasoning"`
}

// ConversionResult is the outcome of converting an invoice amount to
// EUR. RateDate is "Not Applicable" for amounts already in EUR.
type ConversionResult struct {
	EURAmount float64 `json:"eur_amount"`
	RateDate  string  `json:"rate_date"`
}

// TripMetadata feeds the header cells of the expense workbook.
type TripMetadata struct {
	TravelerName    string `json:"traveler_name"`
	Location        string `json:"location"`
	Destination     string `json:"destination"`
	CostCenter      string `json:"cost_center"`
	ReasonForTravel string `json:"reason_for_travel"`
}

// ApplyDefaults fills empty metadata fields with placeholders so the
// workbook header is never blank.
func (m *TripMetadata) ApplyDefaults() {
	if m.TravelerName == "" {
		m.TravelerName = "Lastname, Firstname"
	}
	if m.Location == "" {
		m.Location = "Munich"
	}
	if m.Destination == "" {
		m.Destination = "Barcelona"
	}
	if m.CostCenter == "" {
		m.CostCenter = "000000"
	}
	if m.ReasonForTravel == "" {
		m.ReasonForTravel = "Business trip"
	}
}

// ProcessedDocument is a document converted to markdown-ish text.
type ProcessedDocument struct {
	Filename string `json:"filename"`
	Markdown string `json:"markdown"`
	Pages    int    `json:"pages"`
	Method   string `json:"method"` // "docling", "text-layer" or "ocr"
}
