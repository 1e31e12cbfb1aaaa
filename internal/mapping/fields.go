// Package mapping classifies unlabeled spreadsheet columns against the
// canonical import field vocabulary. Classification is a pure function of
// the header text and a fixed window of sample values, so repeated runs on
// the same input always produce the same result.
package mapping

// FieldTag identifies a canonical business field a column can map to.
// The vocabulary is closed: columns that match nothing are ignored.
type FieldTag string

const (
	FieldEmail       FieldTag = "email"
	FieldFirstName   FieldTag = "first_name"
	FieldLastName    FieldTag = "last_name"
	FieldFullName    FieldTag = "full_name"
	FieldPhone       FieldTag = "phone"
	FieldCity        FieldTag = "city"
	FieldCountry     FieldTag = "country"
	FieldOrderID     FieldTag = "order_id"
	FieldOrderDate   FieldTag = "order_date"
	FieldAmount      FieldTag = "amount"
	FieldCurrency    FieldTag = "currency"
	FieldProductName FieldTag = "product_name"
	FieldStatus      FieldTag = "status"
	FieldQuantity    FieldTag = "quantity"
)

// AllFields lists every tag in scoring order. Iteration must never go
// through a map: tag order is part of the determinism contract.
var AllFields = []FieldTag{
	FieldEmail,
	FieldFullName,
	FieldFirstName,
	FieldLastName,
	FieldPhone,
	FieldCity,
	FieldCountry,
	FieldOrderID,
	FieldOrderDate,
	FieldAmount,
	FieldCurrency,
	FieldProductName,
	FieldStatus,
	FieldQuantity,
}

// IsValid reports whether s names a known field tag.
func IsValid(s string) bool {
	for _, f := range AllFields {
		if string(f) == s {
			return true
		}
	}
	return false
}

// fieldAliases maps each tag to the header spellings seen in the wild.
// Aliases are matched after header normalization (lowercase, punctuation
// folded to spaces), so "E-Mail" and "e_mail" both hit "e mail".
var fieldAliases = map[FieldTag][]string{
	FieldEmail: {
		"email", "e mail", "email address", "buyer email", "customer email",
		"mail", "emailaddress",
	},
	FieldFullName: {
		"name", "customer name", "buyer name", "full name", "fullname",
		"recipient", "contact name",
	},
	FieldFirstName: {
		"first name", "firstname", "given name", "fname", "first",
	},
	FieldLastName: {
		"last name", "lastname", "surname", "family name", "lname", "last",
	},
	FieldPhone: {
		"phone", "mobile", "telephone", "tel", "cell", "phone number",
		"mobile number", "contact number",
	},
	FieldCity: {
		"city", "town", "district", "area", "region", "zone", "thana", "upazila",
	},
	FieldCountry: {
		"country", "nation", "country name", "country code",
	},
	FieldOrderID: {
		"order id", "order number", "order no", "order", "invoice",
		"invoice number", "transaction id", "reference", "ref",
	},
	FieldOrderDate: {
		"date", "order date", "purchase date", "created at", "placed at",
		"order placed", "created date", "transaction date",
	},
	FieldAmount: {
		"amount", "total", "price", "order total", "grand total", "revenue",
		"gmv", "payment", "subtotal", "net amount", "total price",
		"order amount", "sale amount", "order value", "amt",
	},
	FieldCurrency: {
		"currency", "curr", "currency code",
	},
	FieldProductName: {
		"product", "item", "sku", "product name", "item name", "description",
		"goods", "product title",
	},
	FieldStatus: {
		"status", "order status", "payment status", "fulfillment status",
	},
	FieldQuantity: {
		"quantity", "qty", "count", "units", "pieces",
	},
}

// contentDriven marks tags whose values carry a recognizable shape on
// their own. These tags can be detected from content alone, which is what
// keeps mislabeled or headerless sheets importable.
var contentDriven = map[FieldTag]bool{
	FieldEmail:     true,
	FieldPhone:     true,
	FieldOrderDate: true,
	FieldAmount:    true,
	FieldCurrency:  true,
	FieldQuantity:  true,
}
