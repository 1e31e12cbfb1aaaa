package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/growmetrics/sheetimport/internal/mapping"
	"github.com/growmetrics/sheetimport/internal/normalize"
)

// Defaults applied when the sheet carries no value for a field.
const (
	DefaultProductName = "Order"
	DefaultStatus      = "completed"
	DefaultQuantity    = 1
)

// orderKeyNamespace seeds the deterministic synthetic order key. Fixed
// forever: changing it would re-key every synthetic order and break
// idempotent re-imports.
var orderKeyNamespace = uuid.MustParse("8f2b5a34-94c1-4e0b-9d7e-3a6f1c28d5e9")

// SyntheticOrderKey derives a stable order identity for rows without an
// explicit order id. Rows with the same (org, email, date, amount) are
// the same order.
func SyntheticOrderKey(orgID, email string, orderDate time.Time, amount decimal.Decimal) string {
	dateStr := ""
	if !orderDate.IsZero() {
		dateStr = orderDate.Format("2006-01-02")
	}
	name := orgID + "|" + email + "|" + dateStr + "|" + amount.String()
	return uuid.NewSHA1(orderKeyNamespace, []byte(name)).String()
}

// Mapper slices classified rows into entity candidates.
type Mapper struct {
	DefaultCurrency string
}

// MapOutcome is the mapper's output for one sheet: candidate pairs in
// original row order, the rows excluded with reasons, and a tally of
// non-identity cells that failed normalization.
type MapOutcome struct {
	Pairs        []RowCandidates
	Skips        []Skip
	CellFailures int
}

// MapRows assembles Customer and Order candidates from every data row,
// using the detected column→field assignment. A row must yield a valid
// email to produce anything; a corrupt order identity skips the whole
// row. Non-identity cell failures leave the field absent and are tallied.
func (m *Mapper) MapRows(orgID string, result *mapping.MappingResult, rows [][]string) *MapOutcome {
	out := &MapOutcome{}

	idx := result.Detections()
	cell := func(row []string, tag mapping.FieldTag) (string, bool) {
		i, ok := idx[tag]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	_, hasEmailCol := idx[mapping.FieldEmail]
	hasOrderCols := false
	for _, tag := range []mapping.FieldTag{mapping.FieldOrderID, mapping.FieldOrderDate, mapping.FieldAmount} {
		if _, ok := idx[tag]; ok {
			hasOrderCols = true
			break
		}
	}

	for n, row := range rows {
		rowNum := n + 1

		if !hasEmailCol {
			out.Skips = append(out.Skips, Skip{Row: rowNum, Reason: "no email column detected"})
			continue
		}

		raw, _ := cell(row, mapping.FieldEmail)
		if strings.TrimSpace(raw) == "" {
			out.Skips = append(out.Skips, Skip{Row: rowNum, Reason: "missing email"})
			continue
		}
		email, err := normalize.Email(raw)
		if err != nil {
			out.Skips = append(out.Skips, Skip{Row: rowNum, Reason: err.Error()})
			continue
		}

		customer := m.mapCustomer(email, row, cell, out)

		var order *OrderCandidate
		if hasOrderCols {
			order, err = m.mapOrder(orgID, email, row, cell, out)
			if err != nil {
				out.Skips = append(out.Skips, Skip{Row: rowNum, Reason: err.Error()})
				continue
			}
		}

		out.Pairs = append(out.Pairs, RowCandidates{Row: rowNum, Customer: customer, Order: order})
	}

	return out
}

type cellFn func(row []string, tag mapping.FieldTag) (string, bool)

func (m *Mapper) mapCustomer(email string, row []string, cell cellFn, out *MapOutcome) *CustomerCandidate {
	c := &CustomerCandidate{Email: email}

	if v, ok := cell(row, mapping.FieldFirstName); ok {
		c.FirstName = strings.TrimSpace(v)
	}
	if v, ok := cell(row, mapping.FieldLastName); ok {
		c.LastName = strings.TrimSpace(v)
	}
	if c.FirstName == "" && c.LastName == "" {
		if v, ok := cell(row, mapping.FieldFullName); ok {
			c.FirstName, c.LastName = normalize.SplitFullName(v)
		}
	}

	if v, ok := cell(row, mapping.FieldPhone); ok && strings.TrimSpace(v) != "" {
		phone, err := normalize.Phone(v)
		if err != nil {
			out.CellFailures++
		} else {
			c.Phone = phone
		}
	}
	if v, ok := cell(row, mapping.FieldCity); ok {
		c.City = strings.TrimSpace(v)
	}
	if v, ok := cell(row, mapping.FieldCountry); ok {
		c.Country = strings.TrimSpace(v)
	}

	return c
}

// mapOrder builds the order candidate. An error means the order identity
// could not be derived and the caller must skip the row.
func (m *Mapper) mapOrder(orgID, email string, row []string, cell cellFn, out *MapOutcome) (*OrderCandidate, error) {
	o := &OrderCandidate{
		Currency:    m.DefaultCurrency,
		ProductName: DefaultProductName,
		Status:      DefaultStatus,
		Quantity:    DefaultQuantity,
	}

	if v, ok := cell(row, mapping.FieldStatus); ok && strings.TrimSpace(v) != "" {
		o.Status = normalize.Status(v)
	}

	explicitKey := ""
	if v, ok := cell(row, mapping.FieldOrderID); ok {
		explicitKey = strings.TrimSpace(v)
	}

	if v, ok := cell(row, mapping.FieldOrderDate); ok && strings.TrimSpace(v) != "" {
		d, err := normalize.Date(v)
		if err != nil {
			out.CellFailures++
		} else {
			o.OrderDate = d
		}
	}

	if v, ok := cell(row, mapping.FieldAmount); ok && strings.TrimSpace(v) != "" {
		amt, err := normalize.Amount(v)
		if err == nil && amt.IsNegative() && !normalize.IsRefundStatus(o.Status) {
			err = fmt.Errorf("negative amount %q without refund status", v)
		}
		switch {
		case err == nil:
			o.Amount = amt
		case explicitKey != "":
			// Amount is not part of the identity here; drop the cell.
			out.CellFailures++
		default:
			// Amount feeds the synthetic key; a corrupt value corrupts
			// the row's identity.
			return nil, err
		}
	}

	if v, ok := cell(row, mapping.FieldCurrency); ok && strings.TrimSpace(v) != "" {
		if code, err := normalize.Currency(v); err == nil {
			o.Currency = code
		}
	}
	if v, ok := cell(row, mapping.FieldProductName); ok && strings.TrimSpace(v) != "" {
		o.ProductName = strings.TrimSpace(v)
	}
	if v, ok := cell(row, mapping.FieldQuantity); ok {
		q, err := normalize.Quantity(v)
		if err != nil {
			out.CellFailures++
		} else {
			o.Quantity = q
		}
	}

	if explicitKey != "" {
		o.Key = explicitKey
	} else {
		o.Key = SyntheticOrderKey(orgID, email, o.OrderDate, o.Amount)
	}
	return o, nil
}
