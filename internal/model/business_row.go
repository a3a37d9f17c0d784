// internal/model/business_row.go
package model

import "strings"

// Column positions of the 14-column sheet layout.
const (
	ColName = iota
	ColLocation
	ColEmail
	ColPhone
	ColWebsite
	ColContactPerson
	ColGeneratedSubject
	ColGeneratedBody
	ColNotes
	ColStatus
	ColDateApproved
	ColDateSent
	ColLastResponse
	ColResponseDetails

	ColumnCount
)

// SheetHeaders is the header row written to row 1.
var SheetHeaders = []string{
	"Business Name",
	"Location",
	"Email",
	"Phone",
	"Website",
	"Contact Person",
	"Generated Subject",
	"Generated Body",
	"Your Notes",
	"Status",
	"Date Approved",
	"Date Sent",
	"Last Response",
	"Response Details",
}

// TimestampLayout is how dates are written into the sheet.
const TimestampLayout = "2006-01-02 15:04:05"

// BusinessRow is one published lead. RowNumber is the absolute 1-based sheet row.
type BusinessRow struct {
	RowNumber        int    `json:"row_number"`
	Name             string `json:"name"`
	Location         string `json:"location"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Website          string `json:"website"`
	ContactPerson    string `json:"contact_person"`
	GeneratedSubject string `json:"generated_subject"`
	GeneratedBody    string `json:"generated_body"`
	Notes            string `json:"notes"`
	Status           Status `json:"status"`
	RawStatus        string `json:"-"`
	DateApproved     string `json:"date_approved"`
	DateSent         string `json:"date_sent"`
	LastResponse     string `json:"last_response"`
	ResponseDetails  string `json:"response_details"`
}

// RowFromCells builds a row from sheet cells, padding short rows.
func RowFromCells(cells []string, rowNumber int) BusinessRow {
	padded := make([]string, ColumnCount)
	copy(padded, cells)
	for i := range padded {
		padded[i] = strings.TrimSpace(padded[i])
	}

	status, _ := ParseStatus(padded[ColStatus])
	return BusinessRow{
		RowNumber:        rowNumber,
		Name:             padded[ColName],
		Location:         padded[ColLocation],
		Email:            padded[ColEmail],
		Phone:            padded[ColPhone],
		Website:          padded[ColWebsite],
		ContactPerson:    padded[ColContactPerson],
		GeneratedSubject: padded[ColGeneratedSubject],
		GeneratedBody:    padded[ColGeneratedBody],
		Notes:            padded[ColNotes],
		Status:           status,
		RawStatus:        padded[ColStatus],
		DateApproved:     padded[ColDateApproved],
		DateSent:         padded[ColDateSent],
		LastResponse:     padded[ColLastResponse],
		ResponseDetails:  padded[ColResponseDetails],
	}
}

// LeadCells is the row appended for a freshly collected lead.
func LeadCells(l Lead, notes string) []string {
	cells := make([]string, ColumnCount)
	cells[ColName] = l.Name
	cells[ColLocation] = l.Location
	cells[ColEmail] = l.Email
	cells[ColPhone] = l.Phone
	cells[ColWebsite] = l.Website
	cells[ColContactPerson] = l.ContactPerson
	cells[ColNotes] = notes
	cells[ColStatus] = string(StatusDraft)
	return cells
}

// ReadyToSend reports whether the row has everything a send needs.
func (r BusinessRow) ReadyToSend() bool {
	return r.Email != "" && r.GeneratedSubject != "" && r.GeneratedBody != ""
}

// Lead returns the contact fields of the row.
func (r BusinessRow) Lead() Lead {
	return Lead{
		Name:          r.Name,
		Location:      r.Location,
		Email:         r.Email,
		Phone:         r.Phone,
		Website:       r.Website,
		ContactPerson: r.ContactPerson,
	}
}
