package model

import "time"

// PropertyValue is a page property value. One of the typed fields is set
// according to Type; the shape mirrors the wire format so API responses
// unmarshal directly. Rollup arrays nest further PropertyValues, which is
// why the type is recursive.
type PropertyValue struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	Title          []RichText     `json:"title,omitempty"`
	RichText       []RichText     `json:"rich_text,omitempty"`
	Number         *float64       `json:"number,omitempty"`
	Select         *SelectOption  `json:"select,omitempty"`
	MultiSelect    []SelectOption `json:"multi_select,omitempty"`
	Status         *SelectOption  `json:"status,omitempty"`
	Date           *DateValue     `json:"date,omitempty"`
	People         []User         `json:"people,omitempty"`
	Files          []FileRef      `json:"files,omitempty"`
	Checkbox       *bool          `json:"checkbox,omitempty"`
	URL            *string        `json:"url,omitempty"`
	Email          *string        `json:"email,omitempty"`
	PhoneNumber    *string        `json:"phone_number,omitempty"`
	Formula        *FormulaValue  `json:"formula,omitempty"`
	Relation       []ObjectRef    `json:"relation,omitempty"`
	Rollup         *RollupValue   `json:"rollup,omitempty"`
	CreatedTime    *time.Time     `json:"created_time,omitempty"`
	CreatedBy      *User          `json:"created_by,omitempty"`
	LastEditedTime *time.Time     `json:"last_edited_time,omitempty"`
	LastEditedBy   *User          `json:"last_edited_by,omitempty"`
	UniqueID       *UniqueID      `json:"unique_id,omitempty"`
	Verification   *Verification  `json:"verification,omitempty"`
}

// SelectOption is one option of a select, multi-select, or status property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is a Notion date or date range. Start and End are kept in their
// wire form ("2006-01-02" or RFC 3339); StartTime parses on demand.
type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// StartTime parses the start of the date value. The second return is false
// when the value is absent or unparseable.
func (d *DateValue) StartTime() (time.Time, bool) {
	if d == nil || d.Start == "" {
		return time.Time{}, false
	}
	return parseNotionTime(d.Start)
}

func parseNotionTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FileRef is a file attached to a property or block.
type FileRef struct {
	Name     string        `json:"name,omitempty"`
	Type     string        `json:"type,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
}

// FileURL returns the file's URL regardless of hosting.
func (f *FileRef) FileURL() string {
	if f.File != nil {
		return f.File.URL
	}
	if f.External != nil {
		return f.External.URL
	}
	return ""
}

// HostedFile is a Notion-hosted file with an expiring URL.
type HostedFile struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// ExternalFile is an externally hosted file.
type ExternalFile struct {
	URL string `json:"url"`
}

// FormulaValue is the computed result of a formula property.
type FormulaValue struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RollupValue is the computed result of a rollup property. Array rollups
// carry full property values, so the model nests recursively.
type RollupValue struct {
	Type   string          `json:"type"`
	Number *float64        `json:"number,omitempty"`
	Date   *DateValue      `json:"date,omitempty"`
	Array  []PropertyValue `json:"array,omitempty"`
}

// UniqueID is an auto-incrementing identifier property value.
type UniqueID struct {
	Number int64  `json:"number"`
	Prefix string `json:"prefix,omitempty"`
}

// Verification records a page's verification state.
type Verification struct {
	State      string     `json:"state"`
	VerifiedBy *User      `json:"verified_by,omitempty"`
	Date       *DateValue `json:"date,omitempty"`
}

// DateOf extracts a date from any property value that can yield one:
// native dates, rollup dates (direct or first array entry), formula dates,
// and the created/last-edited timestamps. The second return is false when
// the property has no date to offer.
func DateOf(pv PropertyValue) (time.Time, bool) {
	switch pv.Type {
	case "date":
		return pv.Date.StartTime()
	case "created_time":
		if pv.CreatedTime != nil {
			return *pv.CreatedTime, true
		}
	case "last_edited_time":
		if pv.LastEditedTime != nil {
			return *pv.LastEditedTime, true
		}
	case "formula":
		if pv.Formula != nil && pv.Formula.Date != nil {
			return pv.Formula.Date.StartTime()
		}
	case "rollup":
		if pv.Rollup == nil {
			break
		}
		if pv.Rollup.Date != nil {
			return pv.Rollup.Date.StartTime()
		}
		for _, item := range pv.Rollup.Array {
			if t, ok := DateOf(item); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// HasNativeDate reports whether the property is a date property with a value.
func HasNativeDate(pv PropertyValue) bool {
	return pv.Type == "date" && pv.Date != nil && pv.Date.Start != ""
}
