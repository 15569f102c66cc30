package row

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a sheet column. The numeric value is the 0-based column index.
type Field int

const (
	SrNo Field = iota
	Title
	CreatedAt
	UpdatedAt
	Category
	SubCategory
	Original
	Rewritten
	ActionItems
	DueDate
	TaskStatus
	Links
	MediaURL
	Tags
	MessageID
)

// TotalCols is the number of columns in the data range (A..O).
const TotalCols = 15

var fieldNames = [TotalCols]string{
	"srNo", "title", "createdAt", "updatedAt", "category", "subCategory",
	"original", "rewritten", "actionItems", "dueDate", "taskStatus",
	"links", "mediaUrl", "tags", "messageId",
}

// Header is the header line written to a fresh sheet.
var Header = []string{
	"Sr No", "Title", "Created At", "Updated At", "Category", "Sub Category",
	"Original", "Rewritten", "Action Items", "Due Date", "Task Status",
	"Links", "Media URL", "Tags", "Message ID",
}

// Editable lists the fields a user (or the AI) may change.
var Editable = []Field{
	Title, Category, SubCategory, Original, Rewritten, ActionItems,
	DueDate, TaskStatus, Links, MediaURL, Tags,
}

func (f Field) String() string {
	if f < 0 || int(f) >= TotalCols {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField resolves a field by its camelCase name, case-insensitively.
func ParseField(name string) (Field, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for i, fn := range fieldNames {
		if strings.ToLower(fn) == n {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// IsEditable reports whether f is in Editable.
func (f Field) IsEditable() bool {
	for _, e := range Editable {
		if e == f {
			return true
		}
	}
	return false
}

// Get returns the value of f on r.
func (r *Row) Get(f Field) string {
	if p := r.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to f on r. Unknown fields are ignored.
func (r *Row) Set(f Field, v string) {
	if p := r.ptr(f); p != nil {
		*p = v
	}
}

func (r *Row) ptr(f Field) *string {
	switch f {
	case SrNo:
		return &r.SrNo
	case Title:
		return &r.Title
	case CreatedAt:
		return &r.CreatedAt
	case UpdatedAt:
		return &r.UpdatedAt
	case Category:
		return &r.Category
	case SubCategory:
		return &r.SubCategory
	case Original:
		return &r.Original
	case Rewritten:
		return &r.Rewritten
	case ActionItems:
		return &r.ActionItems
	case DueDate:
		return &r.DueDate
	case TaskStatus:
		return &r.TaskStatus
	case Links:
		return &r.Links
	case MediaURL:
		return &r.MediaURL
	case Tags:
		return &r.Tags
	case MessageID:
		return &r.MessageID
	}
	return nil
}

// Patch is a partial edit keyed by field.
type Patch map[Field]string

// Snapshot captures the editable fields of r.
func Snapshot(r Row) Patch {
	p := make(Patch, len(Editable))
	for _, f := range Editable {
		p[f] = r.Get(f)
	}
	return p
}

// Apply returns a copy of r with p applied.
func Apply(r Row, p Patch) Row {
	for f, v := range p {
		r.Set(f, v)
	}
	return r
}

// Fields returns the patched fields in column order.
func (p Patch) Fields() []Field {
	out := make([]Field, 0, len(p))
	for f := range p {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of p.
func (p Patch) Clone() Patch {
	out := make(Patch, len(p))
	for f, v := range p {
		out[f] = v
	}
	return out
}

// Equal reports whether both patches hold the same values.
func (p Patch) Equal(o Patch) bool {
	if len(p) != len(o) {
		return false
	}
	for f, v := range p {
		if ov, ok := o[f]; !ok || ov != v {
			return false
		}
	}
	return true
}
