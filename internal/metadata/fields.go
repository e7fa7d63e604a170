package metadata

// Field identifies one of the metadata attributes Aspen extracts.
type Field string

const (
	FieldTitle         Field = "title"
	FieldCorrespondent Field = "correspondent"
	FieldDate          Field = "date"
	FieldDoctype       Field = "doctype"
)

// Fields returns every field in declaration order. Strategies, review notes,
// and result summaries all iterate in this order.
func Fields() []Field {
	return []Field{FieldTitle, FieldCorrespondent, FieldDate, FieldDoctype}
}

var fieldLabels = map[Field]string{
	FieldTitle:         "Title",
	FieldCorrespondent: "Correspondent",
	FieldDate:          "Date",
	FieldDoctype:       "Document type",
}

// Label returns the human-readable name used in review notes.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}
