package metadata

// Outcome classifies a per-field extraction result.
type Outcome string

const (
	// OutcomeOK means the field was determined and carries a value.
	OutcomeOK Outcome = "ok"
	// OutcomeUnknown means the model explicitly declined to answer.
	OutcomeUnknown Outcome = "unknown"
	// OutcomeInvalid means the model output failed validation or violated a
	// policy (for example an entity outside the allowlist without creation
	// permission).
	OutcomeInvalid Outcome = "invalid"
)

// SelectionKind distinguishes resolved entities from proposed ones.
type SelectionKind string

const (
	SelectionExisting SelectionKind = "existing"
	SelectionNew      SelectionKind = "new"
)

// EntitySelection is either an entity resolved against the document store
// (Kind=existing, ID set) or a proposed one awaiting materialization
// (Kind=new). A new selection must never reach the document-update boundary.
type EntitySelection struct {
	Kind SelectionKind
	ID   int
	Name string
}

func ExistingEntity(id int, name string) EntitySelection {
	return EntitySelection{Kind: SelectionExisting, ID: id, Name: name}
}

func NewEntity(name string) EntitySelection {
	return EntitySelection{Kind: SelectionNew, Name: name}
}

// Result is the terminal outcome for a single field in one extraction run.
// Text carries the value for title/date, Entity for correspondent/doctype;
// both are meaningful only when Outcome is OutcomeOK.
type Result struct {
	Field   Field
	Outcome Outcome
	Message string
	Text    string
	Entity  EntitySelection
}

func okTextResult(field Field, value, message string) *Result {
	return &Result{Field: field, Outcome: OutcomeOK, Text: value, Message: message}
}

func okEntityResult(field Field, selection EntitySelection, message string) *Result {
	return &Result{Field: field, Outcome: OutcomeOK, Entity: selection, Message: message}
}

func unknownResult(field Field, message string) *Result {
	return &Result{Field: field, Outcome: OutcomeUnknown, Message: message}
}

func invalidResult(field Field, message string) *Result {
	return &Result{Field: field, Outcome: OutcomeInvalid, Message: message}
}

// Extracted maps each enabled field to its result. It is created fresh per
// document, populated by Extract, and mutated afterwards only by
// MaterializeNewEntities.
type Extracted map[Field]*Result
