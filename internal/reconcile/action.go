package reconcile

import "github.com/Veraticus/loanrecon/internal/model"

// Action is a reviewer decision for one field.
type Action struct {
	value *model.Value
	kind  model.ResolutionKind
}

// Edit replaces the field with a reviewer-supplied value.
func Edit(v *model.Value) Action {
	return Action{kind: model.Edited, value: v}
}

// AcceptExtracted adopts the value read from the document.
func AcceptExtracted() Action {
	return Action{kind: model.AcceptedExtracted}
}

// AcceptOriginal keeps the application value, discarding any earlier edit.
func AcceptOriginal() Action {
	return Action{kind: model.AcceptedOriginal}
}

// Kind returns the resolution the action produces.
func (a Action) Kind() model.ResolutionKind {
	return a.kind
}
