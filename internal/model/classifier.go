package model

// Classifier resolves a flow identifier back to the five-tuple it was
// assigned for.
type Classifier interface {
	FindFlow(id FlowID) (FlowRecord, bool)
}

// MapClassifier is an in-memory Classifier.
type MapClassifier map[FlowID]FiveTuple

// FindFlow implements Classifier.
func (c MapClassifier) FindFlow(id FlowID) (FlowRecord, bool) {
	ft, ok := c[id]
	if !ok {
		return FlowRecord{}, false
	}
	return FlowRecord{ID: id, FiveTuple: ft}, true
}
