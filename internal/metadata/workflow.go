package metadata

// WorkflowTags are the tag ids that carry the document's workflow state,
// resolved once at startup and immutable for the process lifetime.
type WorkflowTags struct {
	Queue     int
	Processed int
	Review    int
	Error     int
}

// TagPlan is the two-phase tag delta for one document. The store's API
// segregates inbox-tag removal from ordinary tag edits, so the status write
// keeps the queue tag and a follow-up write drops it.
type TagPlan struct {
	WithQueue    []int
	QueueRemoved []int
}

// NeedsDequeue reports whether the follow-up queue-removal write is
// required, i.e. whether the document still carried the queue tag.
func (p TagPlan) NeedsDequeue() bool {
	return len(p.QueueRemoved) != len(p.WithQueue)
}

// PlanStatusTags computes the tag delta for a completed extraction: add the
// review tag when review is required, else the processed tag, and drop the
// opposite status tag. The errored tag is a terminal marker and is never
// touched here. Input order is preserved; the added tag goes last.
func PlanStatusTags(current []int, tags WorkflowTags, review bool) TagPlan {
	desired := tags.Processed
	toRemove := tags.Review
	if review {
		desired = tags.Review
		toRemove = tags.Processed
	}
	return planTags(current, desired, toRemove, tags.Queue)
}

// PlanErrorTags computes the tag delta for a document whose extraction
// failed outright: add the errored tag and dequeue, leaving everything else
// alone.
func PlanErrorTags(current []int, tags WorkflowTags) TagPlan {
	return planTags(current, tags.Error, 0, tags.Queue)
}

func planTags(current []int, desired, toRemove, queue int) TagPlan {
	withQueue := make([]int, 0, len(current)+1)
	hasDesired := false
	for _, id := range current {
		if toRemove != 0 && id == toRemove {
			continue
		}
		if id == desired {
			hasDesired = true
		}
		withQueue = append(withQueue, id)
	}
	if !hasDesired {
		withQueue = append(withQueue, desired)
	}

	queueRemoved := make([]int, 0, len(withQueue))
	for _, id := range withQueue {
		if id == queue {
			continue
		}
		queueRemoved = append(queueRemoved, id)
	}

	return TagPlan{WithQueue: withQueue, QueueRemoved: queueRemoved}
}
