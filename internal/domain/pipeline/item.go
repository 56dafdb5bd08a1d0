package pipeline

import (
	"fmt"
	"time"
)

// ItemID identifies a work item by the producer that created it and its
// position in that producer's sequence. It is unique across a run as long as
// producer ids are unique.
type ItemID struct {
	Producer int
	Seq      int
}

// NewItemID creates a new ItemID.
func NewItemID(producer, seq int) ItemID { return ItemID{Producer: producer, Seq: seq} }

// String returns "<producer>-<seq>".
func (id ItemID) String() string { return fmt.Sprintf("%d-%d", id.Producer, id.Seq) }

// OrderNumber returns the human facing number printed on tickets:
// producer*10 + seq. It only stays unique while seq < 10.
func (id ItemID) OrderNumber() int { return id.Producer*10 + id.Seq }

// WorkItem is a unit of work flowing from producers to consumers.
// It is immutable once created.
type WorkItem struct {
	id       ItemID
	kind     Kind
	duration time.Duration
}

// NewWorkItem creates a WorkItem for the given catalog entry.
func NewWorkItem(id ItemID, entry CatalogEntry) WorkItem {
	return WorkItem{id: id, kind: entry.Kind, duration: entry.Duration}
}

// ID returns the item's identifier.
func (w WorkItem) ID() ItemID { return w.id }

// Kind returns the catalog label of the item.
func (w WorkItem) Kind() Kind { return w.kind }

// Duration returns the processing cost of the item.
func (w WorkItem) Duration() time.Duration { return w.duration }
