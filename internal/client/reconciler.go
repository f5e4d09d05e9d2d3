package client

import (
	"errors"
	"strings"
	"sync"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNoConversation is returned by Submit when no partner is selected.
var ErrNoConversation = errors.New("no conversation selected")

// State is where an outgoing message is in its lifecycle.
type State int

const (
	StateConfirmed State = iota
	StatePending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	default:
		return "confirmed"
	}
}

// Entry is one row of the conversation view. Confirmed entries carry the
// server record; pending and failed ones carry a placeholder built from the
// draft and are addressed by TempID.
type Entry struct {
	Message    models.Message
	TempID     string
	State      State
	Attachment string
	Err        error
}

// PendingMessage is what has to be submitted for a pending entry.
type PendingMessage struct {
	TempID     string
	ReceiverID string
	Text       string
	Attachment *Attachment
}

// Reconciler owns the ordered message list of the selected conversation.
// The list is indexed by position; pending maps a temp id to its position so
// confirmation replaces the placeholder in place.
type Reconciler struct {
	mu       sync.Mutex
	self     string
	partner  string
	entries  []Entry
	pending  map[string]int
	drafts   map[string]Draft
	onChange func([]Entry)

	newID func() string
	now   func() time.Time
}

func NewReconciler(selfID string) *Reconciler {
	return &Reconciler{
		self:    selfID,
		pending: make(map[string]int),
		drafts:  make(map[string]Draft),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// OnChange registers fn to receive a snapshot after every change.
func (r *Reconciler) OnChange(fn func([]Entry)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Reconciler) Partner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partner
}

// Select switches to the conversation with partnerID and clears the view.
// Outstanding submissions of the previous conversation are forgotten; their
// messages show up in that conversation's history once persisted.
func (r *Reconciler) Select(partnerID string) {
	r.mu.Lock()
	r.partner = partnerID
	r.entries = nil
	r.pending = make(map[string]int)
	r.drafts = make(map[string]Draft)
	r.unlockAndNotify()
}

// LoadHistory installs the fetched history of partnerID. Entries added while
// the fetch was in flight are kept after it: unconfirmed ones always, and
// confirmed ones when the history does not already contain them.
func (r *Reconciler) LoadHistory(partnerID string, history []models.Message) bool {
	r.mu.Lock()
	if partnerID != r.partner {
		r.mu.Unlock()
		return false
	}

	known := make(map[string]struct{}, len(history))
	entries := make([]Entry, 0, len(history)+len(r.entries))
	for _, msg := range history {
		if _, dup := known[msg.ID]; dup {
			continue
		}
		known[msg.ID] = struct{}{}
		entries = append(entries, Entry{Message: msg, State: StateConfirmed})
	}
	for _, e := range r.entries {
		if e.State == StateConfirmed {
			if _, dup := known[e.Message.ID]; dup {
				continue
			}
		}
		entries = append(entries, e)
	}

	r.entries = entries
	r.reindexLocked()
	r.unlockAndNotify()
	return true
}

// Submit appends a pending placeholder for d and returns what to send.
func (r *Reconciler) Submit(d Draft) (PendingMessage, error) {
	if d.Empty() {
		return PendingMessage{}, apperr.ErrEmptyMessage
	}

	r.mu.Lock()
	if r.partner == "" {
		r.mu.Unlock()
		return PendingMessage{}, ErrNoConversation
	}

	pm := PendingMessage{
		TempID:     r.newID(),
		ReceiverID: r.partner,
		Text:       strings.TrimSpace(d.Text),
		Attachment: d.Attachment(),
	}
	entry := Entry{
		TempID: pm.TempID,
		State:  StatePending,
		Message: models.Message{
			SenderID:   r.self,
			ReceiverID: r.partner,
			Text:       pm.Text,
			CreatedAt:  r.now(),
		},
	}
	if pm.Attachment != nil {
		entry.Attachment = pm.Attachment.Filename
	}

	r.entries = append(r.entries, entry)
	r.pending[pm.TempID] = len(r.entries) - 1
	r.drafts[pm.TempID] = d
	r.unlockAndNotify()
	return pm, nil
}

// Confirm replaces the placeholder for tempID with the server's record. It
// reports false when tempID is unknown, e.g. after a conversation switch.
func (r *Reconciler) Confirm(tempID string, msg models.Message) bool {
	r.mu.Lock()
	pos, ok := r.pending[tempID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.pending, tempID)
	delete(r.drafts, tempID)

	if r.containsLocked(msg.ID) {
		r.removeLocked(pos)
	} else {
		r.entries[pos] = Entry{Message: msg, State: StateConfirmed}
	}
	r.unlockAndNotify()
	return true
}

// Fail marks the entry for tempID as failed. It stays in place until it is
// retried or discarded.
func (r *Reconciler) Fail(tempID string, err error) bool {
	r.mu.Lock()
	pos, ok := r.pending[tempID]
	if !ok || r.entries[pos].State != StatePending {
		r.mu.Unlock()
		return false
	}
	r.entries[pos].State = StateFailed
	r.entries[pos].Err = err
	r.unlockAndNotify()
	return true
}

// Retry puts a failed entry back to pending, keeping its temp id and position,
// and returns the message to resubmit.
func (r *Reconciler) Retry(tempID string) (PendingMessage, bool) {
	r.mu.Lock()
	pos, ok := r.pending[tempID]
	if !ok || r.entries[pos].State != StateFailed {
		r.mu.Unlock()
		return PendingMessage{}, false
	}

	d := r.drafts[tempID]
	r.entries[pos].State = StatePending
	r.entries[pos].Err = nil
	pm := PendingMessage{
		TempID:     tempID,
		ReceiverID: r.entries[pos].Message.ReceiverID,
		Text:       r.entries[pos].Message.Text,
		Attachment: d.Attachment(),
	}
	r.unlockAndNotify()
	return pm, true
}

// Discard drops a failed entry.
func (r *Reconciler) Discard(tempID string) bool {
	r.mu.Lock()
	pos, ok := r.pending[tempID]
	if !ok || r.entries[pos].State != StateFailed {
		r.mu.Unlock()
		return false
	}
	delete(r.pending, tempID)
	delete(r.drafts, tempID)
	r.removeLocked(pos)
	r.unlockAndNotify()
	return true
}

// Merge appends a relayed message if it belongs to the selected conversation
// and is not in the list yet.
func (r *Reconciler) Merge(msg models.Message) bool {
	r.mu.Lock()
	if r.partner == "" || !msg.Involves(r.partner) || r.containsLocked(msg.ID) {
		r.mu.Unlock()
		return false
	}
	r.entries = append(r.entries, Entry{Message: msg, State: StateConfirmed})
	r.unlockAndNotify()
	return true
}

// Entries returns a snapshot of the view.
func (r *Reconciler) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Reconciler) containsLocked(id string) bool {
	if id == "" {
		return false
	}
	return lo.ContainsBy(r.entries, func(e Entry) bool {
		return e.State == StateConfirmed && e.Message.ID == id
	})
}

func (r *Reconciler) removeLocked(pos int) {
	r.entries = append(r.entries[:pos], r.entries[pos+1:]...)
	r.reindexLocked()
}

func (r *Reconciler) reindexLocked() {
	r.pending = make(map[string]int)
	for i, e := range r.entries {
		if e.State != StateConfirmed {
			r.pending[e.TempID] = i
		}
	}
}

// unlockAndNotify releases the lock before calling the callback so it may call
// back into the Reconciler.
func (r *Reconciler) unlockAndNotify() {
	fn := r.onChange
	snapshot := append([]Entry(nil), r.entries...)
	r.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}
