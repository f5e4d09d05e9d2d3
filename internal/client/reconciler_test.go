package client

import (
	"errors"
	"fmt"
	"testing"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(self, partner string) *Reconciler {
	r := NewReconciler(self)
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("T%d", n)
	}
	r.Select(partner)
	return r
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		if e.State == StateConfirmed {
			out[i] = e.Message.ID
		} else {
			out[i] = e.TempID
		}
	}
	return out
}

func TestReconciler_OptimisticConfirmReplacesInPlace(t *testing.T) {
	r := newTestReconciler("A", "B")
	r.LoadHistory("B", []models.Message{
		{ID: "M1", SenderID: "B", ReceiverID: "A", Text: "hey"},
	})

	pm, err := r.Submit(Draft{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "T1", pm.TempID)
	assert.Equal(t, "B", pm.ReceiverID)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, StatePending, entries[1].State)
	assert.Equal(t, "hello", entries[1].Message.Text)

	// a relayed message lands after the pending one
	assert.True(t, r.Merge(models.Message{ID: "M5", SenderID: "B", ReceiverID: "A", Text: "yo"}))

	require.True(t, r.Confirm("T1", models.Message{ID: "M7", SenderID: "A", ReceiverID: "B", Text: "hello"}))

	entries = r.Entries()
	assert.Equal(t, []string{"M1", "M7", "M5"}, ids(entries))
	assert.Equal(t, StateConfirmed, entries[1].State)
	assert.False(t, r.Confirm("T1", models.Message{ID: "M7"}), "a temp id confirms once")
}

func TestReconciler_FailRetryDiscard(t *testing.T) {
	r := newTestReconciler("A", "B")
	_, err := r.Submit(Draft{Text: "one"})
	require.NoError(t, err)
	_, err = r.Submit(Draft{Text: "two"})
	require.NoError(t, err)

	sendErr := errors.New("boom")
	require.True(t, r.Fail("T1", sendErr))
	assert.False(t, r.Fail("T1", sendErr), "already failed")

	entries := r.Entries()
	assert.Equal(t, StateFailed, entries[0].State)
	assert.ErrorIs(t, entries[0].Err, sendErr)

	_, ok := r.Retry("T2")
	assert.False(t, ok, "pending entries are not retried")

	pm, ok := r.Retry("T1")
	require.True(t, ok)
	assert.Equal(t, "T1", pm.TempID)
	assert.Equal(t, "one", pm.Text)
	assert.Equal(t, StatePending, r.Entries()[0].State)
	assert.Equal(t, []string{"T1", "T2"}, ids(r.Entries()))

	require.True(t, r.Fail("T1", sendErr))
	require.True(t, r.Discard("T1"))
	assert.Equal(t, []string{"T2"}, ids(r.Entries()))

	// T2 moved to position 0 and still confirms in place
	require.True(t, r.Confirm("T2", models.Message{ID: "M2", SenderID: "A", ReceiverID: "B"}))
	assert.Equal(t, []string{"M2"}, ids(r.Entries()))
}

func TestReconciler_RetryKeepsAttachment(t *testing.T) {
	r := newTestReconciler("A", "B")
	var d Draft
	d.Attach(Attachment{Filename: "cat.png", Data: []byte{1}})

	_, err := r.Submit(d)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", r.Entries()[0].Attachment)

	require.True(t, r.Fail("T1", errors.New("offline")))
	pm, ok := r.Retry("T1")
	require.True(t, ok)
	require.NotNil(t, pm.Attachment)
	assert.Equal(t, "cat.png", pm.Attachment.Filename)
}

func TestReconciler_MergeScopedToPartner(t *testing.T) {
	r := newTestReconciler("A", "B")

	assert.False(t, r.Merge(models.Message{ID: "X", SenderID: "C", ReceiverID: "A"}))
	assert.True(t, r.Merge(models.Message{ID: "M1", SenderID: "B", ReceiverID: "A"}))
	assert.False(t, r.Merge(models.Message{ID: "M1", SenderID: "B", ReceiverID: "A"}), "duplicate id")

	r.Select("C")
	assert.Empty(t, r.Entries())
	assert.True(t, r.Merge(models.Message{ID: "X", SenderID: "C", ReceiverID: "A"}))

	r.Select("")
	assert.False(t, r.Merge(models.Message{ID: "Y", SenderID: "C", ReceiverID: "A"}))
}

func TestReconciler_LoadHistoryKeepsInFlightEntries(t *testing.T) {
	r := newTestReconciler("A", "B")

	_, err := r.Submit(Draft{Text: "early"})
	require.NoError(t, err)
	r.Merge(models.Message{ID: "M2", SenderID: "B", ReceiverID: "A"})
	r.Merge(models.Message{ID: "M3", SenderID: "B", ReceiverID: "A"})

	assert.False(t, r.LoadHistory("C", nil), "history for another partner is ignored")

	r.LoadHistory("B", []models.Message{
		{ID: "M1", SenderID: "A", ReceiverID: "B"},
		{ID: "M2", SenderID: "B", ReceiverID: "A"},
	})
	assert.Equal(t, []string{"M1", "M2", "T1", "M3"}, ids(r.Entries()))

	require.True(t, r.Confirm("T1", models.Message{ID: "M4", SenderID: "A", ReceiverID: "B"}))
	assert.Equal(t, []string{"M1", "M2", "M4", "M3"}, ids(r.Entries()))
}

func TestReconciler_SubmitErrors(t *testing.T) {
	r := NewReconciler("A")
	_, err := r.Submit(Draft{Text: "hi"})
	assert.ErrorIs(t, err, ErrNoConversation)

	r.Select("B")
	_, err = r.Submit(Draft{Text: "  "})
	assert.ErrorIs(t, err, apperr.ErrEmptyMessage)
	assert.Empty(t, r.Entries())
}

func TestReconciler_SelectForgetsPending(t *testing.T) {
	r := newTestReconciler("A", "B")
	_, err := r.Submit(Draft{Text: "hi"})
	require.NoError(t, err)

	r.Select("C")
	assert.False(t, r.Confirm("T1", models.Message{ID: "M1", SenderID: "A", ReceiverID: "B"}))
	assert.Empty(t, r.Entries())
}

func TestReconciler_OnChangeSeesEveryMutation(t *testing.T) {
	r := newTestReconciler("A", "B")
	var lengths []int
	r.OnChange(func(entries []Entry) {
		lengths = append(lengths, len(entries))
		// callbacks may read back without deadlocking
		_ = r.Partner()
	})

	_, err := r.Submit(Draft{Text: "hi"})
	require.NoError(t, err)
	r.Confirm("T1", models.Message{ID: "M1", SenderID: "A", ReceiverID: "B"})
	r.Merge(models.Message{ID: "M2", SenderID: "B", ReceiverID: "A"})

	assert.Equal(t, []int{1, 1, 2}, lengths)
}
