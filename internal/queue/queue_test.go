package queue

import "testing"

func TestPostFetchRunnable(t *testing.T) {
	q := New()
	id := q.Post("GET_PLAYLIST", "input", 100)

	if r := q.FetchNextRunnable(50); r != nil {
		t.Fatal("request should not be runnable before its deadline")
	}

	r := q.FetchNextRunnable(100)
	if r == nil {
		t.Fatal("want runnable request at its deadline")
	}
	if r.ID != id {
		t.Fatalf("want id %d, got %d", id, r.ID)
	}
	if r.State() != StateRunning {
		t.Fatalf("want RUNNING after fetch, got %v", r.State())
	}

	// A RUNNING request with an unexpired deadline is not re-fetched.
	q.Pin(r)
	if got := q.FetchNextRunnable(1_000_000); got != nil {
		t.Fatal("pinned request should not be runnable")
	}
}

// TestRetryScheduling checks the S3 transient-error boundary: a rescheduled
// request stays RUNNING and becomes runnable again only once its new
// deadline has passed.
func TestRetryScheduling(t *testing.T) {
	q := New()
	q.Post("PLAYLIST_LOAD", nil, 0)
	r := q.FetchNextRunnable(0)
	if r == nil {
		t.Fatal("want runnable request")
	}

	const retryMS = 30_000
	q.Reschedule(r, 0+retryMS)

	if got := q.FetchNextRunnable(retryMS - 1); got != nil {
		t.Fatal("request should not be runnable before its retry deadline")
	}
	got := q.FetchNextRunnable(retryMS)
	if got == nil {
		t.Fatal("want runnable request at its retry deadline")
	}
	if got.State() != StateRunning {
		t.Fatalf("want RUNNING, got %v", got.State())
	}
}

func TestSetResultAndFetchNextResult(t *testing.T) {
	q := New()
	q.Post("BROWSE", nil, 0)
	r := q.FetchNextRunnable(0)

	if got, next, has := q.FetchNextResult(); got != nil || !has || next != 0 {
		t.Fatal("no result should be available yet; the running request's deadline 0 should be reported")
	}

	q.SetResult(r, nil, "payload")

	got, _, _ := q.FetchNextResult()
	if got == nil {
		t.Fatal("want a returned request")
	}
	if got.State() != StateReturned {
		t.Fatalf("want RETURNED, got %v", got.State())
	}
	if got.Output != "payload" {
		t.Fatalf("want output %q, got %v", "payload", got.Output)
	}
}

func TestFetchNextResultReportsMinimumDeadline(t *testing.T) {
	q := New()
	q.Post("A", nil, 500)
	q.Post("B", nil, 100)
	q.Post("C", nil, 900)

	_, nextTimeout, has := q.FetchNextResult()
	if !has {
		t.Fatal("want a next timeout reported")
	}
	if nextTimeout != 100 {
		t.Fatalf("want minimum deadline 100, got %d", nextTimeout)
	}
}

// TestMarkProcessedOnlyFromReturned checks invariant 6: mark_processed is
// called at most once and only in state RETURNED.
func TestMarkProcessedOnlyFromReturned(t *testing.T) {
	q := New()
	q.Post("GET_PLAYLIST", nil, 0)
	r := q.FetchNextRunnable(0)

	if q.MarkProcessed(r) {
		t.Fatal("MarkProcessed should fail on a RUNNING request")
	}

	q.SetResult(r, nil, nil)
	if !q.MarkProcessed(r) {
		t.Fatal("MarkProcessed should succeed on a RETURNED request")
	}
	if r.State() != StateProcessed {
		t.Fatalf("want PROCESSED, got %v", r.State())
	}

	if q.MarkProcessed(r) {
		t.Fatal("a second MarkProcessed on the same request should fail")
	}
	if q.Len() != 0 {
		t.Fatalf("processed request should be reclaimed, queue len = %d", q.Len())
	}
}
