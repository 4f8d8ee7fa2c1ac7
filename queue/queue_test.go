package queue

import (
	"sync"
	"testing"
	"time"
)

func Test_Queue_PushPull_FIFO(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, status := q.Pull()
		if status != StatusSuccess {
			t.Fatalf("Pull() status = %v, want success", status)
		}
		if got != want {
			t.Fatalf("Pull() = %d, want %d", got, want)
		}
	}
}

func Test_Queue_PushAfterClose_Fails(t *testing.T) {
	q := New[int]()
	q.Close()
	if status := q.Push(1); status != StatusClosed {
		t.Fatalf("Push() after close = %v, want StatusClosed", status)
	}
}

func Test_Queue_PullDrainsRemainingItemsAfterClose(t *testing.T) {
	q := New[int]()
	q.Push(42)
	q.Close()

	got, status := q.Pull()
	if status != StatusSuccess || got != 42 {
		t.Fatalf("Pull() = (%d, %v), want (42, success)", got, status)
	}

	_, status = q.Pull()
	if status != StatusClosed {
		t.Fatalf("Pull() on drained closed queue = %v, want StatusClosed", status)
	}
}

func Test_Queue_PullBlocksUntilPush(t *testing.T) {
	q := New[int]()
	done := make(chan int, 1)

	go func() {
		v, _ := q.Pull()
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(7)

	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pull() never returned after Push()")
	}
}

func Test_Queue_CloseWakesAllBlockedPulls(t *testing.T) {
	q := New[int]()
	const n = 5
	var wg sync.WaitGroup
	results := make([]Status, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, status := q.Pull()
			results[idx] = status
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("not all pulls returned after Close()")
	}

	for i, status := range results {
		if status != StatusClosed {
			t.Fatalf("pull %d status = %v, want StatusClosed", i, status)
		}
	}
}

func Test_Queue_WaitForIdleQuorum_Succeeds(t *testing.T) {
	q := New[int]()
	const n = 3
	quorumReached := make(chan Status, 1)

	go func() {
		quorumReached <- q.WaitForIdleQuorum(n)
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pull()
		}()
	}

	select {
	case status := <-quorumReached:
		if status != StatusSuccess {
			t.Fatalf("WaitForIdleQuorum() = %v, want success", status)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForIdleQuorum() never returned")
	}

	// Release the parked workers so the test can exit cleanly.
	q.Close()
	wg.Wait()
}

func Test_Queue_WaitForIdleQuorum_ReturnsClosedIfClosedFirst(t *testing.T) {
	q := New[int]()
	q.Close()
	if status := q.WaitForIdleQuorum(2); status != StatusClosed {
		t.Fatalf("WaitForIdleQuorum() on closed queue = %v, want StatusClosed", status)
	}
}

func Test_Queue_WaitForIdleQuorum_NotSatisfiedByPartialParking(t *testing.T) {
	q := New[int]()
	const n = 3
	quorumReached := make(chan Status, 1)

	go func() {
		quorumReached <- q.WaitForIdleQuorum(n)
	}()

	// Only park n-1 workers; quorum must not fire.
	var wg sync.WaitGroup
	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pull()
		}()
	}

	select {
	case <-quorumReached:
		t.Fatal("WaitForIdleQuorum() returned before quorum was reached")
	case <-time.After(100 * time.Millisecond):
		// expected: still blocked
	}

	q.Close()
	wg.Wait()
	<-quorumReached
}
