package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kce-spotlight/console/internal/apiclient"
)

type item struct {
	ID   string
	Name string
}

func itemKey(i item) string { return i.ID }

func page(n int, totalPages, totalCount int) apiclient.Listing[item] {
	recs := make([]item, n)
	for i := range recs {
		recs[i] = item{ID: string(rune('a' + i)), Name: "row"}
	}
	return apiclient.Page[item]{
		Records: recs,
		Info:    apiclient.PageInfo{TotalPages: totalPages, TotalCount: totalCount},
	}
}

type recorder struct {
	mu     sync.Mutex
	params []apiclient.ListParams
}

func (r *recorder) fetcher(l apiclient.Listing[item], err error) Fetcher[item] {
	return func(ctx context.Context, p apiclient.ListParams) (apiclient.Listing[item], error) {
		r.mu.Lock()
		r.params = append(r.params, p)
		r.mu.Unlock()
		return l, err
	}
}

func (r *recorder) last() apiclient.ListParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params[len(r.params)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.params)
}

func TestLoadFourRowsNoPagination(t *testing.T) {
	rec := &recorder{}
	c := New(Config[item]{Name: "rules", Fetch: rec.fetcher(page(4, 1, 4), nil), Key: itemKey})

	st, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Rows, 4)
	require.False(t, st.ShowPagination())
	require.Equal(t, 4, st.TotalCount)
	require.False(t, st.Loading)
	require.Equal(t, apiclient.ListParams{Page: 1, Limit: 10, Filters: map[string]string{}}, rec.last())
}

func TestLoadEmptyListing(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(apiclient.Empty[item]{}, nil), Key: itemKey})

	st, err := c.Load(context.Background())
	require.NoError(t, err)
	require.True(t, st.Empty())
	require.Equal(t, 1, st.TotalPages)
	require.Equal(t, 0, st.TotalCount)
}

func TestLoadFailureClearsRows(t *testing.T) {
	fail := false
	c := New(Config[item]{
		Name: "staff",
		Fetch: func(ctx context.Context, p apiclient.ListParams) (apiclient.Listing[item], error) {
			if fail {
				return nil, errors.New("boom")
			}
			return page(3, 2, 13), nil
		},
		Key: itemKey,
	})

	st, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Rows, 3)

	fail = true
	st, err = c.Load(context.Background())
	require.Error(t, err)
	require.Empty(t, st.Rows)
	require.False(t, st.Loading)
	require.False(t, st.ShowPagination())
}

func TestSettersResetPage(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(1, 5, 50), nil), Key: itemKey})

	c.SetPage(3)
	require.Equal(t, 3, c.Snapshot().Page)
	require.True(t, c.SetSearch("priya"))
	require.Equal(t, 1, c.Snapshot().Page)

	c.SetPage(4)
	require.True(t, c.SetFilter("collegeName", "KCE"))
	require.Equal(t, 1, c.Snapshot().Page)

	c.SetPage(2)
	require.True(t, c.SetLimit(25))
	require.Equal(t, 1, c.Snapshot().Page)
	require.Equal(t, 25, c.Snapshot().Limit)
}

func TestSettersIgnoreUnchangedValues(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(1, 5, 50), nil), Key: itemKey})
	c.SetSearch("x")
	c.SetFilter("collegeName", "KIT")

	c.SetPage(3)
	require.False(t, c.SetSearch("x"))
	require.False(t, c.SetFilter("collegeName", "KIT"))
	require.False(t, c.SetLimit(10))
	require.False(t, c.SetLimit(0))
	require.Equal(t, 3, c.Snapshot().Page)
}

func TestSetFilterClear(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(1, 1, 1), nil), Key: itemKey})
	c.SetFilter("collegeName", "KCE")
	require.True(t, c.SetFilter("collegeName", ""))
	_, ok := c.Snapshot().Filters["collegeName"]
	require.False(t, ok)
}

func TestSetPageClamps(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(1, 1, 1), nil), Key: itemKey})
	c.SetPage(0)
	require.Equal(t, 1, c.Snapshot().Page)
	c.SetPage(-4)
	require.Equal(t, 1, c.Snapshot().Page)
}

func TestParamsFollowState(t *testing.T) {
	rec := &recorder{}
	c := New(Config[item]{Fetch: rec.fetcher(page(1, 9, 90), nil), Key: itemKey})
	c.SetSearch("hoodie")
	c.SetFilter("collegeName", "KAHE")
	c.SetLimit(50)
	c.SetPage(2)

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, apiclient.ListParams{
		Page: 2, Limit: 50, Search: "hoodie",
		Filters: map[string]string{"collegeName": "KAHE"},
	}, rec.last())
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex

	c := New(Config[item]{
		Fetch: func(ctx context.Context, p apiclient.ListParams) (apiclient.Listing[item], error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				// The slow response arrives after the newer one regardless of cancellation.
				return page(7, 1, 7), nil
			}
			return page(2, 1, 2), nil
		},
		Key: itemKey,
	})

	var wg sync.WaitGroup
	var staleErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = c.Load(context.Background())
	}()
	<-started

	st, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Rows, 2)

	close(release)
	wg.Wait()
	require.ErrorIs(t, staleErr, ErrSuperseded)
	require.Len(t, c.Snapshot().Rows, 2)
}

func TestNewLoadCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	var once sync.Once

	c := New(Config[item]{
		Fetch: func(ctx context.Context, p apiclient.ListParams) (apiclient.Listing[item], error) {
			first := false
			once.Do(func() { first = true })
			if first {
				close(started)
				<-ctx.Done()
				close(cancelled)
				return nil, ctx.Err()
			}
			return page(1, 1, 1), nil
		},
		Key: itemKey,
	})

	errc := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background())
		errc <- err
	}()
	<-started

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("first load was not cancelled")
	}
	require.ErrorIs(t, <-errc, ErrSuperseded)
	require.Len(t, c.Snapshot().Rows, 1)
}

func TestDeleteAppliesOnSuccess(t *testing.T) {
	var removed string
	c := New(Config[item]{
		Fetch: (&recorder{}).fetcher(page(3, 1, 3), nil),
		Remove: func(ctx context.Context, id string) error {
			removed = id
			return nil
		},
		Key: itemKey,
	})
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), "b"))
	require.Equal(t, "b", removed)

	st := c.Snapshot()
	require.Len(t, st.Rows, 2)
	require.Equal(t, 2, st.TotalCount)
	require.Equal(t, DeleteApplied, st.Delete)
	for _, r := range st.Rows {
		require.NotEqual(t, "b", r.ID)
	}
}

func TestDeleteFailureLeavesRows(t *testing.T) {
	c := New(Config[item]{
		Fetch: (&recorder{}).fetcher(page(3, 1, 3), nil),
		Remove: func(ctx context.Context, id string) error {
			return errors.New("backend refused")
		},
		Key: itemKey,
	})
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	err = c.Delete(context.Background(), "a")
	require.EqualError(t, err, "backend refused")

	st := c.Snapshot()
	require.Len(t, st.Rows, 3)
	require.Equal(t, 3, st.TotalCount)
	require.Equal(t, DeleteRolledBack, st.Delete)
	require.Equal(t, "rolled-back", st.Delete.String())
}

func TestDeleteWithoutRemover(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(1, 1, 1), nil), Key: itemKey})
	require.ErrorIs(t, c.Delete(context.Background(), "a"), ErrNoRemover)
}

func TestDeleteInProgress(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	c := New(Config[item]{
		Fetch: (&recorder{}).fetcher(page(2, 1, 2), nil),
		Remove: func(ctx context.Context, id string) error {
			close(started)
			<-block
			return nil
		},
		Key: itemKey,
	})

	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background(), "a") }()
	<-started

	require.Equal(t, Deleting, c.Snapshot().Delete)
	require.ErrorIs(t, c.Delete(context.Background(), "b"), ErrDeleteInProgress)

	close(block)
	require.NoError(t, <-done)
}

func TestPatchAndFind(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(2, 1, 2), nil), Key: itemKey})
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	require.True(t, c.Patch("a", func(i *item) { i.Name = "approved" }))
	require.False(t, c.Patch("zz", func(i *item) { i.Name = "x" }))

	got, ok := c.Find("a")
	require.True(t, ok)
	require.Equal(t, "approved", got.Name)

	_, ok = c.Find("zz")
	require.False(t, ok)
}

func TestExportIgnoresPagination(t *testing.T) {
	rec := &recorder{}
	c := New(Config[item]{Fetch: rec.fetcher(page(4, 1, 4), nil), Key: itemKey})
	c.SetSearch("x")
	c.SetFilter("collegeName", "KCE")
	c.SetLimit(25)
	c.SetPage(3)

	rows, err := c.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, apiclient.ListParams{
		Page: 1, Limit: 1000, Search: "x",
		Filters: map[string]string{"collegeName": "KCE"},
	}, rec.last())
	// Export does not move the visible page.
	require.Equal(t, 3, c.Snapshot().Page)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New(Config[item]{Fetch: (&recorder{}).fetcher(page(2, 1, 2), nil), Key: itemKey})
	c.Load(context.Background())
	c.SetFilter("collegeName", "KCE")

	st := c.Snapshot()
	st.Rows[0].Name = "mutated"
	st.Filters["collegeName"] = "KIT"

	fresh := c.Snapshot()
	require.Equal(t, "row", fresh.Rows[0].Name)
	require.Equal(t, "KCE", fresh.Filter("collegeName"))
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		page, total int
		want        []int
	}{
		{1, 1, nil},
		{1, 3, []int{1, 2, 3}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{5, 10, []int{3, 4, 5, 6, 7}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		st := State[item]{Page: tt.page, TotalPages: tt.total}
		require.Equal(t, tt.want, st.PageNumbers(), "page %d of %d", tt.page, tt.total)
	}
}

func TestSearchDebouncedOnlyLastFetches(t *testing.T) {
	rec := &recorder{}
	c := New(Config[item]{Fetch: rec.fetcher(page(1, 1, 1), nil), Key: itemKey, Debounce: 100 * time.Millisecond})

	terms := []string{"p", "pr", "pri", "priya"}
	errs := make([]error, len(terms))
	var wg sync.WaitGroup
	var prev chan struct{}
	for i, term := range terms {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()
			_, errs[i] = c.SearchDebounced(context.Background(), term)
		}(i, term)
		prev = waitRegistered(t, c.debounce, prev)
	}
	wg.Wait()

	require.Equal(t, 1, rec.count())
	require.Equal(t, "priya", rec.last().Search)
	require.NoError(t, errs[len(errs)-1])
	for _, err := range errs[:len(errs)-1] {
		require.ErrorIs(t, err, ErrSuperseded)
	}
}

func TestSearchDebouncedCancelled(t *testing.T) {
	rec := &recorder{}
	c := New(Config[item]{Fetch: rec.fetcher(page(1, 1, 1), nil), Key: itemKey, Debounce: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SearchDebounced(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, rec.count())
	require.Equal(t, "", c.Snapshot().Search)
}

// waitRegistered blocks until a Wait newer than prev is pending.
func waitRegistered(t *testing.T, d *Debouncer, prev chan struct{}) chan struct{} {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		cur := d.pending
		d.mu.Unlock()
		if cur != nil && cur != prev {
			return cur
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("debounced call never registered")
	return nil
}
