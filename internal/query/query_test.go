package query

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type invoice struct {
	ID       string
	Status   string
	Amount   float64
	Date     time.Time
	Tags     []string
	Note     string
	Featured bool
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

var invoiceSchema = Schema[invoice]{
	ID:       func(i invoice) string { return i.ID },
	Time:     func(i invoice) time.Time { return i.Date },
	Status:   func(i invoice) string { return i.Status },
	Category: func(i invoice) []string { return i.Tags },
	Text:     func(i invoice) []string { return append([]string{i.ID, i.Note}, i.Tags...) },
	Number:   func(i invoice) float64 { return i.Amount },
	Flags: map[string]func(invoice) bool{
		"featured": func(i invoice) bool { return i.Featured },
	},
	Sorts: map[string]SortMode{
		"amount_desc":    SortNumberDesc,
		"featured_first": FlagFirst("featured"),
	},
}

func sampleInvoices() []invoice {
	return []invoice{
		{ID: "INV-1", Status: "due", Amount: 40, Date: day("2024-01-01"), Tags: []string{"coaching"}, Note: "January Coaching"},
		{ID: "INV-2", Status: "paid", Amount: 10, Date: day("2024-02-01"), Tags: []string{"review"}, Note: "CV review"},
		{ID: "INV-3", Status: "overdue", Amount: 40, Date: day("2024-03-01"), Tags: []string{"coaching", "group"}, Featured: true},
		{ID: "INV-4", Status: "paid", Amount: 25, Date: day("2024-03-01"), Featured: true},
	}
}

func ids(items []invoice) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestFilterByStatus(t *testing.T) {
	items := sampleInvoices()[:2]
	got := invoiceSchema.Filter(Filter{Status: Only("paid")}, items)
	require.Equal(t, []string{"INV-2"}, ids(got))
}

func TestEmptyFilterKeepsInputOrder(t *testing.T) {
	items := sampleInvoices()
	got := invoiceSchema.Filter(Filter{Status: All()}, items)
	require.Equal(t, items, got)
	require.False(t, Filter{}.Active())
}

func TestQueryIsCaseInsensitiveAcrossFields(t *testing.T) {
	items := sampleInvoices()
	require.Equal(t, []string{"INV-1"}, ids(invoiceSchema.Filter(Filter{Query: "  JANUARY  "}, items)))
	require.Equal(t, []string{"INV-2"}, ids(invoiceSchema.Filter(Filter{Query: "cv REVIEW"}, items)))
	require.Equal(t, []string{"INV-3"}, ids(invoiceSchema.Filter(Filter{Query: "group"}, items)))
}

func TestCategorySelectionDistinguishesAllFromEmpty(t *testing.T) {
	items := sampleInvoices()
	require.Len(t, invoiceSchema.Filter(Filter{Categories: All()}, items), 4)
	require.Empty(t, invoiceSchema.Filter(Filter{Categories: Only()}, items))
	require.Equal(t, []string{"INV-1", "INV-3"}, ids(invoiceSchema.Filter(Filter{Categories: Only("coaching")}, items)))
}

func TestNumericAndDateBoundsAreInclusive(t *testing.T) {
	items := sampleInvoices()
	got := invoiceSchema.Filter(Filter{MinNumber: ptr(25.0)}, items)
	require.Equal(t, []string{"INV-1", "INV-3", "INV-4"}, ids(got))

	got = invoiceSchema.Filter(Filter{From: ptr(day("2024-02-01")), To: ptr(day("2024-03-01"))}, items)
	require.Equal(t, []string{"INV-2", "INV-3", "INV-4"}, ids(got))

	got = invoiceSchema.Filter(Filter{To: ptr(day("2024-01-01"))}, items)
	require.Equal(t, []string{"INV-1"}, ids(got))
}

func TestFlagTernary(t *testing.T) {
	items := sampleInvoices()
	yes := invoiceSchema.Filter(Filter{Flags: map[string]Ternary{"featured": TernaryYes}}, items)
	no := invoiceSchema.Filter(Filter{Flags: map[string]Ternary{"featured": TernaryNo}}, items)
	all := invoiceSchema.Filter(Filter{Flags: map[string]Ternary{"featured": TernaryAll}}, items)
	require.Equal(t, []string{"INV-3", "INV-4"}, ids(yes))
	require.Equal(t, []string{"INV-1", "INV-2"}, ids(no))
	require.Len(t, all, 4)
}

func TestAddingPredicatesNeverGrowsResult(t *testing.T) {
	items := sampleInvoices()
	steps := []Filter{
		{},
		{Query: "inv"},
		{Query: "inv", MinNumber: ptr(20.0)},
		{Query: "inv", MinNumber: ptr(20.0), Status: Only("overdue", "paid")},
		{Query: "inv", MinNumber: ptr(20.0), Status: Only("overdue", "paid"), Flags: map[string]Ternary{"featured": TernaryYes}},
		{Query: "inv", MinNumber: ptr(20.0), Status: Only("overdue", "paid"), Flags: map[string]Ternary{"featured": TernaryYes}, Categories: Only("group")},
	}
	prev := len(items) + 1
	for i, f := range steps {
		got := invoiceSchema.Filter(f, items)
		require.LessOrEqualf(t, len(got), prev, "step %d grew the result", i)
		for _, it := range got {
			for j := 0; j <= i; j++ {
				require.Truef(t, invoiceSchema.Match(steps[j], it), "%s passes step %d but not %d", it.ID, i, j)
			}
		}
		prev = len(got)
	}
	require.Equal(t, 1, prev)
}

func TestValidateRejectsUnknownFlagAndMissingAccessor(t *testing.T) {
	require.Error(t, invoiceSchema.Validate(Filter{Flags: map[string]Ternary{"pinned": TernaryYes}}))
	require.NoError(t, invoiceSchema.Validate(Filter{Flags: map[string]Ternary{"pinned": TernaryAll}}))
	require.Error(t, invoiceSchema.Validate(Filter{Flags: map[string]Ternary{"featured": "maybe"}}))

	bare := Schema[invoice]{ID: invoiceSchema.ID}
	require.Error(t, bare.Validate(Filter{MinNumber: ptr(1.0)}))
	require.Error(t, invoiceSchema.Validate(Filter{From: ptr(day("2024-02-01")), To: ptr(day("2024-01-01"))}))
}

func TestSortNumberBreaksTiesByRecency(t *testing.T) {
	items := sampleInvoices()
	got, err := invoiceSchema.Sort(SortNumberDesc, items)
	require.NoError(t, err)
	require.Equal(t, []string{"INV-3", "INV-1", "INV-4", "INV-2"}, ids(got))

	got, err = invoiceSchema.Sort(SortNumberAsc, items)
	require.NoError(t, err)
	require.Equal(t, []string{"INV-2", "INV-4", "INV-3", "INV-1"}, ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := sampleInvoices()
	before := ids(items)
	_, err := invoiceSchema.Sort(SortTimeDesc, items)
	require.NoError(t, err)
	require.Equal(t, before, ids(items))
}

func TestFlagFirstIsStablePartition(t *testing.T) {
	var items []invoice
	for i := 0; i < 12; i++ {
		items = append(items, invoice{
			ID:       fmt.Sprintf("R-%02d", i),
			Date:     day("2024-01-01").Add(time.Duration(i%4) * 24 * time.Hour),
			Featured: i%3 == 0,
		})
	}
	got, err := invoiceSchema.Sort(FlagFirst("featured"), items)
	require.NoError(t, err)

	seenPlain := false
	for _, it := range got {
		if !it.Featured {
			seenPlain = true
			continue
		}
		require.Falsef(t, seenPlain, "featured %s after a plain record", it.ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Featured != got[i-1].Featured {
			continue
		}
		require.False(t, got[i].Date.After(got[i-1].Date), "recency order broken at %d", i)
		if got[i].Date.Equal(got[i-1].Date) {
			require.Less(t, got[i-1].ID, got[i].ID, "equal keys must keep input order")
		}
	}
}

func TestResolveSort(t *testing.T) {
	mode, err := invoiceSchema.ResolveSort("")
	require.NoError(t, err)
	require.Equal(t, SortTimeDesc, mode)

	mode, err = invoiceSchema.ResolveSort("featured_first")
	require.NoError(t, err)
	require.Equal(t, FlagFirst("featured"), mode)

	_, err = invoiceSchema.ResolveSort("flag:pinned")
	require.Error(t, err)
	_, err = invoiceSchema.ResolveSort("alphabetical")
	require.Error(t, err)
}

func TestPaginateTotalsAndConcatenation(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for _, size := range []int{1, 3, 4, 10} {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}
			first := Paginate(items, size, 1)
			want := max(1, (n+size-1)/size)
			require.Equal(t, want, first.TotalPages, "n=%d size=%d", n, size)
			require.Equal(t, n, first.Total)

			var joined []int
			for p := 1; p <= first.TotalPages; p++ {
				joined = append(joined, Paginate(items, size, p).Items...)
			}
			if n == 0 {
				require.Empty(t, joined)
				continue
			}
			require.Equal(t, items, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginateClampsPastLastPage(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}
	page5 := Paginate(items, 4, 5)
	page3 := Paginate(items, 4, 3)
	require.Equal(t, 3, page5.TotalPages)
	require.Equal(t, 3, page5.Page)
	require.Equal(t, page3.Items, page5.Items)
	require.Equal(t, []int{8, 9}, page5.Items)
	require.False(t, page5.HasNext)

	empty := Paginate([]int{}, 4, 7)
	require.Equal(t, 1, empty.Page)
	require.Equal(t, 1, empty.TotalPages)
	require.NotNil(t, empty.Items)
	require.Empty(t, empty.Items)

	require.Equal(t, 1, Paginate(items, 4, -2).Page)
}

func TestViewResetsPageOnEveryChange(t *testing.T) {
	changes := []func(v *View){
		func(v *View) { v.SetQuery("x") },
		func(v *View) { v.SetStatus(Only("paid")) },
		func(v *View) { v.SetCategories(Only()) },
		func(v *View) { v.SetNumberRange(ptr(1.0), nil) },
		func(v *View) { v.SetDateRange(nil, ptr(day("2024-01-01"))) },
		func(v *View) { v.SetFlag("featured", TernaryYes) },
		func(v *View) { v.SetSort("amount_desc") },
		func(v *View) { v.SetPerPage(2) },
		func(v *View) { v.SetFilter(Filter{}) },
	}
	v := NewView(1)
	for i, change := range changes {
		v.SetPage(4)
		change(v)
		require.Equalf(t, 1, v.Page(), "change %d kept a stale page", i)
	}
}

func TestRunClampsAndStoresPage(t *testing.T) {
	v := NewView(1)
	v.SetPage(9)
	page, err := Run(v, invoiceSchema, sampleInvoices())
	require.NoError(t, err)
	require.Equal(t, 4, page.Page)
	require.Equal(t, 4, v.Page())
	require.Equal(t, []string{"INV-1"}, ids(page.Items))

	v.SetStatus(Only("paid"))
	page, err = Run(v, invoiceSchema, sampleInvoices())
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.TotalPages)
}

func TestParseValues(t *testing.T) {
	values := url.Values{
		"q":             {"coaching"},
		"status":        {"due,overdue"},
		"category":      {""},
		"min":           {"10"},
		"from":          {"2024-01-01"},
		"to":            {"2024-03-01"},
		"flag.featured": {"YES"},
		"sort":          {"amount_desc"},
		"page":          {"2"},
		"per_page":      {"500"},
	}
	v, err := ParseValues(values)
	require.NoError(t, err)
	f := v.Filter()
	require.Equal(t, "coaching", f.Query)
	require.Equal(t, []string{"due", "overdue"}, f.Status.Values())
	require.False(t, f.Categories.IsAll())
	require.Empty(t, f.Categories.Values())
	require.Equal(t, 10.0, *f.MinNumber)
	require.Nil(t, f.MaxNumber)
	require.Equal(t, day("2024-03-02").Add(-time.Millisecond), *f.To)
	require.Equal(t, TernaryYes, f.Flags["featured"])
	require.Equal(t, "amount_desc", v.SortName())
	require.Equal(t, 2, v.Page())
	require.Equal(t, 100, v.PerPage())

	v, err = ParseValues(url.Values{"status": {"all"}, "category": {"all"}})
	require.NoError(t, err)
	require.True(t, v.Filter().Status.IsAll())
	require.True(t, v.Filter().Categories.IsAll())

	for _, bad := range []url.Values{
		{"page": {"first"}},
		{"per_page": {"x"}},
		{"min": {"ten"}},
		{"from": {"01/02/2024"}},
		{"flag.featured": {"sometimes"}},
	} {
		_, err := ParseValues(bad)
		require.Error(t, err, "%v", bad)
	}
}

func TestParseValuesClampsNonPositivePage(t *testing.T) {
	for _, raw := range []string{"0", "-3"} {
		v, err := ParseValues(url.Values{"page": {raw}})
		require.NoError(t, err, raw)
		require.Equal(t, 1, v.Page(), raw)

		page, err := Run(v, invoiceSchema, sampleInvoices())
		require.NoError(t, err, raw)
		require.Equal(t, 1, page.Page, raw)
	}
}
