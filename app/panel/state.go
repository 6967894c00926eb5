package panel

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"postpanel/app/repositories"
)

// PerPageOptions are the page sizes offered below the table. -1 shows all rows.
var PerPageOptions = []int{5, 10, 25, 50, repositories.AllPerPage}

// TableState is the list page state carried in the query string.
type TableState struct {
	Query  repositories.PostQuery
	Hidden map[string]bool
}

// ParseTableState reads search, filters, sort, page and hidden columns from values.
// Malformed numbers fall back to defaults rather than failing the page.
func ParseTableState(values url.Values, defaultPerPage int) TableState {
	q := repositories.PostQuery{
		Search:    values.Get("search"),
		Sort:      values.Get("sort"),
		Direction: strings.ToLower(values.Get("direction")),
	}
	switch strings.ToLower(values.Get("published")) {
	case "true", "1", "yes":
		v := true
		q.Published = &v
	case "false", "0", "no":
		v := false
		q.Published = &v
	}
	q.CategoryID, _ = strconv.Atoi(values.Get("category_id"))
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PerPage = defaultPerPage
	if v, err := strconv.Atoi(values.Get("per_page")); err == nil && validPerPage(v) {
		q.PerPage = v
	}

	hidden := make(map[string]bool)
	for _, raw := range values["hidden"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				hidden[name] = true
			}
		}
	}
	return TableState{Query: q.Normalize(), Hidden: hidden}
}

func validPerPage(n int) bool {
	for _, o := range PerPageOptions {
		if o == n {
			return true
		}
	}
	return false
}

// Values encodes the state back into a query string, overriding keys from extra.
func (s TableState) Values(extra map[string]string) url.Values {
	v := url.Values{}
	q := s.Query
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Published != nil {
		v.Set("published", strconv.FormatBool(*q.Published))
	}
	if q.CategoryID > 0 {
		v.Set("category_id", strconv.Itoa(q.CategoryID))
	}
	if q.Sort != repositories.SortID || q.Direction != "desc" {
		v.Set("sort", q.Sort)
		v.Set("direction", q.Direction)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	v.Set("per_page", strconv.Itoa(q.PerPage))
	var hidden []string
	for name, ok := range s.Hidden {
		if ok {
			hidden = append(hidden, name)
		}
	}
	if len(hidden) > 0 {
		sort.Strings(hidden)
		v.Set("hidden", strings.Join(hidden, ","))
	}
	for k, val := range extra {
		if val == "" {
			v.Del(k)
			continue
		}
		v.Set(k, val)
	}
	return v
}
