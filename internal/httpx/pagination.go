package httpx

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page: paginasi opsional. ?no_paginate=true mematikan paginasi
// (dipakai front end untuk dropdown kecil).
type Page struct {
	Number   int
	Size     int
	Disabled bool
}

func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	if q.Get("no_paginate") == "true" {
		return Page{Disabled: true}
	}

	p := Page{Number: 1, Size: defaultPageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if s, err := strconv.Atoi(q.Get("page_size")); err == nil && s > 0 {
		p.Size = s
		if p.Size > maxPageSize {
			p.Size = maxPageSize
		}
	}
	return p
}

// LimitOffset: limit 0 artinya tanpa limit (paginasi off).
func (p Page) LimitOffset() (limit, offset int) {
	if p.Disabled {
		return 0, 0
	}
	return p.Size, (p.Number - 1) * p.Size
}
