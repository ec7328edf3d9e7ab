package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageInfo describes where a page of records sits in the full result.
type PageInfo struct {
	Page       int
	Limit      int
	TotalPages int
	TotalCount int
}

// Listing is the parsed form of a list response: either a Page or Empty.
type Listing[T any] interface {
	listing()
}

type Page[T any] struct {
	Records []T
	Info    PageInfo
}

type Empty[T any] struct{}

func (Page[T]) listing()  {}
func (Empty[T]) listing() {}

type envelope[T any] struct {
	Data       []T `json:"data"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

// ParseList accepts {data, totalPages, totalCount}, a bare array, or
// anything else (Empty). Missing or zero totalPages becomes 1 and missing
// or zero totalCount becomes the number of records.
func ParseList[T any](body []byte, page, limit int) (Listing[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Empty[T]{}, nil
	}

	switch body[0] {
	case '[':
		var records []T
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return Page[T]{
			Records: records,
			Info:    PageInfo{Page: page, Limit: limit, TotalPages: 1, TotalCount: len(records)},
		}, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		data := bytes.TrimSpace(probe["data"])
		if len(data) == 0 || data[0] != '[' {
			return Empty[T]{}, nil
		}
		var env envelope[T]
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		info := PageInfo{Page: page, Limit: limit, TotalPages: env.TotalPages, TotalCount: env.TotalCount}
		if info.TotalPages <= 0 {
			info.TotalPages = 1
		}
		if info.TotalCount <= 0 {
			info.TotalCount = len(env.Data)
		}
		return Page[T]{Records: env.Data, Info: info}, nil
	default:
		return Empty[T]{}, nil
	}
}

// Records returns the records of l, nil for Empty.
func Records[T any](l Listing[T]) []T {
	if p, ok := l.(Page[T]); ok {
		return p.Records
	}
	return nil
}
