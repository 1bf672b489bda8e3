// Package repository 定义任务与计划结果的数据访问接口
package repository

import (
	"context"
)

// TxKey context 中携带事务句柄的键
type TxKey struct{}

// Transactor 在同一事务内执行 fn；fn 返回错误时回滚
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// 任务列表分页限制
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination 分页参数，页码从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 规范化分页参数
func NewPagination(page, pageSize int) Pagination {
	page = max(page, 1)
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 跳过的记录数
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// Limit 本页记录数
func (p Pagination) Limit() int { return p.PageSize }

// PagedResult 一页查询结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 组装分页结果
func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	r := &PagedResult[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
	if p.PageSize > 0 {
		r.TotalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return r
}
