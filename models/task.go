package models

import (
	"strings"

	"todolist/contract"
)

// Values holds column values for a row to insert, keyed by column name
type Values map[string]any

// Record is a fetched row keyed by column name. NULL columns are omitted.
type Record map[string]any

// ID returns the record's _id column, or 0 when it was not projected
func (r Record) ID() int64 {
	id, _ := r[contract.ColumnID].(int64)
	return id
}

// Query describes a fetch against the tasks table.
// Selection is an SQL predicate with ? placeholders bound from SelectionArgs.
type Query struct {
	Projection    []string
	Selection     string
	SelectionArgs []string
	SortOrder     string
}

type InsertTaskRequest struct {
	Values Values `json:"values" validate:"required"`
}

type QueryTasksRequest struct {
	Projection string   `json:"projection" query:"projection" validate:"omitempty,columnlist"`
	Selection  string   `json:"selection" query:"selection" validate:"max=1000"`
	Args       []string `json:"args" query:"args"`
	Sort       string   `json:"sort" query:"sort" validate:"omitempty,sortorder"`
}

// ToQuery converts the request into a repository query
func (r QueryTasksRequest) ToQuery() Query {
	var projection []string
	if strings.TrimSpace(r.Projection) != "" {
		for _, col := range strings.Split(r.Projection, ",") {
			projection = append(projection, strings.TrimSpace(col))
		}
	}
	return Query{
		Projection:    projection,
		Selection:     r.Selection,
		SelectionArgs: r.Args,
		SortOrder:     r.Sort,
	}
}

type InsertTaskResponse struct {
	URI string `json:"uri"`
	ID  int64  `json:"id"`
}
