// Package problem models a problem's on-disk test data: a taskset of
// either flat test cases or subtasks-with-dependencies, stored three times
// per problem (pretest data, full data, extra/hack data) alongside
// problem metadata.
package problem

import (
	"fmt"

	"zroj/internal/store"
)

// Rule is a subtask scoring rule.
type Rule string

const (
	// RuleSum adds each test case's score within a subtask.
	RuleSum Rule = "sum"
	// RuleMinimum takes the minimum score rate across a subtask's test
	// cases and multiplies it by the subtask's total score.
	RuleMinimum Rule = "minimum"
)

// DepRelation records that one subtask depends on another: Dependee is
// judged before Depender. Under RuleMinimum, Depender is skipped when
// Dependee was skipped or scored (near) zero; under RuleSum, Depender is
// judged regardless.
type DepRelation struct {
	Depender int `json:"depender"`
	Dependee int `json:"dependee"`
}

// NewDepRelation builds a DepRelation, panicking if depender does not
// come after dependee — dependencies only ever point backwards, matching
// how subtasks are declared in problem configuration.
func NewDepRelation(depender, dependee int) DepRelation {
	if depender <= dependee {
		panic("dependent subtask must have a higher index than its dependency")
	}
	return DepRelation{Depender: depender, Dependee: dependee}
}

// Subtask is one scored group of test cases.
type Subtask[Task any] struct {
	Tasks []Task  `json:"tasks"`
	Score float64 `json:"score"`
}

// Kind distinguishes the two shapes a Taskset can take.
type Kind string

const (
	KindSubtasks Kind = "subtasks"
	KindTests    Kind = "tests"
)

// Taskset is a problem's test data, either as independently-scored test
// cases or as subtasks with an optional dependency DAG between them.
type Taskset[Task any] struct {
	Kind     Kind            `json:"kind"`
	Subtasks []Subtask[Task] `json:"subtasks,omitempty"`
	Deps     []DepRelation   `json:"deps,omitempty"`
	Tests    []Task          `json:"tests,omitempty"`
}

// NewTestsTaskset builds a flat, subtask-free Taskset.
func NewTestsTaskset[Task any](tests []Task) Taskset[Task] {
	return Taskset[Task]{Kind: KindTests, Tests: tests}
}

// NewSubtaskTaskset builds a Taskset grouped into subtasks with the given
// dependency relations.
func NewSubtaskTaskset[Task any](subtasks []Subtask[Task], deps []DepRelation) Taskset[Task] {
	return Taskset[Task]{Kind: KindSubtasks, Subtasks: subtasks, Deps: deps}
}

// OJData is the full on-disk record for one problem's test data: the full
// data set plus the lighter pretest and extra tasksets, and problem
// metadata M (time/memory limits, checker choice, ...).
type OJData[Task any, Meta any] struct {
	Data  Taskset[Task] `json:"data"`
	Pre   Taskset[Task] `json:"pre"`
	Extra Taskset[Task] `json:"extra"`
	Meta  Meta          `json:"meta"`
}

// NewOJData builds an OJData with empty data/pre/extra tasksets.
func NewOJData[Task any, Meta any](meta Meta) OJData[Task, Meta] {
	return OJData[Task, Meta]{
		Data:  NewTestsTaskset[Task](nil),
		Pre:   NewTestsTaskset[Task](nil),
		Extra: NewTestsTaskset[Task](nil),
		Meta:  meta,
	}
}

// Save persists the OJData under h: each taskset in its own subdirectory
// (data, pre, extra) and Meta in h itself.
func (d OJData[Task, Meta]) Save(h store.Handle) error {
	if err := saveJSON(h.Join("data"), d.Data); err != nil {
		return err
	}
	if err := saveJSON(h.Join("pre"), d.Pre); err != nil {
		return err
	}
	if err := saveJSON(h.Join("extra"), d.Extra); err != nil {
		return err
	}
	return saveJSON(h, d.Meta)
}

// Open loads an OJData previously written by Save.
func Open[Task any, Meta any](h store.Handle) (OJData[Task, Meta], error) {
	var out OJData[Task, Meta]
	if err := loadJSON(h.Join("data"), &out.Data); err != nil {
		return out, err
	}
	if err := loadJSON(h.Join("pre"), &out.Pre); err != nil {
		return out, err
	}
	if err := loadJSON(h.Join("extra"), &out.Extra); err != nil {
		return out, err
	}
	if err := loadJSON(h, &out.Meta); err != nil {
		return out, err
	}
	for _, ts := range []Taskset[Task]{out.Data, out.Pre, out.Extra} {
		for _, d := range ts.Deps {
			if d.Depender <= d.Dependee {
				return out, fmt.Errorf("invalid subtask dependency %d -> %d: a subtask may only depend on an earlier one", d.Depender, d.Dependee)
			}
		}
	}
	return out, nil
}

func saveJSON(h store.Handle, v interface{}) error {
	return h.SaveMeta(v)
}

func loadJSON(h store.Handle, v interface{}) error {
	return h.LoadMeta(v)
}
