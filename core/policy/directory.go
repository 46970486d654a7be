package policy

import (
	"context"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/questionnaire"
	"github.com/trezcool/darasa/core/wallet"
	"github.com/trezcool/darasa/storage/document"
)

// Directory is the narrow read surface the evaluator needs: membership rows
// and the true parents referenced by foreign keys. A missing document is
// reported as absent, never as an error, so dangling references resolve to
// deny-by-default.
type Directory interface {
	Course(courseID string) (course.Course, bool)
	Membership(courseID, userID string) (course.Membership, bool)
	Assignment(assignmentID string) (assignment.Assignment, bool)
	Questionnaire(questionnaireID string) (questionnaire.Questionnaire, bool)
	Wallet(walletID string) (wallet.Wallet, bool)
}

// StoreDirectory implements Directory over the document store with bounded
// point reads (plus one field-equality query for roster rows).
type StoreDirectory struct {
	store document.Store
}

var _ Directory = (*StoreDirectory)(nil)

func NewStoreDirectory(store document.Store) *StoreDirectory {
	return &StoreDirectory{store: store}
}

func (d *StoreDirectory) Course(courseID string) (course.Course, bool) {
	var c course.Course
	if err := d.store.Get(context.Background(), course.Collection, courseID, &c); err != nil {
		return course.Course{}, false
	}
	return c, true
}

func (d *StoreDirectory) Membership(courseID, userID string) (course.Membership, bool) {
	var rows []course.Membership
	err := d.store.Query(context.Background(), course.MembershipCollection, []document.Filter{
		{Field: "courseId", Value: courseID},
		{Field: "userId", Value: userID},
	}, nil, &rows)
	if err != nil || len(rows) == 0 {
		return course.Membership{}, false
	}
	return rows[0], true
}

func (d *StoreDirectory) Assignment(assignmentID string) (assignment.Assignment, bool) {
	var a assignment.Assignment
	if err := d.store.Get(context.Background(), assignment.Collection, assignmentID, &a); err != nil {
		return assignment.Assignment{}, false
	}
	return a, true
}

func (d *StoreDirectory) Questionnaire(questionnaireID string) (questionnaire.Questionnaire, bool) {
	var q questionnaire.Questionnaire
	if err := d.store.Get(context.Background(), questionnaire.Collection, questionnaireID, &q); err != nil {
		return questionnaire.Questionnaire{}, false
	}
	return q, true
}

func (d *StoreDirectory) Wallet(walletID string) (wallet.Wallet, bool) {
	var w wallet.Wallet
	if err := d.store.Get(context.Background(), wallet.Collection, walletID, &w); err != nil {
		return wallet.Wallet{}, false
	}
	return w, true
}
