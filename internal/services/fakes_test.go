package services

import (
	"context"
	"sync"

	"github.com/mbsadvocates/site/internal/auth"
	"github.com/mbsadvocates/site/internal/database"
)

type fakeStore struct {
	mu         sync.Mutex
	insertErr  error
	inserts    []insertCall
	selectFunc func(table string, dest any, q database.Query) error
	selects    []database.Query
}

type insertCall struct {
	table  string
	record any
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) Insert(_ context.Context, table string, record any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, insertCall{table: table, record: record})
	return f.insertErr
}

func (f *fakeStore) Select(_ context.Context, table string, dest any, q database.Query) error {
	f.mu.Lock()
	f.selects = append(f.selects, q)
	f.mu.Unlock()
	if f.selectFunc != nil {
		return f.selectFunc(table, dest, q)
	}
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []Message
}

func (f *fakeNotifier) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		panic("notification sent without a deadline")
	}
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeProvider struct {
	configured  bool
	session     *auth.Session
	signInErr   error
	signOutErr  error
	updateErr   error
	signOuts    []string
	updateToken string
	updatePass  string
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) SignIn(_ context.Context, _, _ string) (*auth.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeProvider) SignOut(_ context.Context, token string) error {
	f.signOuts = append(f.signOuts, token)
	return f.signOutErr
}

func (f *fakeProvider) UpdatePassword(_ context.Context, token, password string) error {
	f.updateToken, f.updatePass = token, password
	return f.updateErr
}
